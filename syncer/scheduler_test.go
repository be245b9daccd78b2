package syncer

import (
	"context"
	"espansync/model"
	"espansync/remote"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu       sync.Mutex
	triggers []string
	outcomes []model.SyncOutcome
}

func (r *recordingSink) SaveOutcome(_ model.SyncOp, trigger string, outcome model.SyncOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, trigger)
	r.outcomes = append(r.outcomes, outcome)
	return nil
}

func (r *recordingSink) snapshot() ([]string, []model.SyncOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.triggers...), append([]model.SyncOutcome(nil), r.outcomes...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestSchedulerRunsOnTrigger(t *testing.T) {
	m := NewManager(t.TempDir(), remote.NewMemory(), nil)
	sink := &recordingSink{}
	s := NewScheduler(m, sink, time.Hour)

	s.Start(context.Background())
	defer s.Stop()

	s.TriggerNow("watcher")
	waitFor(t, func() bool {
		triggers, _ := sink.snapshot()
		return len(triggers) == 1
	})

	triggers, outcomes := sink.snapshot()
	require.Len(t, triggers, 1)
	assert.Equal(t, "watcher", triggers[0])
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, "watcher", s.Snapshot().LastTrigger)
}

func TestSchedulerRunsOnInterval(t *testing.T) {
	m := NewManager(t.TempDir(), remote.NewMemory(), nil)
	sink := &recordingSink{}
	s := NewScheduler(m, sink, 30*time.Millisecond)

	s.Start(context.Background())
	defer s.Stop()

	waitFor(t, func() bool { return s.Snapshot().Runs >= 2 })
	assert.Equal(t, "interval", s.Snapshot().LastTrigger)
}

func TestSchedulerSurvivesFailedRuns(t *testing.T) {
	store := remote.NewMemory()
	store.FailList = "config"

	m := NewManager(t.TempDir(), store, nil)
	s := NewScheduler(m, &recordingSink{}, time.Hour)

	s.Start(context.Background())
	defer s.Stop()

	s.TriggerNow("api")
	waitFor(t, func() bool { return s.Snapshot().Failed == 1 })

	// The schedule must stay armed after a failure.
	store.FailList = ""
	s.TriggerNow("api")
	waitFor(t, func() bool { return s.Snapshot().Runs == 2 })

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Failed)
	require.NotNil(t, snap.LastOutcome)
	assert.True(t, snap.LastOutcome.Success)
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	m := NewManager(t.TempDir(), remote.NewMemory(), nil)
	s := NewScheduler(m, nil, time.Hour)

	s.Start(context.Background())
	s.Stop()
	s.Stop()
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	m := NewManager(t.TempDir(), remote.NewMemory(), nil)
	s := NewScheduler(m, nil, time.Hour)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running loop")
	}
}

func TestSchedulerContextCancelStopsLoop(t *testing.T) {
	m := NewManager(t.TempDir(), remote.NewMemory(), nil)
	s := NewScheduler(m, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.doneCh:
	case <-time.After(time.Second):
		t.Fatal("loop did not exit on context cancel")
	}
}
