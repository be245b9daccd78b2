package syncer

import (
	"context"
	"errors"
	"espansync/logger"
	"espansync/model"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HistorySink receives the outcome of every completed run.
type HistorySink interface {
	SaveOutcome(op model.SyncOp, trigger string, outcome model.SyncOutcome) error
}

// Scheduler owns the recurring auto-sync. Every trigger source (the
// interval timer, the filesystem watcher, the control API) funnels
// into one loop goroutine, so only that goroutine ever calls Sync and
// the timer never touches shared state from the outside.
type Scheduler struct {
	manager  *Manager
	history  HistorySink
	interval time.Duration

	triggerCh chan string
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once

	mu          sync.RWMutex
	started     bool
	runs        int
	failed      int
	lastTrigger string
	lastOutcome *model.SyncOutcome
}

func NewScheduler(manager *Manager, history HistorySink, interval time.Duration) *Scheduler {
	return &Scheduler{
		manager:   manager,
		history:   history,
		interval:  interval,
		triggerCh: make(chan string, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.loop(ctx)

	logger.Log.Info("auto-sync started",
		zap.Duration("interval", s.interval))
}

// Stop cancels the pending schedule and waits for the loop to drain.
// Safe to call from any goroutine, any number of times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	if started {
		<-s.doneCh
	}
}

// TriggerNow requests an immediate run. Non-blocking: if a trigger is
// already pending it covers this one too.
func (s *Scheduler) TriggerNow(reason string) {
	select {
	case s.triggerCh <- reason:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.doneCh)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.run(ctx, "interval")

		case reason := <-s.triggerCh:
			s.run(ctx, reason)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}

		case <-s.stopCh:
			return

		case <-ctx.Done():
			return
		}

		// Re-arm unconditionally: one failed run must never
		// disable the recurring schedule.
		timer.Reset(s.interval)
	}
}

func (s *Scheduler) run(ctx context.Context, trigger string) {
	outcome, err := s.manager.Sync(ctx)
	if errors.Is(err, ErrSyncInProgress) {
		logger.Log.Debug("auto-sync skipped, already running",
			zap.String("trigger", trigger))
		return
	}

	s.record(trigger, outcome)

	if s.history != nil {
		if err := s.history.SaveOutcome(model.OpSync, trigger, outcome); err != nil {
			logger.Log.Warn("failed to save history", zap.Error(err))
		}
	}

	if !outcome.Success {
		logger.Log.Warn("auto-sync failed",
			zap.String("trigger", trigger),
			zap.String("error", outcome.Error))
	}
}

func (s *Scheduler) record(trigger string, outcome model.SyncOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	if !outcome.Success {
		s.failed++
	}
	s.lastTrigger = trigger
	s.lastOutcome = &outcome
}

type SchedulerSnapshot struct {
	Runs        int                `json:"runs"`
	Failed      int                `json:"failed"`
	LastTrigger string             `json:"last_trigger,omitempty"`
	LastOutcome *model.SyncOutcome `json:"last_outcome,omitempty"`
}

func (s *Scheduler) Snapshot() SchedulerSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SchedulerSnapshot{
		Runs:        s.runs,
		Failed:      s.failed,
		LastTrigger: s.lastTrigger,
		LastOutcome: s.lastOutcome,
	}
}
