package pipeline

import (
	"espansync/model"
	"sync"
	"time"
)

// Debounce collapses bursts of events per path, so an editor writing
// a file several times in quick succession triggers one sync.
func Debounce(inCh <-chan model.FileEvent, delay time.Duration) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		defer close(outCh)

		var mu sync.Mutex
		timers := make(map[string]*time.Timer)
		events := make(map[string]model.FileEvent)

		for event := range inCh {
			path := event.Path

			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Stop()
			}

			events[path] = event

			timers[path] = time.AfterFunc(delay, func() {
				mu.Lock()
				pending, ok := events[path]
				delete(timers, path)
				delete(events, path)
				mu.Unlock()

				if ok {
					outCh <- pending
				}
			})
			mu.Unlock()
		}

		// Flush whatever is still pending when the source closes.
		mu.Lock()
		for path, t := range timers {
			t.Stop()
			outCh <- events[path]
			delete(timers, path)
			delete(events, path)
		}
		mu.Unlock()
	}()

	return outCh
}
