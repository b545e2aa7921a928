package fsevents

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// DebounceWindow batches events arriving within this window into
	// one ordered slice. Default: 50ms.
	DebounceWindow time.Duration
	// RateLimitPerSecond caps how many batches are emitted per second,
	// so a recursive-write storm cannot starve the tracker's
	// single-threaded graph mutator. Default: 50.
	RateLimitPerSecond float64
	// RateLimitBurst is the limiter's burst allowance. Default: 100.
	RateLimitBurst int
	// BufferSize is the size of the internal event channel. Default: 1000.
	BufferSize int
}

func (o *WatchOptions) setDefaults() {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 50 * time.Millisecond
	}
	if o.RateLimitPerSecond <= 0 {
		o.RateLimitPerSecond = 50
	}
	if o.RateLimitBurst == 0 {
		o.RateLimitBurst = 100
	}
	if o.BufferSize == 0 {
		o.BufferSize = 1000
	}
}

// Watch recursively watches root and returns a channel of debounced,
// rate-limited, ordered event batches suitable as direct input to
// RequestGraph.RespondToFSEvents, plus a close function. This is a
// convenience adapter over fsnotify — a caller may supply batches
// from any other source instead.
func Watch(root string, opts WatchOptions) (<-chan []Event, func() error, error) {
	opts.setDefaults()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return nil, nil, err
	}

	out := make(chan []Event, opts.BufferSize)
	done := make(chan struct{})
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimitPerSecond), opts.RateLimitBurst)

	go debounceLoop(w, out, done, opts.DebounceWindow, limiter)

	closeFn := func() error {
		close(done)
		return w.Close()
	}
	return out, closeFn, nil
}

func debounceLoop(w *fsnotify.Watcher, out chan<- []Event, done <-chan struct{}, window time.Duration, limiter *rate.Limiter) {
	defer close(out)

	var batch []Event
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) == 0 {
			return
		}
		limiter.Wait(context.Background()) //nolint:errcheck // background context never errors
		select {
		case out <- batch:
		case <-done:
		}
		batch = nil
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
	}

	for {
		select {
		case <-done:
			return
		case ev, ok := <-w.Events:
			if !ok {
				flush()
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := statIsDir(ev.Name); err == nil && info {
					w.Add(ev.Name)
				}
				batch = append(batch, Event{Path: ev.Name, Type: Create})
			} else if ev.Has(fsnotify.Write) {
				batch = append(batch, Event{Path: ev.Name, Type: Update})
			} else if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				batch = append(batch, Event{Path: ev.Name, Type: Delete})
			} else {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(window)
				timerC = timer.C
			} else {
				timer.Reset(window)
			}
		case <-timerC:
			flush()
		case _, ok := <-w.Errors:
			if !ok {
				flush()
				return
			}
		}
	}
}
