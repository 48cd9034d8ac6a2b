package observer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// hub multiplexes one event source across all active watches. The source
// is created when the first watch starts and closed when the last watch
// stops, so no goroutine or file descriptor outlives the watches it
// serves. mu guards every source transition; the watch table has its own
// lock so slow handlers never block starts and stops.
type hub struct {
	newSource func() (EventSource, error)

	mu      sync.Mutex
	source  EventSource
	watches *watchTable
}

func newHub(newSource func() (EventSource, error)) *hub {
	return &hub{
		newSource: newSource,
		watches:   newWatchTable(),
	}
}

// defaultHub serves every Observer created with New. Initialization is
// cheap; the kernel handle itself is only opened on first Start.
var defaultHub = newHub(newEventSource)

// startWatching ensures a source and its dispatch goroutine exist, adds a
// watch for path on it and registers the observer under the returned
// descriptor. The per-path AddWatch runs outside the coordination lock;
// the registration re-checks that the source survived, so a start racing
// a concurrent last stop retries against a fresh source instead of
// registering on a closed one.
func (h *hub) startWatching(path string, mask EventMask, o *Observer) (int32, EventSource, error) {
	for {
		h.mu.Lock()
		src := h.source
		if src == nil {
			var err error
			src, err = h.newSource()
			if err != nil {
				h.mu.Unlock()
				return -1, nil, fmt.Errorf("failed to open event source: %w", err)
			}
			h.source = src
			go h.run(src)
		}
		h.mu.Unlock()

		wd, err := src.AddWatch(path, mask)
		if err != nil {
			h.mu.Lock()
			stale := h.source != src
			h.mu.Unlock()
			if stale {
				// A concurrent last stop closed the source mid-add.
				continue
			}
			h.closeIfIdle(src)
			return -1, nil, fmt.Errorf("failed to watch %s: %w", path, err)
		}

		h.mu.Lock()
		if h.source == src {
			h.watches.put(wd, o)
			h.mu.Unlock()
			return wd, src, nil
		}
		h.mu.Unlock()
		// The source was torn down while the watch was being added.
	}
}

// stopWatching removes the watch registered as wd on src. Records already
// read for wd may still be dispatched while this call runs; once the
// table entry is gone they are dropped. Safe to call any number of times
// and after the source has already been discarded.
func (h *hub) stopWatching(wd int32, src EventSource) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.source != src {
		// The source this watch lived on is gone; nothing to undo.
		return
	}

	h.watches.remove(wd)
	_ = src.RemoveWatch(wd)

	if h.watches.empty() {
		_ = src.Close()
		h.source = nil
	}
}

// closeIfIdle tears down src if it is still current and serves no
// watches. Keeps the handle-exists-iff-watching invariant intact when the
// very first AddWatch on a fresh source fails.
func (h *hub) closeIfIdle(src EventSource) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.source == src && h.watches.empty() {
		_ = src.Close()
		h.source = nil
	}
}

// run is the dispatch loop. Exactly one instance runs per source
// lifetime: only the caller that installed the source spawns it, and it
// exits when the source is closed or its stream fails.
func (h *hub) run(src EventSource) {
	for {
		events, err := src.ReadEvents()
		if err != nil {
			if errors.Is(err, ErrSourceClosed) {
				// Orderly shutdown via stopWatching.
				return
			}
			log.Error().Caller().Err(err).Msg("event stream failed, stopping dispatch")
			h.discard(src)
			return
		}

		for _, ev := range events {
			o := h.watches.get(ev.WD)
			if o == nil {
				// Watch stopped while the record was in flight.
				continue
			}
			dispatch(o, ev)
		}
	}
}

// discard drops a source whose stream failed, with all of its watches.
func (h *hub) discard(src EventSource) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.source != src {
		return
	}

	h.watches.clear()
	_ = src.Close()
	h.source = nil
}

// dispatch invokes one handler with panic isolation, so a misbehaving
// observer cannot stop delivery to the others.
func dispatch(o *Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("path", o.path).Interface("panic", r).Msg("observer handler panicked")
		}
	}()

	o.handler.OnEvent(ev.Mask, ev.Name)
}
