// Package observer delivers filesystem change events to per-path
// observers over a single shared kernel notification queue. One
// background goroutine reads the queue and routes each record to the
// observer that registered the matching watch. The goroutine and the
// kernel handle exist only while at least one observer is watching; the
// last Stop tears both down deterministically.
//
// Handlers run on the shared dispatch goroutine. They must not block for
// long and must not panic; work belonging to another goroutine should be
// handed off explicitly. The package keeps a reference to an Observer
// only while it is watching, so the application owns its lifetime.
package observer

import (
	"sync"
)

// Handler receives the events of one watch. The mask describes what
// happened; name is the changed entry's path relative to the watched
// path, or empty when the watched entry itself is concerned (for example
// DeleteSelf and MoveSelf).
type Handler interface {
	OnEvent(mask EventMask, name string)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(mask EventMask, name string)

func (f HandlerFunc) OnEvent(mask EventMask, name string) {
	f(mask, name)
}

// Observer watches a single file or directory for the event kinds in its
// mask. Watching does not begin on creation; call Start. An Observer can
// be started and stopped repeatedly.
type Observer struct {
	path    string
	mask    EventMask
	handler Handler
	hub     *hub

	mu  sync.Mutex
	wd  int32
	src EventSource
}

// New creates an observer for path. Pass All to watch every event kind.
func New(path string, mask EventMask, handler Handler) *Observer {
	return &Observer{
		path:    path,
		mask:    mask,
		handler: handler,
		hub:     defaultHub,
		wd:      -1,
	}
}

// Start begins delivering events to the handler. The watched path must
// exist. No effect if the observer is already watching; on failure the
// observer stays stopped and Start may be retried.
func (o *Observer) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.wd >= 0 {
		return nil
	}

	wd, src, err := o.hub.startWatching(o.path, o.mask, o)
	if err != nil {
		return err
	}

	o.wd = wd
	o.src = src

	return nil
}

// Stop ends event delivery. No effect if the observer is not watching.
// Records already read from the kernel may still be delivered while Stop
// runs; after it returns, none are. Stop must be called before an
// Observer is abandoned, typically via defer; an unreferenced Observer is
// never cleaned up implicitly.
func (o *Observer) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.wd < 0 {
		return
	}

	o.hub.stopWatching(o.wd, o.src)
	o.wd = -1
	o.src = nil
}

// Path returns the watched path.
func (o *Observer) Path() string {
	return o.path
}

// Watching reports whether the observer currently has an active watch.
func (o *Observer) Watching() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.wd >= 0
}
