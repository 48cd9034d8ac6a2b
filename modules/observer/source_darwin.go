//go:build darwin

package observer

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsevents"
)

// fseventsSource emulates the shared-queue contract on top of FSEvents.
// Each watch runs its own event stream; a pump goroutine per stream tags
// the records with the watch descriptor and feeds them into one shared
// channel that ReadEvents drains.
type fseventsSource struct {
	records chan []Event
	done    chan struct{}

	mu      sync.Mutex
	nextWD  int32
	streams map[int32]*fseventsWatch
	closed  bool
}

type fseventsWatch struct {
	path   string
	mask   EventMask
	stream *fsevents.EventStream
	stop   chan struct{}
}

func newEventSource() (EventSource, error) {
	return &fseventsSource{
		records: make(chan []Event),
		done:    make(chan struct{}),
		streams: make(map[int32]*fseventsWatch),
	}, nil
}

func (s *fseventsSource) AddWatch(path string, mask EventMask) (int32, error) {
	ap, err := filepath.Abs(path)
	if err != nil {
		return -1, fmt.Errorf("failed to get absolute path: %w", err)
	}

	dev, err := fsevents.DeviceForPath(ap)
	if err != nil {
		return -1, fmt.Errorf("failed to retrieve device for path: %w", err)
	}

	stream := &fsevents.EventStream{
		Paths:   []string{ap},
		Latency: 100 * time.Millisecond,
		Device:  dev,
		Flags:   fsevents.FileEvents | fsevents.WatchRoot,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return -1, ErrSourceClosed
	}
	s.nextWD++
	wd := s.nextWD
	w := &fseventsWatch{
		path:   ap,
		mask:   mask,
		stream: stream,
		stop:   make(chan struct{}),
	}
	s.streams[wd] = w
	s.mu.Unlock()

	stream.Start()
	go s.pump(wd, w)

	return wd, nil
}

func (s *fseventsSource) RemoveWatch(wd int32) error {
	s.mu.Lock()
	w := s.streams[wd]
	delete(s.streams, wd)
	s.mu.Unlock()

	if w == nil {
		return fmt.Errorf("watch %d is not active", wd)
	}

	w.stream.Stop()
	close(w.stop)

	return nil
}

func (s *fseventsSource) ReadEvents() ([]Event, error) {
	select {
	case batch := <-s.records:
		return batch, nil
	case <-s.done:
		return nil, ErrSourceClosed
	}
}

func (s *fseventsSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	streams := s.streams
	s.streams = make(map[int32]*fseventsWatch)
	s.mu.Unlock()

	for _, w := range streams {
		w.stream.Stop()
		close(w.stop)
	}
	close(s.done)

	return nil
}

func (s *fseventsSource) pump(wd int32, w *fseventsWatch) {
	for {
		select {
		case msg := <-w.stream.Events:
			batch := make([]Event, 0, len(msg))
			for _, raw := range msg {
				ev, ok := translateFSEvent(wd, w, raw)
				if !ok {
					continue
				}
				batch = append(batch, ev)
			}
			if len(batch) == 0 {
				continue
			}
			select {
			case s.records <- batch:
			case <-w.stop:
				return
			case <-s.done:
				return
			}
		case <-w.stop:
			return
		case <-s.done:
			return
		}
	}
}

func translateFSEvent(wd int32, w *fseventsWatch, raw fsevents.Event) (Event, bool) {
	path := strings.TrimSuffix(raw.Path, "/")
	self := path == w.path

	var mask EventMask
	switch {
	case raw.Flags&fsevents.ItemCreated != 0:
		mask = Create
	case raw.Flags&fsevents.ItemRemoved != 0:
		if self {
			mask = DeleteSelf
		} else {
			mask = Delete
		}
	case raw.Flags&fsevents.ItemRenamed != 0:
		if self {
			mask = MoveSelf
		} else {
			mask = MovedTo
		}
	case raw.Flags&fsevents.ItemModified != 0:
		mask = Modify
	case raw.Flags&(fsevents.ItemChangeOwner|fsevents.ItemInodeMetaMod|fsevents.ItemFinderInfoMod) != 0:
		mask = Attrib
	default:
		return Event{}, false
	}

	mask &= w.mask
	if mask == 0 {
		return Event{}, false
	}

	var name string
	if !self {
		name = strings.TrimPrefix(path, w.path+"/")
	}

	return Event{WD: wd, Mask: mask, Name: name}, true
}
