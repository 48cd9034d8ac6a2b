//go:build !linux && !darwin

package observer

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fsnotifySource emulates the shared-queue contract on platforms without
// inotify or FSEvents. One fsnotify watcher backs all watches; records
// are attributed to a watch by longest matching path prefix.
type fsnotifySource struct {
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	nextWD  int32
	watches map[int32]*fsnotifyWatch
	closed  bool
}

type fsnotifyWatch struct {
	path string
	mask EventMask
}

func newEventSource() (EventSource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &fsnotifySource{
		watcher: w,
		watches: make(map[int32]*fsnotifyWatch),
	}, nil
}

func (s *fsnotifySource) AddWatch(path string, mask EventMask) (int32, error) {
	ap, err := filepath.Abs(path)
	if err != nil {
		return -1, fmt.Errorf("failed to get absolute path: %w", err)
	}

	if err := s.watcher.Add(ap); err != nil {
		return -1, fmt.Errorf("failed to watch %s: %w", ap, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return -1, ErrSourceClosed
	}

	s.nextWD++
	s.watches[s.nextWD] = &fsnotifyWatch{path: ap, mask: mask}

	return s.nextWD, nil
}

func (s *fsnotifySource) RemoveWatch(wd int32) error {
	s.mu.Lock()
	w := s.watches[wd]
	delete(s.watches, wd)
	s.mu.Unlock()

	if w == nil {
		return fmt.Errorf("watch %d is not active", wd)
	}

	return s.watcher.Remove(w.path)
}

func (s *fsnotifySource) ReadEvents() ([]Event, error) {
	for {
		select {
		case raw, ok := <-s.watcher.Events:
			if !ok {
				return nil, ErrSourceClosed
			}
			ev, ok := s.translate(raw)
			if !ok {
				continue
			}
			return []Event{ev}, nil
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return nil, ErrSourceClosed
			}
			return nil, fmt.Errorf("watcher failed: %w", err)
		}
	}
}

func (s *fsnotifySource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.watcher.Close()
}

func (s *fsnotifySource) translate(raw fsnotify.Event) (Event, bool) {
	path := filepath.Clean(raw.Name)

	s.mu.Lock()
	var (
		wd    int32
		watch *fsnotifyWatch
	)
	for id, w := range s.watches {
		if path != w.path && !strings.HasPrefix(path, w.path+string(filepath.Separator)) {
			continue
		}
		if watch == nil || len(w.path) > len(watch.path) {
			wd, watch = id, w
		}
	}
	s.mu.Unlock()

	if watch == nil {
		return Event{}, false
	}

	self := path == watch.path

	var mask EventMask
	switch {
	case raw.Has(fsnotify.Create):
		mask = Create
	case raw.Has(fsnotify.Write):
		mask = Modify
	case raw.Has(fsnotify.Remove):
		if self {
			mask = DeleteSelf
		} else {
			mask = Delete
		}
	case raw.Has(fsnotify.Rename):
		if self {
			mask = MoveSelf
		} else {
			mask = MovedFrom
		}
	case raw.Has(fsnotify.Chmod):
		mask = Attrib
	default:
		return Event{}, false
	}

	mask &= watch.mask
	if mask == 0 {
		return Event{}, false
	}

	var name string
	if !self {
		name, _ = filepath.Rel(watch.path, path)
	}

	return Event{WD: wd, Mask: mask, Name: name}, true
}
