//go:build linux

package observer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sys/unix"
)

// Room for a full batch of records; a name can be up to NAME_MAX bytes.
const readBufSize = 64 * (unix.SizeofInotifyEvent + unix.NAME_MAX + 1)

type inotifySource struct {
	fd  int
	buf []byte

	mu     sync.Mutex
	closed bool
}

func newEventSource() (EventSource, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize inotify: %w", err)
	}

	return &inotifySource{
		fd:  fd,
		buf: make([]byte, readBufSize),
	}, nil
}

func (s *inotifySource) AddWatch(path string, mask EventMask) (int32, error) {
	wd, err := unix.InotifyAddWatch(s.fd, path, uint32(mask))
	if err != nil {
		return -1, fmt.Errorf("failed to add inotify watch for %s: %w", path, err)
	}

	return int32(wd), nil
}

func (s *inotifySource) RemoveWatch(wd int32) error {
	// The descriptor may already be invalid if the watched entry vanished
	// and the kernel dropped the watch on its own.
	_, err := unix.InotifyRmWatch(s.fd, uint32(wd))
	if err != nil {
		return fmt.Errorf("failed to remove inotify watch %d: %w", wd, err)
	}

	return nil
}

func (s *inotifySource) ReadEvents() ([]Event, error) {
	for {
		n, err := unix.Read(s.fd, s.buf)
		if err == unix.EINTR {
			// Interrupted by a signal. Not an error, read again.
			continue
		}

		if s.isClosed() {
			return nil, ErrSourceClosed
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read inotify events: %w", err)
		}
		if n == 0 {
			return nil, ErrSourceClosed
		}

		events, err := parseEvents(s.buf[:n])
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			// The batch carried only kernel bookkeeping records.
			continue
		}

		return events, nil
	}
}

// Close releases the inotify handle. A goroutine blocked in ReadEvents
// observes the closed handle and returns ErrSourceClosed.
func (s *inotifySource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := unix.Close(s.fd); err != nil {
		return fmt.Errorf("failed to close inotify handle: %w", err)
	}

	return nil
}

func (s *inotifySource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// parseEvents decodes one read's worth of raw inotify records. Records
// the kernel emits purely for bookkeeping (IN_IGNORED, queue overflow)
// carry no kind bit and are skipped. A buffer that ends mid-record is a
// hard error: after a short read the remaining record boundaries cannot
// be trusted.
func parseEvents(buf []byte) ([]Event, error) {
	events := make([]Event, 0, len(buf)/unix.SizeofInotifyEvent)
	rd := bytes.NewReader(buf)

	for rd.Len() > 0 {
		if rd.Len() < unix.SizeofInotifyEvent {
			return nil, fmt.Errorf("short inotify record: %d trailing bytes", rd.Len())
		}

		var meta unix.InotifyEvent
		if err := binary.Read(rd, binary.LittleEndian, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode inotify record: %w", err)
		}

		if int(meta.Len) > rd.Len() {
			return nil, fmt.Errorf("truncated inotify record: name wants %d of %d bytes", meta.Len, rd.Len())
		}

		var name string
		if meta.Len > 0 {
			raw := make([]byte, meta.Len)
			if _, err := io.ReadFull(rd, raw); err != nil {
				return nil, fmt.Errorf("failed to read record name: %w", err)
			}
			// The kernel pads names with NULs up to Len.
			name = string(bytes.TrimRight(raw, "\x00"))
		}

		mask := EventMask(meta.Mask) & All
		if mask == 0 {
			continue
		}

		events = append(events, Event{
			WD:   meta.Wd,
			Mask: mask,
			Name: name,
		})
	}

	return events, nil
}
