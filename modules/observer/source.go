package observer

import (
	"errors"
)

// ErrSourceClosed is returned by EventSource.ReadEvents once the source
// has been closed. It marks the orderly end of the event stream, not a
// read failure.
var ErrSourceClosed = errors.New("event source is closed")

// EventSource is one open kernel notification queue. A source is created
// open and serves any number of watches until Close. ReadEvents blocks
// until at least one record is available and returns the decoded batch in
// kernel order. Closing the source from another goroutine unblocks a
// pending ReadEvents with ErrSourceClosed. Any other error from
// ReadEvents is fatal to the stream; record boundaries cannot be trusted
// afterwards.
type EventSource interface {
	AddWatch(path string, mask EventMask) (int32, error)
	RemoveWatch(wd int32) error
	ReadEvents() ([]Event, error)
	Close() error
}
