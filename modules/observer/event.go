package observer

import (
	"fmt"
	"strings"
)

// EventMask is a bitset of event kinds. Masks combine with bitwise OR.
// The bit values match the kernel's inotify constants, so a mask can be
// passed to the kernel unchanged on Linux.
type EventMask uint32

const (
	// Access means data was read from a file.
	Access EventMask = 0x00000001
	// Modify means data was written to a file.
	Modify EventMask = 0x00000002
	// Attrib means metadata (permissions, owner, timestamp) was changed.
	Attrib EventMask = 0x00000004
	// CloseWrite means a file opened for writing was closed.
	CloseWrite EventMask = 0x00000008
	// CloseNoWrite means a file opened read-only was closed.
	CloseNoWrite EventMask = 0x00000010
	// Open means a file or directory was opened.
	Open EventMask = 0x00000020
	// MovedFrom means a file or subdirectory was moved out of the watched directory.
	MovedFrom EventMask = 0x00000040
	// MovedTo means a file or subdirectory was moved into the watched directory.
	MovedTo EventMask = 0x00000080
	// Create means a file or subdirectory was created under the watched directory.
	Create EventMask = 0x00000100
	// Delete means a file was deleted from the watched directory.
	Delete EventMask = 0x00000200
	// DeleteSelf means the watched file or directory itself was deleted.
	// Monitoring effectively stops after this event.
	DeleteSelf EventMask = 0x00000400
	// MoveSelf means the watched file or directory itself was moved.
	MoveSelf EventMask = 0x00000800

	// All combines every event kind.
	All = Access | Modify | Attrib | CloseWrite | CloseNoWrite | Open |
		MovedFrom | MovedTo | Create | Delete | DeleteSelf | MoveSelf
)

var maskNames = []struct {
	mask EventMask
	name string
}{
	{Access, "ACCESS"},
	{Modify, "MODIFY"},
	{Attrib, "ATTRIB"},
	{CloseWrite, "CLOSE_WRITE"},
	{CloseNoWrite, "CLOSE_NOWRITE"},
	{Open, "OPEN"},
	{MovedFrom, "MOVED_FROM"},
	{MovedTo, "MOVED_TO"},
	{Create, "CREATE"},
	{Delete, "DELETE"},
	{DeleteSelf, "DELETE_SELF"},
	{MoveSelf, "MOVE_SELF"},
}

func (m EventMask) String() string {
	var kinds []string

	for _, e := range maskNames {
		if m&e.mask != 0 {
			kinds = append(kinds, e.name)
		}
	}

	if len(kinds) == 0 {
		return fmt.Sprintf("UNKNOWN(%#x)", uint32(m))
	}

	return strings.Join(kinds, "|")
}

// Has reports whether every kind in e is set in m.
func (m EventMask) Has(e EventMask) bool {
	return m&e == e
}

// ParseMask converts a list of event kind names, as used in config files,
// into an EventMask. An empty list yields All.
func ParseMask(names []string) (EventMask, error) {
	if len(names) == 0 {
		return All, nil
	}

	var mask EventMask
	for _, name := range names {
		found := false
		for _, e := range maskNames {
			if strings.EqualFold(name, e.name) {
				mask |= e.mask
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown event kind %q", name)
		}
	}

	return mask, nil
}

// Event is one decoded change record read from an event source. WD
// identifies the watch the record belongs to. Name is the path of the
// changed entry relative to the watched path, or empty if the event
// concerns the watched entry itself.
type Event struct {
	WD   int32
	Mask EventMask
	Name string
}
