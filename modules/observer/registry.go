package observer

import (
	"sync"
)

// watchTable maps watch descriptors to their observers. The table holds
// an observer only while that observer is watching; keeping the Observer
// value reachable is the caller's job. The internal lock is never held
// while an observer's handler runs.
type watchTable struct {
	mu sync.Mutex
	m  map[int32]*Observer
}

func newWatchTable() *watchTable {
	return &watchTable{
		m: make(map[int32]*Observer),
	}
}

func (t *watchTable) put(wd int32, o *Observer) {
	t.mu.Lock()
	t.m[wd] = o
	t.mu.Unlock()
}

// remove deletes the entry for wd. Removing an absent descriptor is a
// no-op, which keeps Stop idempotent.
func (t *watchTable) remove(wd int32) {
	t.mu.Lock()
	delete(t.m, wd)
	t.mu.Unlock()
}

func (t *watchTable) get(wd int32) *Observer {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.m[wd]
}

func (t *watchTable) empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.m) == 0
}

func (t *watchTable) clear() {
	t.mu.Lock()
	t.m = make(map[int32]*Observer)
	t.mu.Unlock()
}
