package mot

import "sync/atomic"

// IDAllocator hands out monotonically increasing track identifiers.
// A single allocator may be shared by several trackers (e.g. one per camera feed)
// to keep ids unique across them; it is safe for concurrent use.
type IDAllocator struct {
	last atomic.Int64
}

// NewIDAllocator creates allocator whose first identifier is start+1
func NewIDAllocator(start int64) *IDAllocator {
	a := &IDAllocator{}
	a.last.Store(start)
	return a
}

// Next returns a fresh identifier. Identifiers are never reused.
func (a *IDAllocator) Next() int64 {
	return a.last.Add(1)
}

// Last returns the most recently issued identifier
func (a *IDAllocator) Last() int64 {
	return a.last.Load()
}
