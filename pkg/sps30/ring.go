package sps30

import "sync"

// RingDepth is the default depth of the handoff buffer.
const RingDepth = 20

// Ring is a bounded FIFO of samples. Push never blocks: when full, the
// oldest sample is dropped.
type Ring struct {
	items []Sample
	head  int
	count int
	lock  sync.RWMutex
}

// NewRing creates a Ring with the given depth.
func NewRing(depth int) *Ring {
	if depth <= 0 {
		depth = RingDepth
	}
	return &Ring{items: make([]Sample, depth)}
}

// Push appends a sample, evicting the oldest one if full.
// It reports whether a sample was evicted.
func (r *Ring) Push(s Sample) (evicted bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	depth := len(r.items)
	if r.count == depth {
		r.head = (r.head + 1) % depth
		r.count--
		evicted = true
	}
	r.items[(r.head+r.count)%depth] = s
	r.count++
	return
}

// Latest returns the most recent sample, or the empty sample.
func (r *Ring) Latest() Sample {
	r.lock.RLock()
	defer r.lock.RUnlock()
	if r.count == 0 {
		return Sample{}
	}
	return r.items[(r.head+r.count-1)%len(r.items)]
}

// Snapshot returns buffered samples from oldest to newest.
func (r *Ring) Snapshot() []Sample {
	r.lock.RLock()
	defer r.lock.RUnlock()
	samples := make([]Sample, r.count)
	for n := range samples {
		samples[n] = r.items[(r.head+n)%len(r.items)]
	}
	return samples
}

// Len returns the number of buffered samples.
func (r *Ring) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.count
}

// Cap returns the depth.
func (r *Ring) Cap() int {
	return len(r.items)
}
