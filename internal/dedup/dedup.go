package dedup

import "sync"

// Accumulator collapses repeated sightings of job identifiers into a
// single set. Search result pages surface the same ids over and over as
// the collaborator scrolls, so every observation pass is fed through Add,
// which reports only the ids not seen before.
type Accumulator struct {
	mu    sync.RWMutex
	seen  map[string]struct{}
	order []string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		seen: make(map[string]struct{}),
	}
}

// Add records a batch of observed ids and returns the ones that were new
// at this observation point. Duplicates within the batch collapse too.
func (a *Accumulator) Add(ids ...string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var fresh []string
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := a.seen[id]; ok {
			continue
		}
		a.seen[id] = struct{}{}
		a.order = append(a.order, id)
		fresh = append(fresh, id)
	}
	return fresh
}

func (a *Accumulator) Seen(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.seen[id]
	return ok
}

// IDs returns every distinct id observed so far, in first-seen order.
func (a *Accumulator) IDs() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.order)
}
