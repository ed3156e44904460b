package neat

import "fmt"

type innovationKey struct {
	from, to int
}

// InnovationRegistry is the ledger of innovation numbers shared by every
// genome descending from one lineage root. The same (source, destination)
// node pair always yields the same number for the registry's lifetime.
//
// The registry only grows. It is not safe for concurrent use.
type InnovationRegistry struct {
	entries []string // innovation number -> "src dst"
	lookup  map[innovationKey]int
}

// NewInnovationRegistry creates an empty registry.
func NewInnovationRegistry() *InnovationRegistry {
	return &InnovationRegistry{lookup: make(map[innovationKey]int)}
}

// Innovation returns the innovation number of the link from src to dst,
// registering a new number the first time the pair is seen.
func (r *InnovationRegistry) Innovation(src, dst int) int {
	key := innovationKey{from: src, to: dst}
	if n, ok := r.lookup[key]; ok {
		return n
	}
	n := len(r.entries)
	r.entries = append(r.entries, fmt.Sprintf("%d %d", src, dst))
	r.lookup[key] = n
	return n
}

// Describe returns the canonical "src dst" string of an innovation number.
func (r *InnovationRegistry) Describe(innovation int) (string, bool) {
	if innovation < 0 || innovation >= len(r.entries) {
		return "", false
	}
	return r.entries[innovation], true
}

// Len returns the number of registered innovations.
func (r *InnovationRegistry) Len() int {
	return len(r.entries)
}
