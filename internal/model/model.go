package model

import "sort"

// ProbeResult is the outcome of a single timed GET.
type ProbeResult struct {
	Took  float64 `json:"took"`  // seconds
	Cache string  `json:"cache"` // X-Cache value, empty when the header was absent
	Link  string  `json:"link"`  // Link header value, used as an origin heuristic
}

// Store maps a prefix label ("www", "beta") to its probe results in the
// order they were taken.
type Store map[string][]ProbeResult

func NewStore() Store {
	return make(Store)
}

// Append adds r to the sequence for prefix, creating the sequence first if
// the prefix has not been seen yet.
func (s Store) Append(prefix string, r ProbeResult) {
	seq, ok := s[prefix]
	if !ok {
		seq = make([]ProbeResult, 0)
	}
	s[prefix] = append(seq, r)
}

func (s Store) Len(prefix string) int {
	return len(s[prefix])
}

// Prefixes returns the known prefixes in sorted order.
func (s Store) Prefixes() []string {
	prefixes := make([]string, 0, len(s))
	for p := range s {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}
