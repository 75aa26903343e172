// Package unique derives the unique-files projection from a populated
// duplicate-set index: one representative path per distinct content key,
// whether or not that key's set has duplicates.
package unique

import (
	"sort"

	"github.com/rgrossmann/dupescan/internal/digest"
	"github.com/rgrossmann/dupescan/internal/dupeset"
	"github.com/rgrossmann/dupescan/internal/order"
)

// Of returns the principal path of every set in idx, in ascending content
// key order. A principal is the first path the index saw for its content,
// so the projection is stable across repeated calls against the same
// index but does not depend on any filename ordering.
func Of(idx *dupeset.Index) []string {
	var out []string
	idx.Each(func(_ digest.Key, s *dupeset.Set) {
		out = append(out, s.Principal())
	})
	return out
}

// SortedBy returns the same paths as Of, reordered using o instead of
// content key order. A nil o uses order.New().
func SortedBy(idx *dupeset.Index, o *order.Orderer) []string {
	if o == nil {
		o = order.New()
	}
	out := Of(idx)
	sort.Slice(out, func(i, j int) bool { return o.Less(out[i], out[j]) })
	return out
}
