// Package order implements the total order over paths used to arrange a
// duplicate set deterministically: bracketed numeric tokens sort after
// plain names and compare numerically; everything else falls back to
// case-insensitive lexicographic order.
package order

import (
	"regexp"
	"strconv"
	"strings"
)

// tokenPattern matches a bracketed/underscored numeric token, e.g. "(2)",
// "[10]", "{3}", "_7_". Compiled once at package init and shared by every
// Orderer, not recompiled per comparison.
var tokenPattern = regexp.MustCompile(`(?i)[([{_](\d+)[)\]}_]`)

// Orderer implements the filename ordering used to arrange paths within a
// duplicate set.
type Orderer struct {
	re *regexp.Regexp
}

// New returns the default filename Orderer.
func New() *Orderer {
	return &Orderer{re: tokenPattern}
}

// token extracts the first bracketed numeric token in name, if any.
func (o *Orderer) token(name string) (int64, bool) {
	m := o.re.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Less implements a strict total order:
//  1. equal paths compare equal (Less returns false both ways)
//  2. both filenames carry a bracketed numeric token: compare numerically
//  3. exactly one carries a token: the tokenless name sorts first
//  4. otherwise: case-insensitive lexicographic order of the base
//     filenames, then of the full paths when the base filenames match
func (o *Orderer) Less(a, b string) bool {
	if a == b {
		return false
	}

	an, aok := o.token(base(a))
	bn, bok := o.token(base(b))

	switch {
	case aok && bok:
		if an != bn {
			return an < bn
		}
		return lexLess(a, b)
	case aok != bok:
		// The one WITH a token sorts after the one without.
		return !aok
	default:
		return lexLess(a, b)
	}
}

// lexLess compares the base filenames case-insensitively, falling back to
// the full paths only when the base filenames are equal.
func lexLess(a, b string) bool {
	if la, lb := strings.ToLower(base(a)), strings.ToLower(base(b)); la != lb {
		return la < lb
	}
	return strings.ToLower(a) < strings.ToLower(b)
}

// base returns the last path component, so tokens in parent directory names
// don't influence ordering of files within them.
func base(path string) string {
	if i := strings.LastIndexAny(path, "/\\"); i >= 0 {
		return path[i+1:]
	}
	return path
}
