package shapley

import "math/bits"

// MaxBitmaskTouchpoints is the largest touchpoint count for which coalitions
// fit in a single uint64 bitmask. Above this, memoization is disabled and
// every coalition is priced directly; the estimator itself has no such bound.
const MaxBitmaskTouchpoints = 63

// Coalition is an unordered subset of one request's touchpoints, encoded as a
// bitmask over their positions in the request's touchpoint slice. Membership
// tests and cache lookups are O(1), which keeps coalition pricing cheap to
// memoize.
type Coalition uint64

// With returns the coalition extended with the touchpoint at position i.
func (c Coalition) With(i int) Coalition {
	return c | Coalition(1)<<uint(i)
}

// Has reports whether the touchpoint at position i is a member.
func (c Coalition) Has(i int) bool {
	return c&(Coalition(1)<<uint(i)) != 0
}

// Size returns the number of members.
func (c Coalition) Size() int {
	return bits.OnesCount64(uint64(c))
}
