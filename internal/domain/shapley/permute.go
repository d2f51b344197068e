package shapley

// forEachPermutation invokes fn for every permutation of items, permuting in
// place with Heap's algorithm. The iteration is fully iterative and threads no
// hidden state, so callers can partition the permutation space by fixing a
// prefix and enumerating the remainder. fn must not retain items; a non-nil
// error aborts the enumeration.
func forEachPermutation(items []int, fn func([]int) error) error {
	if err := fn(items); err != nil {
		return err
	}

	n := len(items)
	counters := make([]int, n)

	for i := 0; i < n; {
		if counters[i] < i {
			if i%2 == 0 {
				items[0], items[i] = items[i], items[0]
			} else {
				items[counters[i]], items[i] = items[i], items[counters[i]]
			}
			if err := fn(items); err != nil {
				return err
			}
			counters[i]++
			i = 0
		} else {
			counters[i] = 0
			i++
		}
	}
	return nil
}

// factorial returns n! as int64. Safe for n <= 20; the exact path caps n far
// below that.
func factorial(n int) int64 {
	f := int64(1)
	for i := 2; i <= n; i++ {
		f *= int64(i)
	}
	return f
}
