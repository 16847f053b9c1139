package analytics

// Combinations returns every k-subset of items, preserving input order inside
// each subset. k outside (0, len(items)] yields nil rather than an error.
// Duplicate entries are treated as distinct positions; callers that want
// collapsed duplicates de-duplicate before enumerating.
func Combinations(items []string, k int) [][]string {
	if k <= 0 || k > len(items) {
		return nil
	}

	var result [][]string
	current := make([]string, 0, k)

	var walk func(start int)
	walk = func(start int) {
		if len(current) == k {
			subset := make([]string, k)
			copy(subset, current)
			result = append(result, subset)
			return
		}
		// stop once too few items remain to complete the subset
		for i := start; i <= len(items)-(k-len(current)); i++ {
			current = append(current, items[i])
			walk(i + 1)
			current = current[:len(current)-1]
		}
	}
	walk(0)

	return result
}
