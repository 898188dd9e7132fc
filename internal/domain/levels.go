package domain

import "strconv"

// LevelLess orders declared difficulty levels for display: numeric levels
// ascending first, non-numeric levels after them in lexical order.
func LevelLess(a, b string) bool {
	numA, errA := strconv.Atoi(a)
	numB, errB := strconv.Atoi(b)

	switch {
	case errA == nil && errB == nil:
		return numA < numB
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
