package xstrings

type Comparable interface{ ~int | ~int64 | ~string }

func UniqueSlice[T Comparable](s []T) []T {
	keys := make(map[T]bool)
	list := []T{}
	for _, entry := range s {
		if _, value := keys[entry]; !value {
			keys[entry] = true
			list = append(list, entry)
		}
	}
	return list
}

// SameSet reports whether a and b hold the same elements, ignoring order
// and duplicates.
func SameSet[T Comparable](a, b []T) bool {
	ua, ub := UniqueSlice(a), UniqueSlice(b)
	if len(ua) != len(ub) {
		return false
	}
	seen := make(map[T]bool, len(ua))
	for _, v := range ua {
		seen[v] = true
	}
	for _, v := range ub {
		if !seen[v] {
			return false
		}
	}
	return true
}
