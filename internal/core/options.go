package core

import (
	"sort"
	"strconv"
)

// Distinct returns the distinct values of column c in first-seen order.
func Distinct(t Table, c Column) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range t {
		v := r.Value(c)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Years returns the distinct years, newest first. Numeric years compare
// numerically; anything else falls back to reverse lexical order after them.
func Years(t Table) []string {
	years := Distinct(t, ColumnYear)
	sort.SliceStable(years, func(i, j int) bool {
		a, errA := strconv.Atoi(years[i])
		b, errB := strconv.Atoi(years[j])
		switch {
		case errA == nil && errB == nil:
			return a > b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return years[i] > years[j]
		}
	})
	return years
}
