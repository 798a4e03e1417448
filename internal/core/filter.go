package core

// ValueSet is a set of allowed values for one column.
type ValueSet map[string]struct{}

// NewValueSet builds a set from the given values.
func NewValueSet(values ...string) ValueSet {
	s := make(ValueSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set.
func (s ValueSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// FilterSelection maps a column to its allowed values. A column that is
// absent imposes no constraint; a column mapped to an empty set matches
// nothing.
type FilterSelection map[Column]ValueSet

// Set replaces the allowed values for a column. Calling Set with no values
// installs an empty set.
func (s FilterSelection) Set(c Column, values ...string) FilterSelection {
	s[c] = NewValueSet(values...)
	return s
}

// Matches reports whether the record satisfies every constrained column.
func (s FilterSelection) Matches(r Record) bool {
	for c, allowed := range s {
		if !allowed.Has(r.Value(c)) {
			return false
		}
	}
	return true
}

// Apply returns the records of t that match s, preserving order.
// Duplicate rows are kept independently.
func Apply(t Table, s FilterSelection) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if s.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
