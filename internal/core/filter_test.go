package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	return Table{
		{Year: "2023", Language: "Go", Month: "Janar", Title: "A", Link: "l1", Field: "Backend", Author: "Author1"},
		{Year: "2023", Language: "Rust", Month: "Shkurt", Title: "B", Link: "l2", Field: "Systems", Author: "Author2"},
		{Year: "2024", Language: "Go", Month: "Mars", Title: "C", Link: "l3", Field: "Backend", Author: "Author1"},
		{Year: "2023", Language: "Go", Month: "Janar", Title: "A", Link: "l1", Field: "Backend", Author: "Author1"},
		{Year: "2023", Language: "Python", Month: "Janvar", Title: "D", Link: "l4", Field: "Data", Author: "Author3"},
	}
}

// isSubsequence reports whether sub appears in full in the same relative order.
func isSubsequence(sub, full Table) bool {
	i := 0
	for _, r := range full {
		if i < len(sub) && sub[i] == r {
			i++
		}
	}
	return i == len(sub)
}

func TestApply(t *testing.T) {
	tbl := sampleTable()

	tests := []struct {
		name   string
		sel    FilterSelection
		titles []string
	}{
		{
			name:   "no constraint keeps everything",
			sel:    FilterSelection{},
			titles: []string{"A", "B", "C", "A", "D"},
		},
		{
			name:   "year only",
			sel:    FilterSelection{}.Set(ColumnYear, "2023"),
			titles: []string{"A", "B", "A", "D"},
		},
		{
			name:   "and across columns, or within a column",
			sel:    FilterSelection{}.Set(ColumnYear, "2023").Set(ColumnLanguage, "Go", "Rust"),
			titles: []string{"A", "B", "A"},
		},
		{
			name:   "empty set matches nothing",
			sel:    FilterSelection{}.Set(ColumnYear, "2023").Set(ColumnAuthor),
			titles: []string{},
		},
		{
			name:   "unknown value yields empty result",
			sel:    FilterSelection{}.Set(ColumnLanguage, "COBOL"),
			titles: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tbl, tt.sel)
			titles := make([]string, 0, len(got))
			for _, r := range got {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.titles, titles)
			assert.True(t, isSubsequence(got, tbl), "result must preserve source order")
		})
	}
}

func TestApplyKeepsDuplicates(t *testing.T) {
	got := Apply(sampleTable(), FilterSelection{}.Set(ColumnTitle, "A"))
	require.Len(t, got, 2)
	assert.Equal(t, got[0], got[1])
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	tbl := sampleTable()
	before := append(Table(nil), tbl...)
	_ = Apply(tbl, FilterSelection{}.Set(ColumnLanguage, "Go"))
	assert.Equal(t, before, tbl)
}
