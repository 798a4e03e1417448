// Package normalize turns a parsed sheet into canonical article records.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"artikujt/internal/core"
)

// Schema describes how raw headers map onto canonical columns.
type Schema struct {
	// Renames maps a trimmed source header to its canonical name.
	Renames map[string]string
	// Required columns must exist after renaming.
	Required []core.Column
	// StringColumns are NFC-normalized and trimmed cell by cell.
	StringColumns []core.Column
}

// DefaultSchema returns the schema of the article sheet.
func DefaultSchema() Schema {
	return Schema{
		Renames: map[string]string{
			"Authos":         string(core.ColumnAuthor),
			"Link_for_docs:": string(core.ColumnLink),
		},
		Required: append([]core.Column(nil), core.Columns...),
		StringColumns: []core.Column{
			core.ColumnYear,
			core.ColumnLanguage,
			core.ColumnMonth,
			core.ColumnTitle,
			core.ColumnField,
			core.ColumnAuthor,
		},
	}
}

// Normalizer applies a Schema to raw tables.
type Normalizer struct {
	schema  Schema
	strings map[core.Column]bool
}

// New creates a Normalizer for the given schema.
func New(schema Schema) *Normalizer {
	n := &Normalizer{schema: schema, strings: make(map[core.Column]bool, len(schema.StringColumns))}
	for _, c := range schema.StringColumns {
		n.strings[c] = true
	}
	return n
}

// Schema returns the schema the normalizer was built with.
func (n *Normalizer) Schema() Schema {
	return n.schema
}

// Normalize maps raw rows onto records. It never mutates rt.
func (n *Normalizer) Normalize(rt core.RawTable) (core.Table, error) {
	index := n.columnIndex(rt.Header)

	var missing []string
	for _, c := range n.schema.Required {
		if _, ok := index[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return nil, &core.SchemaError{Missing: missing}
	}

	table := make(core.Table, 0, len(rt.Rows))
	for _, row := range rt.Rows {
		table = append(table, core.Record{
			Year:     n.cell(row, index, core.ColumnYear),
			Language: n.cell(row, index, core.ColumnLanguage),
			Month:    n.cell(row, index, core.ColumnMonth),
			Title:    n.cell(row, index, core.ColumnTitle),
			Link:     n.cell(row, index, core.ColumnLink),
			Field:    n.cell(row, index, core.ColumnField),
			Author:   n.cell(row, index, core.ColumnAuthor),
		})
	}
	return table, nil
}

// columnIndex resolves canonical columns to header positions. When two
// headers resolve to the same column, the first one wins.
func (n *Normalizer) columnIndex(header []string) map[core.Column]int {
	index := make(map[core.Column]int, len(header))
	for i, h := range header {
		name := Clean(h)
		if renamed, ok := n.schema.Renames[name]; ok {
			name = renamed
		}
		c := core.Column(name)
		if _, taken := index[c]; taken {
			continue
		}
		index[c] = i
	}
	return index
}

func (n *Normalizer) cell(row []string, index map[core.Column]int, c core.Column) string {
	i, ok := index[c]
	if !ok || i >= len(row) {
		return ""
	}
	if n.strings[c] {
		return Clean(row[i])
	}
	return row[i]
}

// Clean trims s and converts it to NFC so visually identical labels compare
// equal ("Nëntor" typed with a combining diaeresis included).
func Clean(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
