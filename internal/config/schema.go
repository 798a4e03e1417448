package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"artikujt/internal/core"
	"artikujt/internal/normalize"
)

// SchemaFile is the optional YAML file that adjusts column handling and the
// month order without a rebuild:
//
//	renames:
//	  Autori: Author
//	month_order: [Janar, Shkurt, ...]
//	required_columns: [Year, Month, Name of article]
type SchemaFile struct {
	Renames         map[string]string `yaml:"renames"`
	MonthOrder      []string          `yaml:"month_order"`
	RequiredColumns []string          `yaml:"required_columns"`
}

// LoadSchema reads path and merges it over the defaults. An empty path
// returns the defaults.
func LoadSchema(path string) (normalize.Schema, core.MonthOrder, error) {
	schema := normalize.DefaultSchema()
	order := append(core.MonthOrder(nil), core.AlbanianMonths...)
	if path == "" {
		return schema, order, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return schema, order, fmt.Errorf("read schema file: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes a schema document and merges it over the defaults.
func ParseSchema(data []byte) (normalize.Schema, core.MonthOrder, error) {
	schema := normalize.DefaultSchema()
	order := append(core.MonthOrder(nil), core.AlbanianMonths...)

	var f SchemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return schema, order, fmt.Errorf("parse schema file: %w", err)
	}

	for from, to := range f.Renames {
		from, to = normalize.Clean(from), normalize.Clean(to)
		if from == "" || to == "" {
			return schema, order, fmt.Errorf("schema renames: empty column name in %q -> %q", from, to)
		}
		schema.Renames[from] = to
	}

	if len(f.MonthOrder) > 0 {
		custom := make(core.MonthOrder, len(f.MonthOrder))
		for i, m := range f.MonthOrder {
			custom[i] = normalize.Clean(m)
		}
		if err := custom.Validate(); err != nil {
			return schema, order, fmt.Errorf("schema month_order: %w", err)
		}
		order = custom
	}

	if len(f.RequiredColumns) > 0 {
		known := make(map[core.Column]bool, len(core.Columns))
		for _, c := range core.Columns {
			known[c] = true
		}
		var required []core.Column
		var unknown []string
		for _, name := range f.RequiredColumns {
			c := core.Column(normalize.Clean(name))
			if !known[c] {
				unknown = append(unknown, name)
				continue
			}
			required = append(required, c)
		}
		if len(unknown) > 0 {
			return schema, order, fmt.Errorf("schema required_columns: unknown columns %s", strings.Join(unknown, ", "))
		}
		schema.Required = required
	}

	return schema, order, nil
}
