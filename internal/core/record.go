package core

// Column is a canonical column name of the article sheet.
type Column string

const (
	ColumnYear     Column = "Year"
	ColumnLanguage Column = "Language"
	ColumnMonth    Column = "Month"
	ColumnTitle    Column = "Name of article"
	ColumnLink     Column = "Link for docs"
	ColumnField    Column = "Field"
	ColumnAuthor   Column = "Author"
)

// Columns lists the canonical columns in display order.
var Columns = []Column{
	ColumnYear,
	ColumnLanguage,
	ColumnMonth,
	ColumnTitle,
	ColumnLink,
	ColumnField,
	ColumnAuthor,
}

type (
	// Record is one normalized article row. Every attribute is a trimmed
	// string, empty when the source cell was absent.
	Record struct {
		Year     string `json:"year"`
		Language string `json:"language"`
		Month    string `json:"month"`
		Title    string `json:"title"`
		Link     string `json:"link"`
		Field    string `json:"field"`
		Author   string `json:"author"`
	}

	// Table is an ordered sequence of records. Order is the source row order.
	Table []Record

	// RawTable is a parsed but not yet normalized sheet. Rows may be shorter
	// than Header; missing trailing cells are treated as absent.
	RawTable struct {
		Header  []string
		Rows    [][]string
		Skipped int // malformed rows dropped while parsing
	}
)

// Value returns the record's value for the given column.
func (r Record) Value(c Column) string {
	switch c {
	case ColumnYear:
		return r.Year
	case ColumnLanguage:
		return r.Language
	case ColumnMonth:
		return r.Month
	case ColumnTitle:
		return r.Title
	case ColumnLink:
		return r.Link
	case ColumnField:
		return r.Field
	case ColumnAuthor:
		return r.Author
	default:
		return ""
	}
}

// Raw converts the table back to a RawTable with canonical headers.
func (t Table) Raw() RawTable {
	header := make([]string, len(Columns))
	for i, c := range Columns {
		header[i] = string(c)
	}
	rows := make([][]string, len(t))
	for i, r := range t {
		row := make([]string, len(Columns))
		for j, c := range Columns {
			row[j] = r.Value(c)
		}
		rows[i] = row
	}
	return RawTable{Header: header, Rows: rows}
}

// Len returns the number of data rows.
func (rt RawTable) Len() int {
	return len(rt.Rows)
}

// Clone returns a deep copy so callers cannot mutate cached data.
func (rt RawTable) Clone() RawTable {
	out := RawTable{
		Header:  append([]string(nil), rt.Header...),
		Rows:    make([][]string, len(rt.Rows)),
		Skipped: rt.Skipped,
	}
	for i, row := range rt.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}
