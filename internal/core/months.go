package core

import "strings"

// MonthOrder is the authoritative display order of month labels.
// Labels missing from the order are never displayed.
type MonthOrder []string

// AlbanianMonths is the calendar used by the article sheet.
var AlbanianMonths = MonthOrder{
	"Janar", "Shkurt", "Mars", "Prill", "Maj", "Qershor",
	"Korrik", "Gusht", "Shtator", "Tetor", "Nëntor", "Dhjetor",
}

// Validate checks that the order has 12 unique, non-blank labels.
func (o MonthOrder) Validate() error {
	if len(o) != 12 {
		return ErrInvalidMonths
	}
	seen := make(map[string]struct{}, len(o))
	for _, m := range o {
		if strings.TrimSpace(m) == "" {
			return ErrInvalidMonths
		}
		if _, dup := seen[m]; dup {
			return ErrInvalidMonths
		}
		seen[m] = struct{}{}
	}
	return nil
}

// MonthGroup holds the records of one month in source order.
type MonthGroup struct {
	Month   string `json:"month"`
	Records Table  `json:"articles"`
}

// GroupByMonth partitions t by month following order. Months that are not in
// order are dropped and months without records are omitted.
func GroupByMonth(t Table, order MonthOrder) []MonthGroup {
	byMonth := make(map[string]Table)
	for _, r := range t {
		byMonth[r.Month] = append(byMonth[r.Month], r)
	}

	groups := make([]MonthGroup, 0, len(byMonth))
	for _, m := range order {
		records, ok := byMonth[m]
		if !ok {
			continue
		}
		groups = append(groups, MonthGroup{Month: m, Records: records})
		// a duplicated label in order must not emit the group twice
		delete(byMonth, m)
	}
	return groups
}
