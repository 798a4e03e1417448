// Package http provides HTTP server and handler implementations.
//
// This file turns filter form values into dashboard queries and back, so a
// refresh can redirect to the same filtered page.

package http

import (
	"net/http"
	"net/url"
	"strings"

	"artikujt/internal/services"
)

// Form field names shared with the templates.
const (
	paramYear     = "year"
	paramLanguage = "language"
	paramField    = "field"
	paramAuthor   = "author"
	paramFiltered = "filtered"
)

const maxFormBytes = 64 << 10

// ParseQuery builds a dashboard query from form values. Multi-selects keep
// empty strings because an empty cell is a selectable option.
func ParseQuery(values url.Values) services.Query {
	_, hasYear := values[paramYear]
	return services.Query{
		Year:      sanitizeInput(values.Get(paramYear)),
		HasYear:   hasYear,
		Languages: multiValue(values, paramLanguage),
		Fields:    multiValue(values, paramField),
		Authors:   multiValue(values, paramAuthor),
		Filtered:  values.Get(paramFiltered) != "",
	}
}

// EncodeQuery is the inverse of ParseQuery.
func EncodeQuery(q services.Query) url.Values {
	v := url.Values{}
	if q.HasYear || q.Year != "" {
		v.Set(paramYear, q.Year)
	}
	if !q.Filtered {
		return v
	}
	v.Set(paramFiltered, "1")
	for _, s := range q.Languages {
		v.Add(paramLanguage, s)
	}
	for _, s := range q.Fields {
		v.Add(paramField, s)
	}
	for _, s := range q.Authors {
		v.Add(paramAuthor, s)
	}
	return v
}

// parseRequestQuery reads the query string and, for POST, the form body.
func parseRequestQuery(w http.ResponseWriter, r *http.Request) (services.Query, error) {
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	}
	if err := r.ParseForm(); err != nil {
		return services.Query{}, err
	}
	return ParseQuery(r.Form), nil
}

func multiValue(values url.Values, key string) []string {
	raw, ok := values[key]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		s = sanitizeInput(s)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}
