package http

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	applog "artikujt/internal/log"
	"artikujt/internal/services"
)

const (
	appTitle = "Artikujt Sizinti - Ship"

	// requestTimeout bounds how long a page waits for the sheet. A fetch
	// abandoned here keeps running and still fills the cache.
	requestTimeout = 25 * time.Second
)

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"orEmpty": func(s string) string {
		if s == "" {
			return "(pa vlerë)"
		}
		return s
	},
	"has": func(list []string, v string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	},
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2006-01-02 15:04")
	},
}

// pageData is what every template receives.
type pageData struct {
	Title string
	Page  string
	View  services.View
	Error string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	q, err := parseRequestQuery(w, r)
	if err != nil {
		BadRequestError("Invalid filter").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data := pageData{Title: appTitle, Page: "home"}
	status := http.StatusOK
	data.View, err = s.service.View(ctx, q)
	if err != nil {
		status, data.Error = s.viewError(ctx, err)
	}
	s.render(w, r, status, "home_page", data)
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about_page", pageData{Title: "About", Page: "about"})
}

// handleGroups returns only the grouped results for HTMX swaps.
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	q, err := parseRequestQuery(w, r)
	if err != nil {
		BadRequestError("Invalid filter").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data := pageData{Title: appTitle, Page: "home"}
	status := http.StatusOK
	data.View, err = s.service.View(ctx, q)
	if err != nil {
		status, data.Error = s.viewError(ctx, err)
	}
	s.render(w, r, status, "groups", data)
}

// handleRefresh drops the cached sheet and reloads it. Plain form posts are
// redirected back to the same filtered page.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	q, err := parseRequestQuery(w, r)
	if err != nil {
		BadRequestError("Invalid filter").Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	logger := applog.FromContext(ctx)
	refreshErr := s.service.Refresh(ctx)
	if refreshErr != nil {
		s.events.LogError(ctx, "Refresh failed", refreshErr, applog.OpRefresh, nil)
	} else {
		logger.InfoContext(ctx, "Refresh requested", applog.FieldOperation, applog.OpRefresh)
	}

	if !isHTMX(r) {
		target := "/"
		if enc := EncodeQuery(q).Encode(); enc != "" {
			target += "?" + enc
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	data := pageData{Title: appTitle, Page: "home"}
	status := http.StatusOK
	data.View, err = s.service.View(ctx, q)
	if err != nil {
		status, data.Error = s.viewError(ctx, err)
	}

	body, err := s.execute("groups", data)
	if err != nil {
		s.templateError(ctx, w, "groups", err)
		return
	}

	resp := NewHTMXResponse().Status(status).BodyHTML(body)
	if refreshErr != nil {
		resp.TriggerErrorNotification("Refresh failed: " + userMessage(refreshErr))
	} else {
		resp.TriggerArticlesRefreshed(data.View.LoadedAt, data.View.Shown).
			TriggerSuccessNotification("Data refreshed")
	}
	resp.Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	if isHTMX(r) {
		TooManyRequestsError("Too many refreshes. Please wait a moment.").
			TriggerErrorNotification("Too many refreshes. Please wait a moment.").
			Write(w)
		return
	}
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// handleAPIArticles serves the dashboard view as JSON.
func (s *Server) handleAPIArticles(w http.ResponseWriter, r *http.Request) {
	q, err := parseRequestQuery(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid filter"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	view, err := s.service.View(ctx, q)
	if err != nil {
		status, msg := s.viewError(ctx, err)
		writeJSON(w, status, map[string]string{
			"error":      msg,
			"error_type": services.ErrorKind(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// viewError logs err and maps it to a status and a message for the page.
// Data problems are 503 so the page still renders with an explanation.
func (s *Server) viewError(ctx context.Context, err error) (int, string) {
	kind := services.ErrorKind(err)
	fields := applog.NewFields()
	fields[applog.FieldErrorType] = kind
	s.events.LogError(ctx, "Dashboard view failed", err, applog.OpLoad, fields)

	if kind == applog.ErrorTypeInternal {
		return http.StatusInternalServerError, userMessage(err)
	}
	return http.StatusServiceUnavailable, userMessage(err)
}

// userMessage describes err without leaking URLs or internals.
func userMessage(err error) string {
	switch services.ErrorKind(err) {
	case applog.ErrorTypeTimeout:
		return "The article sheet took too long to respond. Please try again."
	case applog.ErrorTypeFetch:
		return "The article sheet could not be reached. Please try again later."
	case applog.ErrorTypeParse:
		return "The article sheet could not be read."
	case applog.ErrorTypeSchema:
		return "The article sheet is missing required columns."
	default:
		return "Something went wrong while loading the articles."
	}
}

// render executes name into a buffer so a template failure never sends a
// half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	body, err := s.execute(name, data)
	if err != nil {
		s.templateError(r.Context(), w, name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) execute(name string, data pageData) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) templateError(ctx context.Context, w http.ResponseWriter, name string, err error) {
	applog.FromContext(ctx).WithComponent(applog.ComponentTemplate).ErrorContext(ctx,
		"Template execution failed",
		"template", name,
		applog.FieldOperation, applog.OpRender,
		applog.FieldError, err)
	InternalServerError("Failed to render page").Write(w)
}

func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
