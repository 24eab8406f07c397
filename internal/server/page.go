package server

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/amityadav/trendfinder/internal/dispatch"
	"github.com/amityadav/trendfinder/internal/insights"
	"go.uber.org/zap"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type pageView struct {
	StateToken      string
	DefaultsPending bool
	CustomQuery     string
	Sections        []sectionView
}

type sectionView struct {
	ID      string
	Title   string
	Loading bool
	Error   string
	Items   []insights.Card
	Sources []sourceView
}

type sourceView struct {
	URI   string
	Title string
	Label string
}

// newPageView maps a snapshot onto the sections the page shows. Default
// sections appear once defaults have been requested, the custom section
// once a custom query has been.
func newPageView(snap dispatch.Snapshot) pageView {
	view := pageView{
		StateToken:      stateToken(snap),
		DefaultsPending: snap.DefaultsPending,
		CustomQuery:     snap.ActiveCustomQuery,
	}

	for _, is := range snap.Intents {
		if is.Outcome.Status == insights.StatusIdle {
			continue
		}
		if is.Intent.IsDefault() && !snap.HasSearched {
			continue
		}

		section := sectionView{ID: string(is.Intent), Title: is.Title}
		switch is.Outcome.Status {
		case insights.StatusPending:
			section.Loading = true
		case insights.StatusFailed:
			section.Error = is.Outcome.Error
		case insights.StatusSucceeded:
			if r := is.Outcome.Result; r != nil {
				section.Items = r.Items
				for _, s := range r.Sources {
					section.Sources = append(section.Sources, sourceView{URI: s.URI, Title: s.Title, Label: sourceLabel(s)})
				}
			}
		}
		view.Sections = append(view.Sections, section)
	}
	return view
}

// stateToken identifies the rendered state. The page script rebuilds it from
// the event stream's snapshot and reloads on mismatch.
func stateToken(snap dispatch.Snapshot) string {
	parts := make([]string, 0, len(snap.Intents))
	for _, is := range snap.Intents {
		parts = append(parts, fmt.Sprintf("%s=%s/%d", is.Intent, is.Outcome.Status, is.Outcome.Generation))
	}
	return strings.Join(parts, ",")
}

// sourceLabel is the source title, or the URI's hostname when it has none
func sourceLabel(s insights.Source) string {
	if s.Title != "" {
		return s.Title
	}
	if u, err := url.Parse(s.URI); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return s.URI
}

func handlePage(w http.ResponseWriter, r *http.Request, ins Insights, log *zap.Logger) {
	if r.Method != "GET" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := ins.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, newPageView(snap)); err != nil {
		log.Error("failed to render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func handleFormDefaults(w http.ResponseWriter, r *http.Request, ins Insights, log *zap.Logger) {
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := ins.RunDefaultQueries(); err != nil && !errors.Is(err, dispatch.ErrDefaultsPending) {
		log.Error("failed to run default queries", zap.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func handleFormCustom(w http.ResponseWriter, r *http.Request, ins Insights, log *zap.Logger) {
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if _, err := ins.RunCustomQuery(r.PostFormValue("query")); err != nil {
		log.Error("failed to run custom query", zap.Error(err))
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
