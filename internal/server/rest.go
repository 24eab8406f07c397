package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/amityadav/trendfinder/internal/dispatch"
	"github.com/amityadav/trendfinder/internal/service"
	"go.uber.org/zap"
)

// Insights is the dispatcher surface served over HTTP
type Insights interface {
	service.Insights
	Subscribe() (<-chan dispatch.Update, func(), error)
}

// Services groups all dependencies for REST handlers
type Services struct {
	Insights Insights
	Log      *zap.Logger
}

// restPaths are served by the REST handler; everything else goes to gRPC-Web
var restPaths = map[string]bool{
	"/":                     true,
	"/queries/defaults":     true,
	"/queries/custom":       true,
	"/api/state":            true,
	"/api/queries/defaults": true,
	"/api/queries/custom":   true,
	"/api/events":           true,
}

// CreateRESTHandler creates the JSON API, the event stream and the HTML page
func CreateRESTHandler(services Services) http.HandlerFunc {
	log := services.Log.Named("server")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		switch r.URL.Path {
		case "/":
			handlePage(w, r, services.Insights, log)
		case "/queries/defaults":
			handleFormDefaults(w, r, services.Insights, log)
		case "/queries/custom":
			handleFormCustom(w, r, services.Insights, log)
		case "/api/state":
			handleState(w, r, services.Insights)
		case "/api/queries/defaults":
			handleRunDefaults(w, r, services.Insights, log)
		case "/api/queries/custom":
			handleRunCustom(w, r, services.Insights, log)
		case "/api/events":
			handleEvents(w, r, services.Insights, log)
		default:
			http.NotFound(w, r)
		}
	}
}

func handleState(w http.ResponseWriter, r *http.Request, ins Insights) {
	if r.Method != "GET" {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := ins.Snapshot()
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func handleRunDefaults(w http.ResponseWriter, r *http.Request, ins Insights, log *zap.Logger) {
	if r.Method != "POST" {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	err := ins.RunDefaultQueries()
	switch {
	case errors.Is(err, dispatch.ErrDefaultsPending):
		jsonError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		log.Error("failed to run default queries", zap.Error(err))
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

type customQueryRequest struct {
	Query string `json:"query"`
}

func handleRunCustom(w http.ResponseWriter, r *http.Request, ins Insights, log *zap.Logger) {
	if r.Method != "POST" {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req customQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	dispatched, err := ins.RunCustomQuery(req.Query)
	if err != nil {
		log.Error("failed to run custom query", zap.Error(err))
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !dispatched {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleEvents streams a snapshot followed by every state transition
func handleEvents(w http.ResponseWriter, r *http.Request, ins Insights, log *zap.Logger) {
	if r.Method != "GET" {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// subscribe first so nothing between the snapshot and the stream is lost
	updates, cancel, err := ins.Subscribe()
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer cancel()

	snap, err := ins.Snapshot()
	if err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "snapshot", "", snap); err != nil {
		log.Warn("failed to write snapshot event", zap.Error(err))
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, "update", u.Outcome.RequestID, u); err != nil {
				log.Debug("event stream closed", zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"error": message})
}
