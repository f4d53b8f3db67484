package server

import (
	"encoding/json"
	"net/http"

	"github.com/muurk/printscout/internal/logging"
	"github.com/muurk/printscout/internal/registry"
	"go.uber.org/zap"
)

// PluginsResponse is the body of GET /plugins
type PluginsResponse struct {
	Plugins []registry.Entry `json:"plugins"`
	Total   int              `json:"total"`
}

// handlePlugins returns the plugins that see printers, in presentation
// order. ?all=true lists every plugin instead.
func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries := s.registry.Snapshot()
	if r.URL.Query().Get("all") == "true" {
		entries = s.registry.All()
	}
	if entries == nil {
		entries = []registry.Entry{}
	}

	writeJSON(w, PluginsResponse{Plugins: entries, Total: s.registry.Total()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"plugins": s.registry.Len(),
		"clients": s.hub.len(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to write JSON response", zap.Error(err))
	}
}
