package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/model"
	"github.com/nmos-go/node/internal/registration"
	"github.com/nmos-go/node/pkg/versions"
)

// SystemRouter creates a router for health, readiness, version and driver
// status endpoints
func SystemRouter(graph *model.Graph, nodeID uuid.UUID, driver registration.Driver) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(graph, nodeID))
	r.Get("/version", versionHandler)
	r.Get("/status", statusHandler(driver))

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler reports ready once the node resource exists in the graph
func readinessHandler(graph *model.Graph, nodeID uuid.UUID) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if _, ok := graph.Nodes()[nodeID]; !ok {
			errorResp := ErrorResponse{
				Error: "node resource not yet built",
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if encodeErr := json.NewEncoder(w).Encode(errorResp); encodeErr != nil {
				slog.Error("Failed to encode readiness error response", "error", encodeErr)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(info); err != nil {
		slog.Error("Failed to encode version info", "error", err)
	}
}

// statusHandler serves the registration driver's status snapshot
func statusHandler(driver registration.Driver) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(driver.Status()); err != nil {
			slog.Error("Failed to encode driver status", "error", err)
		}
	}
}
