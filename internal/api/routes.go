package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nmos-go/node/internal/apiver"
	"github.com/nmos-go/node/internal/model"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes serves the node's resource graph in the configured wire version.
type Routes struct {
	graph   *model.Graph
	nodeID  uuid.UUID
	version apiver.Version
}

// NewRoutes creates a new Routes instance over the given graph
func NewRoutes(graph *model.Graph, nodeID uuid.UUID, version apiver.Version) *Routes {
	return &Routes{
		graph:   graph,
		nodeID:  nodeID,
		version: version,
	}
}

// NodeRouter creates the router for the node query API
func NodeRouter(graph *model.Graph, nodeID uuid.UUID, version apiver.Version) http.Handler {
	routes := NewRoutes(graph, nodeID, version)

	r := chi.NewRouter()

	r.Get("/", routes.getIndex)
	r.Get("/self", routes.getSelf)

	r.Get("/devices", routes.listDevices)
	r.Get("/devices/{id}", routes.getDevice)
	r.Get("/sources", routes.listSources)
	r.Get("/sources/{id}", routes.getSource)
	r.Get("/flows", routes.listFlows)
	r.Get("/flows/{id}", routes.getFlow)
	r.Get("/senders", routes.listSenders)
	r.Get("/senders/{id}", routes.getSender)
	r.Get("/receivers", routes.listReceivers)
	r.Get("/receivers/{id}", routes.getReceiver)

	return r
}

// getIndex lists the resources available under this API version
func (rr *Routes) getIndex(w http.ResponseWriter, _ *http.Request) {
	rr.writeJSONResponse(w, []string{
		"self/",
		"devices/",
		"sources/",
		"flows/",
		"senders/",
		"receivers/",
	})
}

// getSelf serves the node's own resource
func (rr *Routes) getSelf(w http.ResponseWriter, _ *http.Request) {
	node, ok := rr.graph.Nodes()[rr.nodeID]
	if !ok {
		rr.writeErrorResponse(w, "node resource not found", http.StatusNotFound)
		return
	}
	rr.writeJSONResponse(w, node.ToWire(rr.version))
}

func (rr *Routes) listDevices(w http.ResponseWriter, _ *http.Request) {
	devices := rr.graph.Devices()
	payloads := make([]any, 0, len(devices))
	for _, d := range devices {
		payloads = append(payloads, d.ToWire(rr.version))
	}
	rr.writeJSONResponse(w, payloads)
}

func (rr *Routes) getDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.pathID(w, r)
	if !ok {
		return
	}
	device, found := rr.graph.Devices()[id]
	if !found {
		rr.writeErrorResponse(w, "device not found", http.StatusNotFound)
		return
	}
	rr.writeJSONResponse(w, device.ToWire(rr.version))
}

func (rr *Routes) listSources(w http.ResponseWriter, _ *http.Request) {
	sources := rr.graph.Sources()
	payloads := make([]any, 0, len(sources))
	for _, s := range sources {
		payloads = append(payloads, s.ToWire(rr.version))
	}
	rr.writeJSONResponse(w, payloads)
}

func (rr *Routes) getSource(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.pathID(w, r)
	if !ok {
		return
	}
	source, found := rr.graph.Sources()[id]
	if !found {
		rr.writeErrorResponse(w, "source not found", http.StatusNotFound)
		return
	}
	rr.writeJSONResponse(w, source.ToWire(rr.version))
}

func (rr *Routes) listFlows(w http.ResponseWriter, _ *http.Request) {
	flows := rr.graph.Flows()
	payloads := make([]any, 0, len(flows))
	for _, f := range flows {
		payloads = append(payloads, f.ToWire(rr.version))
	}
	rr.writeJSONResponse(w, payloads)
}

func (rr *Routes) getFlow(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.pathID(w, r)
	if !ok {
		return
	}
	flow, found := rr.graph.Flows()[id]
	if !found {
		rr.writeErrorResponse(w, "flow not found", http.StatusNotFound)
		return
	}
	rr.writeJSONResponse(w, flow.ToWire(rr.version))
}

func (rr *Routes) listSenders(w http.ResponseWriter, _ *http.Request) {
	senders := rr.graph.Senders()
	payloads := make([]any, 0, len(senders))
	for _, s := range senders {
		payloads = append(payloads, s.ToWire(rr.version))
	}
	rr.writeJSONResponse(w, payloads)
}

func (rr *Routes) getSender(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.pathID(w, r)
	if !ok {
		return
	}
	sender, found := rr.graph.Senders()[id]
	if !found {
		rr.writeErrorResponse(w, "sender not found", http.StatusNotFound)
		return
	}
	rr.writeJSONResponse(w, sender.ToWire(rr.version))
}

func (rr *Routes) listReceivers(w http.ResponseWriter, _ *http.Request) {
	receivers := rr.graph.Receivers()
	payloads := make([]any, 0, len(receivers))
	for _, rcv := range receivers {
		payloads = append(payloads, rcv.ToWire(rr.version))
	}
	rr.writeJSONResponse(w, payloads)
}

func (rr *Routes) getReceiver(w http.ResponseWriter, r *http.Request) {
	id, ok := rr.pathID(w, r)
	if !ok {
		return
	}
	receiver, found := rr.graph.Receivers()[id]
	if !found {
		rr.writeErrorResponse(w, "receiver not found", http.StatusNotFound)
		return
	}
	rr.writeJSONResponse(w, receiver.ToWire(rr.version))
}

// pathID parses the {id} path parameter, writing a 400 on failure.
func (rr *Routes) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		rr.writeErrorResponse(w, "malformed resource id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	errorResp := ErrorResponse{
		Error: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
