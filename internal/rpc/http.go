package rpc

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HandlerOptions configures the HTTP surface
type HandlerOptions struct {
	Logger *zap.Logger

	// Gatherer is served on /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	PingInterval time.Duration
}

// Handler routes JSON-RPC on /, websocket on /ws, and /metrics and /health
type Handler struct {
	mux       *http.ServeMux
	rpc       *Server
	websocket *WebSocketServer
}

// NewHandler builds the HTTP surface of svc
func NewHandler(svc LedgerService, opts HandlerOptions) *Handler {
	rpcServer := NewServer(svc, opts.Logger)
	ws := NewWebSocketServer(rpcServer.Registry(), svc.Events(), opts.Logger, opts.PingInterval)

	mux := http.NewServeMux()
	mux.Handle("/", rpcServer)
	mux.Handle("/ws", ws)
	mux.HandleFunc("/health", healthHandler(svc))
	if opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return &Handler{mux: mux, rpc: rpcServer, websocket: ws}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// WebSocket returns the websocket server
func (h *Handler) WebSocket() *WebSocketServer {
	return h.websocket
}

// Close disconnects websocket clients. http.Server.Shutdown does not
// track hijacked connections.
func (h *Handler) Close() {
	h.websocket.Close()
}

func healthHandler(svc LedgerService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := map[string]interface{}{"status": "ok"}
		status := http.StatusOK
		if err := svc.Healthy(r.Context()); err != nil {
			body = map[string]interface{}{"status": "unavailable", "error": err.Error()}
			status = http.StatusServiceUnavailable
		} else {
			body["ledger_index"] = svc.ServerInfo().LedgerSequence
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
