package monitoring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"
)

type HealthServer struct {
	monitor *Monitor
	port    string
	mux     *http.ServeMux
	server  *http.Server
}

func NewHealthServer(monitor *Monitor, port string) *HealthServer {
	if port == "" {
		port = "8080"
	}

	h := &HealthServer{
		monitor: monitor,
		port:    port,
		mux:     http.NewServeMux(),
	}
	h.mux.HandleFunc("/health", h.healthHandler)
	h.mux.HandleFunc("/status", h.statusHandler)
	return h
}

// Handler exposes the routes without binding a port.
func (h *HealthServer) Handler() http.Handler {
	return h.mux
}

// Start binds the port and serves in the background. A bind failure is
// returned so the scheduler does not run without its health endpoint.
func (h *HealthServer) Start() error {
	listener, err := net.Listen("tcp", ":"+h.port)
	if err != nil {
		return fmt.Errorf("failed to bind health port %s: %w", h.port, err)
	}

	h.server = &http.Server{
		Handler:           h.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("Health check server listening on %s", listener.Addr())
	go func() {
		if err := h.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Health server error: %v", err)
		}
	}()
	return nil
}

// Shutdown stops a started server, waiting for in-flight requests.
func (h *HealthServer) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}

func (h *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if h.monitor.IsHealthy() {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK - %s", h.monitor.GetStatusSummary())
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "Service unhealthy - %s", h.monitor.GetStatusSummary())
	}
}

func (h *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%s", h.monitor.GetStatusSummary())
}
