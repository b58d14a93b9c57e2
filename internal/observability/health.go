package observability

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Dependency names reported on /healthz
const (
	DependencyUpstream = "upstream"
	DependencyKafka    = "kafka"
)

// HealthChecker serves gRPC and HTTP health. The service is ready while it
// has not shut down and every dependency it registered is ready.
type HealthChecker struct {
	grpcHealth *health.Server
	httpServer *http.Server
	logger     *zap.Logger
	mu         sync.RWMutex
	shutdown   bool
	deps       map[string]bool
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		grpcHealth: health.NewServer(),
		logger:     logger,
		deps:       make(map[string]bool),
	}
}

// RegisterGRPC registers the health service with the gRPC server
func (h *HealthChecker) RegisterGRPC(s *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(s, h.grpcHealth)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publishLocked()
}

// Handler returns the HTTP health handler
func (h *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealthz)
	return mux
}

// StartHTTPServer starts the HTTP health check server
func (h *HealthChecker) StartHTTPServer(addr string) error {
	h.mu.Lock()
	h.httpServer = &http.Server{
		Addr:    addr,
		Handler: h.Handler(),
	}
	srv := h.httpServer
	h.mu.Unlock()

	h.logger.Info("starting HTTP health server", zap.String("addr", addr))
	return srv.ListenAndServe()
}

// Shutdown marks the service not serving and stops the HTTP server
func (h *HealthChecker) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.shutdown = true
	h.publishLocked()
	srv := h.httpServer
	h.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// SetUpstreamReady records whether the exchange websocket is connected
func (h *HealthChecker) SetUpstreamReady(ready bool) {
	h.SetDependencyReady(DependencyUpstream, ready)
}

// SetKafkaReady records whether the Kafka client is usable
func (h *HealthChecker) SetKafkaReady(ready bool) {
	h.SetDependencyReady(DependencyKafka, ready)
}

// SetDependencyReady registers name as a dependency and records its state
func (h *HealthChecker) SetDependencyReady(name string, ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.deps[name]; !ok || prev != ready {
		h.logger.Info("dependency readiness changed", zap.String("dependency", name), zap.Bool("ready", ready))
	}
	h.deps[name] = ready
	h.publishLocked()
}

// Ready reports overall readiness
func (h *HealthChecker) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.readyLocked()
}

func (h *HealthChecker) readyLocked() bool {
	if h.shutdown {
		return false
	}
	for _, ok := range h.deps {
		if !ok {
			return false
		}
	}
	return true
}

func (h *HealthChecker) publishLocked() {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if h.readyLocked() {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.grpcHealth.SetServingStatus("", status)
}

type healthReport struct {
	Status       string          `json:"status"`
	Dependencies map[string]bool `json:"dependencies"`
	NotReady     []string        `json:"not_ready,omitempty"`
}

func (h *HealthChecker) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	report := healthReport{Status: "OK", Dependencies: make(map[string]bool, len(h.deps))}
	for name, ok := range h.deps {
		report.Dependencies[name] = ok
		if !ok {
			report.NotReady = append(report.NotReady, name)
		}
	}
	ready := h.readyLocked()
	h.mu.RUnlock()

	sort.Strings(report.NotReady)
	code := http.StatusOK
	if !ready {
		report.Status = "NOT_READY"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(report); err != nil {
		h.logger.Debug("failed to write health report", zap.Error(err))
	}
}
