package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/cuemby/netemu/pkg/manager"
	"github.com/cuemby/netemu/pkg/metrics"
	"github.com/cuemby/netemu/pkg/storage"
)

// HealthServer serves liveness, readiness, node status and metrics over HTTP
type HealthServer struct {
	manager *manager.Manager
	mux     *http.ServeMux
}

// NewHealthServer registers the endpoints. mgr may be nil while the daemon
// is starting; readiness then fails.
func NewHealthServer(mgr *manager.Manager) *HealthServer {
	hs := &HealthServer{manager: mgr, mux: http.NewServeMux()}

	hs.mux.HandleFunc("GET /health", hs.healthHandler)
	hs.mux.HandleFunc("GET /ready", hs.readyHandler)
	hs.mux.HandleFunc("GET /status", hs.statusHandler)
	hs.mux.Handle("GET /metrics", metrics.Handler())
	return hs
}

// Start listens on addr until the process exits
func (hs *HealthServer) Start(addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           hs.mux,
		ReadHeaderTimeout: 5 * time.Second,
		// node status probes run up to the probe timeout
		WriteTimeout: 30 * time.Second,
	}
	return server.ListenAndServe()
}

// Handler returns the mux for embedding in other servers
func (hs *HealthServer) Handler() http.Handler {
	return hs.mux
}

// HealthResponse is the body of /health
type HealthResponse struct {
	Status  string `json:"status"`
	HostIP  string `json:"host_ip,omitempty"`
	Version string `json:"version"`
}

// ReadyResponse is the body of /ready
type ReadyResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "devel"
}

func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "alive", Version: version()}
	if hs.manager != nil {
		resp.HostIP = hs.manager.HostIP()
	}
	writeJSON(w, http.StatusOK, resp)
}

// readyHandler fails until the manager exists and the metastore answers.
// A missing cluster config is reported but does not fail readiness.
func (hs *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if hs.manager == nil {
		writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Checks: map[string]string{"manager": "starting"},
		})
		return
	}

	store := hs.manager.Store()
	resp := ReadyResponse{Ready: true, Checks: map[string]string{"manager": hs.manager.HostIP()}}
	if err := store.Ping(); err != nil {
		resp.Ready = false
		resp.Checks["metastore"] = err.Error()
	} else {
		resp.Checks["metastore"] = "ok"
	}

	switch cluster, err := store.GetClusterConfig(); {
	case errors.Is(err, storage.ErrNotFound):
		resp.Checks["cluster"] = "unconfigured"
	case err != nil:
		resp.Checks["cluster"] = err.Error()
	case cluster.IsLeader(hs.manager.HostIP()):
		resp.Checks["cluster"] = "leader"
	default:
		resp.Checks["cluster"] = "member"
	}

	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (hs *HealthServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	if hs.manager == nil {
		http.Error(w, "manager starting", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, hs.manager.GetNodeStatus(r.Context()))
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
