package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cuemby/netemu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(hs *HealthServer, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	hs.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealthRoutesWithoutManager(t *testing.T) {
	hs := NewHealthServer(nil)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodPost, "/health", http.StatusMethodNotAllowed},
		{http.MethodGet, "/ready", http.StatusServiceUnavailable},
		{http.MethodDelete, "/ready", http.StatusMethodNotAllowed},
		{http.MethodGet, "/status", http.StatusServiceUnavailable},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nonexistent", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(hs, tt.method, tt.path).Code)
		})
	}
}

func TestHealthReportsVersion(t *testing.T) {
	w := serve(NewHealthServer(nil), http.MethodGet, "/health")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "alive", resp.Status)
	assert.NotEmpty(t, resp.Version)
	assert.Empty(t, resp.HostIP)
}

func TestReadyChecks(t *testing.T) {
	t.Run("unconfigured cluster", func(t *testing.T) {
		mgr, _, _ := newTestManager(t)
		w := serve(NewHealthServer(mgr), http.MethodGet, "/ready")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ReadyResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Ready)
		assert.Equal(t, hostIP, resp.Checks["manager"])
		assert.Equal(t, "ok", resp.Checks["metastore"])
		assert.Equal(t, "unconfigured", resp.Checks["cluster"])
	})

	t.Run("leader", func(t *testing.T) {
		mgr, store, _ := newTestManager(t)
		require.NoError(t, store.SaveClusterConfig(&types.ClusterConfig{Nodes: []types.ClusterNode{{IP: hostIP, Leader: true}}}))

		var resp ReadyResponse
		require.NoError(t, json.NewDecoder(serve(NewHealthServer(mgr), http.MethodGet, "/ready").Body).Decode(&resp))
		assert.Equal(t, "leader", resp.Checks["cluster"])
	})

	t.Run("metastore closed", func(t *testing.T) {
		mgr, store, _ := newTestManager(t)
		require.NoError(t, store.Close())

		w := serve(NewHealthServer(mgr), http.MethodGet, "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestStatusEndpoint(t *testing.T) {
	mgr, _, _ := newTestManager(t)
	w := serve(NewHealthServer(mgr), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var st types.NodeStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	assert.Equal(t, hostIP, st.IP)
}
