package client

import (
	"context"
	"net"
	"testing"

	"github.com/cuemby/netemu/pkg/api"
	"github.com/cuemby/netemu/pkg/config"
	"github.com/cuemby/netemu/pkg/health"
	"github.com/cuemby/netemu/pkg/manager"
	"github.com/cuemby/netemu/pkg/rpc"
	"github.com/cuemby/netemu/pkg/sshexec"
	"github.com/cuemby/netemu/pkg/storage"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const hostIP = "10.0.0.1"

func newTestClient(t *testing.T) (*Client, storage.Store, *sshexec.Recorder) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.HostIP = hostIP
	cfg.SettleDelay = 0
	rec := sshexec.NewRecorder()
	mgr, err := manager.New(manager.Options{
		Config: cfg,
		Store:  store,
		Dialer: rec,
		Local:  sshexec.NewRecorder(),
		Probes: []health.Probe{},
	})
	require.NoError(t, err)

	lis := bufconn.Listen(1024 * 1024)
	srv := api.NewServer(mgr, 16)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := rpc.Dial("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClientConn(conn), store, rec
}

func TestGetNodeStatus(t *testing.T) {
	c, _, _ := newTestClient(t)

	st, err := c.GetNodeStatus()
	require.NoError(t, err)
	assert.Equal(t, hostIP, st.IP)
	assert.False(t, st.Leader)
}

func TestRunValidation(t *testing.T) {
	c, _, _ := newTestClient(t)

	tests := []struct {
		name   string
		method string
		ip     string
		errMsg string
	}{
		{name: "unknown operation", method: "LaunchRockets", errMsg: "unknown operation"},
		{name: "node operation without ip", method: "StartHostManager", errMsg: "requires a container IP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Run(tt.method, "level-2", 15, tt.ip)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRunNodeOwnedElsewhere(t *testing.T) {
	c, store, rec := newTestClient(t)
	require.NoError(t, store.SaveExecution(&types.Execution{
		EmulationName:   "level-2",
		IPFirstOctet:    15,
		PhysicalServers: []string{hostIP, "10.0.0.2"},
		Config: &types.EmulationEnvConfig{
			Containers: &types.ContainersConfig{Containers: []*types.NodeContainerConfig{
				{Name: "router", IPs: []types.ContainerIP{{IP: "15.12.2.3"}}, DockerGwBridgeIP: "172.31.0.3", PhysicalHostIP: "10.0.0.2"},
			}},
			HostManager: &types.ManagerConfig{Port: 50049},
		},
	}))

	out, err := c.Run("StartHostManager", "level-2", 15, "15.12.2.3")
	require.NoError(t, err)
	assert.False(t, out.Outcome)
	assert.Empty(t, out.Error)
	assert.Empty(t, rec.Hosts())
}

func TestBulkOperationsOnEmptyStore(t *testing.T) {
	c, _, _ := newTestClient(t)

	out, err := c.StopAllExecutions("")
	require.NoError(t, err)
	assert.True(t, out.Outcome)

	out, err = c.StopAllExecutions("level-2")
	require.NoError(t, err)
	assert.True(t, out.Outcome)

	out, err = c.CleanAllExecutions("")
	require.NoError(t, err)
	assert.True(t, out.Outcome)
}

func TestEvents(t *testing.T) {
	c, _, _ := newTestClient(t)

	evs, err := c.Events(10)
	require.NoError(t, err)
	assert.Empty(t, evs)
}

func TestCleanExecutionWithoutRuntime(t *testing.T) {
	c, _, _ := newTestClient(t)

	out, err := c.CleanExecution("level-2", 15)
	require.NoError(t, err)
	assert.False(t, out.Outcome)
	assert.NotEmpty(t, out.Error)
}

func TestManagersInfoUnknownExecution(t *testing.T) {
	c, _, _ := newTestClient(t)

	_, err := ManagersInfo[types.HostManagerStatus](c, "GetHostManagersInfo", "missing", 1)
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListContainersWithoutRuntime(t *testing.T) {
	c, _, _ := newTestClient(t)

	_, err := c.ListContainers(true)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}
