package sidecar_test

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/netemu/pkg/ownership"
	"github.com/cuemby/netemu/pkg/sidecar"
	"github.com/cuemby/netemu/pkg/sidecar/sidecartest"
	"github.com/cuemby/netemu/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrafficManagerLifecycle(t *testing.T) {
	cluster := sidecartest.NewCluster(t)
	fake := &sidecartest.TrafficManager{}
	cluster.Serve(t, "15.12.2.2:50043", fake.Service())

	conn := sidecar.NewConnector(cluster, time.Second)
	tm, err := conn.TrafficManager(context.Background(), "15.12.2.2", 50043)
	require.NoError(t, err)
	defer tm.Close()

	status, err := tm.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)

	status, err = tm.StartTraffic(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Running)

	status, err = tm.StopTraffic(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)

	assert.Equal(t, []string{sidecar.MethodStatus, sidecar.MethodStart, sidecar.MethodStop}, fake.Names())
}

func TestClientManagerStart(t *testing.T) {
	cluster := sidecartest.NewCluster(t)
	fake := sidecartest.NewClientManager(types.ClientManagerStatus{})
	cluster.Serve(t, "15.12.1.254:50044", fake.Service())

	conn := sidecar.NewConnector(cluster, time.Second)
	cm, err := conn.ClientManager(context.Background(), "15.12.1.254", 50044)
	require.NoError(t, err)
	defer cm.Close()

	req := &sidecar.StartClientsRequest{Mu: 4, Lambda: 20, TimeStepLenSeconds: 30, Commands: []string{"ping 15.12.2.2"}}
	status, err := cm.StartClients(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, status.ClientProcessActive)
	assert.Equal(t, 30, status.ClientsTimeStepLen)
	assert.Equal(t, req.Commands, fake.LastStart().Commands)
}

func TestStatusServiceAnswersEveryMethod(t *testing.T) {
	cluster := sidecartest.NewCluster(t)
	calls := &sidecartest.Calls{}
	cluster.Serve(t, "15.12.2.3:50049",
		sidecartest.StatusService(sidecar.HostManagerService, types.HostManagerStatus{Monitor: true}, calls))

	conn := sidecar.NewConnector(cluster, time.Second)
	hm, err := conn.HostManager(context.Background(), "15.12.2.3", 50049)
	require.NoError(t, err)
	defer hm.Close()

	status, err := hm.StartBeat(context.Background(), sidecar.Filebeat)
	require.NoError(t, err)
	assert.True(t, status.Monitor)
	assert.Equal(t, []string{sidecar.MethodStartBeat}, calls.Names())
}

func TestUnreachableSidecar(t *testing.T) {
	cluster := sidecartest.NewCluster(t)
	conn := sidecar.NewConnector(cluster, 200*time.Millisecond)

	tm, err := conn.TrafficManager(context.Background(), "15.12.9.9", 50043)
	require.NoError(t, err)
	defer tm.Close()

	_, err = tm.Status(context.Background())
	assert.Error(t, err)
}

func TestWrongServiceIsUnimplemented(t *testing.T) {
	cluster := sidecartest.NewCluster(t)
	cluster.Serve(t, "15.12.2.4:50043", (&sidecartest.TrafficManager{}).Service())

	conn := sidecar.NewConnector(cluster, time.Second)
	km, err := conn.KafkaManager(context.Background(), "15.12.2.4", 50043)
	require.NoError(t, err)
	defer km.Close()

	_, err = km.Status(context.Background())
	assert.Error(t, err)
}

func TestAggregateToleratesUnreachableNode(t *testing.T) {
	cluster := sidecartest.NewCluster(t)
	for _, ip := range []string{"15.12.2.2", "15.12.2.3", "15.12.2.4"} {
		cluster.Serve(t, ip+":50049", sidecartest.StatusService(sidecar.HostManagerService, types.HostManagerStatus{Monitor: true, IP: ip}, nil))
	}
	conn := sidecar.NewConnector(cluster, 200*time.Millisecond)

	exec := &types.Execution{EmulationName: "level-2", IPFirstOctet: 15}
	nodes := []types.Node{{IP: "15.12.2.2"}, {IP: "15.12.2.3"}, {IP: "15.12.2.99"}, {IP: "15.12.2.4"}}

	info := sidecar.Aggregate(context.Background(), ownership.FanOut{Concurrency: 4}, "host-manager", exec, nodes, 50049,
		func(ctx context.Context, n types.Node) (*types.HostManagerStatus, error) {
			hm, err := conn.HostManager(ctx, n.IP, 50049)
			if err != nil {
				return nil, err
			}
			defer hm.Close()
			return hm.Status(ctx)
		})

	require.Len(t, info.IPs, 4)
	require.Len(t, info.Ports, 4)
	require.Len(t, info.Running, 4)
	require.Len(t, info.Statuses, 4)
	assert.Equal(t, []bool{true, true, false, true}, info.Running)
	assert.Equal(t, types.HostManagerStatus{}, info.Statuses[2])
	assert.Equal(t, "15.12.2.4", info.Statuses[3].IP)
	assert.Equal(t, "level-2", info.EmulationName)
	assert.Equal(t, 15, info.ExecutionID)
}
