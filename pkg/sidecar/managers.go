package sidecar

import (
	"context"

	"github.com/cuemby/netemu/pkg/types"
)

// TrafficManager controls the traffic generator of one node
type TrafficManager struct{ *Client }

func (c *Connector) TrafficManager(ctx context.Context, ip string, port int) (*TrafficManager, error) {
	cl, err := c.open(ctx, TrafficManagerService, ip, port)
	if err != nil {
		return nil, err
	}
	return &TrafficManager{cl}, nil
}

func (m *TrafficManager) Status(ctx context.Context) (*types.TrafficManagerStatus, error) {
	return call[types.TrafficManagerStatus](ctx, m.Client, MethodStatus, nil)
}

func (m *TrafficManager) StartTraffic(ctx context.Context) (*types.TrafficManagerStatus, error) {
	return call[types.TrafficManagerStatus](ctx, m.Client, MethodStart, nil)
}

func (m *TrafficManager) StopTraffic(ctx context.Context) (*types.TrafficManagerStatus, error) {
	return call[types.TrafficManagerStatus](ctx, m.Client, MethodStop, nil)
}

// ClientManager controls the client population
type ClientManager struct{ *Client }

func (c *Connector) ClientManager(ctx context.Context, ip string, port int) (*ClientManager, error) {
	cl, err := c.open(ctx, ClientManagerService, ip, port)
	if err != nil {
		return nil, err
	}
	return &ClientManager{cl}, nil
}

func (m *ClientManager) Status(ctx context.Context) (*types.ClientManagerStatus, error) {
	return call[types.ClientManagerStatus](ctx, m.Client, MethodStatus, nil)
}

func (m *ClientManager) StartClients(ctx context.Context, req *StartClientsRequest) (*types.ClientManagerStatus, error) {
	return call[types.ClientManagerStatus](ctx, m.Client, MethodStart, req)
}

func (m *ClientManager) StopClients(ctx context.Context) (*types.ClientManagerStatus, error) {
	return call[types.ClientManagerStatus](ctx, m.Client, MethodStop, nil)
}

func (m *ClientManager) StartProducer(ctx context.Context, req *KafkaTarget) (*types.ClientManagerStatus, error) {
	return call[types.ClientManagerStatus](ctx, m.Client, MethodStartProducer, req)
}

func (m *ClientManager) StopProducer(ctx context.Context) (*types.ClientManagerStatus, error) {
	return call[types.ClientManagerStatus](ctx, m.Client, MethodStopProducer, nil)
}

// HostManager controls the host monitor and beats of one node
type HostManager struct{ *Client }

func (c *Connector) HostManager(ctx context.Context, ip string, port int) (*HostManager, error) {
	cl, err := c.open(ctx, HostManagerService, ip, port)
	if err != nil {
		return nil, err
	}
	return &HostManager{cl}, nil
}

func (m *HostManager) Status(ctx context.Context) (*types.HostManagerStatus, error) {
	return call[types.HostManagerStatus](ctx, m.Client, MethodStatus, nil)
}

func (m *HostManager) StartMonitor(ctx context.Context, req *KafkaTarget) (*types.HostManagerStatus, error) {
	return call[types.HostManagerStatus](ctx, m.Client, MethodStartMonitor, req)
}

func (m *HostManager) StopMonitor(ctx context.Context) (*types.HostManagerStatus, error) {
	return call[types.HostManagerStatus](ctx, m.Client, MethodStopMonitor, nil)
}

func (m *HostManager) ConfigBeat(ctx context.Context, req *BeatConfigRequest) (*types.HostManagerStatus, error) {
	return call[types.HostManagerStatus](ctx, m.Client, MethodConfigBeat, req)
}

func (m *HostManager) StartBeat(ctx context.Context, beat string) (*types.HostManagerStatus, error) {
	return call[types.HostManagerStatus](ctx, m.Client, MethodStartBeat, &BeatRequest{Beat: beat})
}

func (m *HostManager) StopBeat(ctx context.Context, beat string) (*types.HostManagerStatus, error) {
	return call[types.HostManagerStatus](ctx, m.Client, MethodStopBeat, &BeatRequest{Beat: beat})
}

// IDSManager controls a Snort or OSSEC IDS and its log monitor
type IDSManager struct{ *Client }

func (c *Connector) SnortIDSManager(ctx context.Context, ip string, port int) (*IDSManager, error) {
	cl, err := c.open(ctx, SnortIDSManagerService, ip, port)
	if err != nil {
		return nil, err
	}
	return &IDSManager{cl}, nil
}

func (c *Connector) OSSECIDSManager(ctx context.Context, ip string, port int) (*IDSManager, error) {
	cl, err := c.open(ctx, OSSECIDSManagerService, ip, port)
	if err != nil {
		return nil, err
	}
	return &IDSManager{cl}, nil
}

func (m *IDSManager) Status(ctx context.Context) (*types.IDSManagerStatus, error) {
	return call[types.IDSManagerStatus](ctx, m.Client, MethodStatus, nil)
}

func (m *IDSManager) StartIDS(ctx context.Context) (*types.IDSManagerStatus, error) {
	return call[types.IDSManagerStatus](ctx, m.Client, MethodStart, nil)
}

func (m *IDSManager) StopIDS(ctx context.Context) (*types.IDSManagerStatus, error) {
	return call[types.IDSManagerStatus](ctx, m.Client, MethodStop, nil)
}

func (m *IDSManager) StartMonitor(ctx context.Context, req *KafkaTarget) (*types.IDSManagerStatus, error) {
	return call[types.IDSManagerStatus](ctx, m.Client, MethodStartMonitor, req)
}

func (m *IDSManager) StopMonitor(ctx context.Context) (*types.IDSManagerStatus, error) {
	return call[types.IDSManagerStatus](ctx, m.Client, MethodStopMonitor, nil)
}

// KafkaManager controls the Kafka broker
type KafkaManager struct{ *Client }

func (c *Connector) KafkaManager(ctx context.Context, ip string, port int) (*KafkaManager, error) {
	cl, err := c.open(ctx, KafkaManagerService, ip, port)
	if err != nil {
		return nil, err
	}
	return &KafkaManager{cl}, nil
}

func (m *KafkaManager) Status(ctx context.Context) (*types.KafkaManagerStatus, error) {
	return call[types.KafkaManagerStatus](ctx, m.Client, MethodStatus, nil)
}

func (m *KafkaManager) StartKafka(ctx context.Context) (*types.KafkaManagerStatus, error) {
	return call[types.KafkaManagerStatus](ctx, m.Client, MethodStart, nil)
}

func (m *KafkaManager) StopKafka(ctx context.Context) (*types.KafkaManagerStatus, error) {
	return call[types.KafkaManagerStatus](ctx, m.Client, MethodStop, nil)
}

func (m *KafkaManager) CreateTopic(ctx context.Context, req *CreateTopicRequest) (*types.KafkaManagerStatus, error) {
	return call[types.KafkaManagerStatus](ctx, m.Client, MethodCreateTopic, req)
}

// ElkManager controls the Elasticsearch, Logstash and Kibana stack
type ElkManager struct{ *Client }

func (c *Connector) ElkManager(ctx context.Context, ip string, port int) (*ElkManager, error) {
	cl, err := c.open(ctx, ElkManagerService, ip, port)
	if err != nil {
		return nil, err
	}
	return &ElkManager{cl}, nil
}

func (m *ElkManager) Status(ctx context.Context) (*types.ElkManagerStatus, error) {
	return call[types.ElkManagerStatus](ctx, m.Client, MethodStatus, nil)
}

func (m *ElkManager) StartElk(ctx context.Context) (*types.ElkManagerStatus, error) {
	return call[types.ElkManagerStatus](ctx, m.Client, MethodStart, nil)
}

func (m *ElkManager) StopElk(ctx context.Context) (*types.ElkManagerStatus, error) {
	return call[types.ElkManagerStatus](ctx, m.Client, MethodStop, nil)
}

// DockerStatsManager runs per-execution container stats monitors on a physical host
type DockerStatsManager struct{ *Client }

func (c *Connector) DockerStatsManager(ctx context.Context, ip string, port int) (*DockerStatsManager, error) {
	cl, err := c.open(ctx, DockerStatsManagerService, ip, port)
	if err != nil {
		return nil, err
	}
	return &DockerStatsManager{cl}, nil
}

func (m *DockerStatsManager) Status(ctx context.Context) (*types.DockerStatsManagerStatus, error) {
	return call[types.DockerStatsManagerStatus](ctx, m.Client, MethodStatus, nil)
}

func (m *DockerStatsManager) StartMonitor(ctx context.Context, req *DockerStatsMonitorRequest) (*types.DockerStatsManagerStatus, error) {
	return call[types.DockerStatsManagerStatus](ctx, m.Client, MethodStartMonitor, req)
}

func (m *DockerStatsManager) StopMonitor(ctx context.Context, req *DockerStatsMonitorRequest) (*types.DockerStatsManagerStatus, error) {
	return call[types.DockerStatsManagerStatus](ctx, m.Client, MethodStopMonitor, req)
}

// SDNController controls the SDN controller and its flow monitor
type SDNController struct{ *Client }

func (c *Connector) SDNController(ctx context.Context, ip string, port int) (*SDNController, error) {
	cl, err := c.open(ctx, SDNControllerService, ip, port)
	if err != nil {
		return nil, err
	}
	return &SDNController{cl}, nil
}

func (m *SDNController) Status(ctx context.Context) (*types.SDNControllerStatus, error) {
	return call[types.SDNControllerStatus](ctx, m.Client, MethodStatus, nil)
}

func (m *SDNController) StartController(ctx context.Context, req *SDNControllerStartRequest) (*types.SDNControllerStatus, error) {
	return call[types.SDNControllerStatus](ctx, m.Client, MethodStart, req)
}

func (m *SDNController) StopController(ctx context.Context) (*types.SDNControllerStatus, error) {
	return call[types.SDNControllerStatus](ctx, m.Client, MethodStop, nil)
}

func (m *SDNController) StartMonitor(ctx context.Context, req *KafkaTarget) (*types.SDNControllerStatus, error) {
	return call[types.SDNControllerStatus](ctx, m.Client, MethodStartMonitor, req)
}

func (m *SDNController) StopMonitor(ctx context.Context) (*types.SDNControllerStatus, error) {
	return call[types.SDNControllerStatus](ctx, m.Client, MethodStopMonitor, nil)
}
