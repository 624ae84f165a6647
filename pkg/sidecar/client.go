package sidecar

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/cuemby/netemu/pkg/rpc"
	"google.golang.org/grpc"
)

// Conn is a client connection to one sidecar manager
type Conn interface {
	grpc.ClientConnInterface
	Close() error
}

// Dialer opens connections to sidecar managers
type Dialer interface {
	Dial(ctx context.Context, addr string) (Conn, error)
}

// GRPCDialer dials sidecars over plaintext gRPC with the JSON codec
type GRPCDialer struct {
	Options []grpc.DialOption
}

func (d GRPCDialer) Dial(ctx context.Context, addr string) (Conn, error) {
	conn, err := rpc.Dial(addr, d.Options...)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Connector opens typed sidecar clients with a bounded per-call timeout
type Connector struct {
	dialer  Dialer
	timeout time.Duration
}

// NewConnector creates a connector; timeout bounds every call
func NewConnector(d Dialer, timeout time.Duration) *Connector {
	if d == nil {
		d = GRPCDialer{}
	}
	return &Connector{dialer: d, timeout: timeout}
}

// Client is a connection to one sidecar service
type Client struct {
	conn    Conn
	service string
	addr    string
	timeout time.Duration
}

func (c *Connector) open(ctx context.Context, service, ip string, port int) (*Client, error) {
	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	conn, err := c.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s at %s: %w", service, addr, err)
	}
	return &Client{conn: conn, service: service, addr: addr, timeout: c.timeout}, nil
}

// Addr returns the host:port of the sidecar
func (c *Client) Addr() string {
	return c.addr
}

// Close releases the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

func call[Resp any](ctx context.Context, c *Client, method string, req interface{}) (*Resp, error) {
	if req == nil {
		req = &rpc.Empty{}
	}
	callCtx, cancel := rpc.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := rpc.Invoke[Resp](callCtx, c.conn, c.service, method, req)
	if err != nil {
		return nil, fmt.Errorf("%s.%s on %s: %w", c.service, method, c.addr, err)
	}
	return resp, nil
}
