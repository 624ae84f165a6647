package health

import (
	"context"
	"net"
	"strconv"
	"time"
)

// TCPChecker reports a service up when its port accepts connections
type TCPChecker struct {
	// Address is host:port, e.g. "127.0.0.1:5432"
	Address string
	Timeout time.Duration
}

// NewTCPChecker checks port on host with a 5s dial timeout
func NewTCPChecker(host string, port int) *TCPChecker {
	return &TCPChecker{Address: net.JoinHostPort(host, strconv.Itoa(port)), Timeout: 5 * time.Second}
}

func (t *TCPChecker) Check(ctx context.Context) Result {
	start := time.Now()
	conn, err := (&net.Dialer{Timeout: t.Timeout}).DialContext(ctx, "tcp", t.Address)
	if err != nil {
		return fail(start, "dial %s: %v", t.Address, err)
	}
	conn.Close()
	return pass(start, "%s listening", t.Address)
}

func (t *TCPChecker) Type() CheckType {
	return CheckTypeTCP
}

func (t *TCPChecker) WithTimeout(timeout time.Duration) *TCPChecker {
	t.Timeout = timeout
	return t
}
