package health

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpCheckerFor(url string) *HTTPChecker {
	c := NewHTTPChecker("127.0.0.1", 0, "/")
	c.URL = url
	return c
}

func TestHTTPChecker(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		min     int
		max     int
		healthy bool
	}{
		{"ok", http.StatusOK, 200, 399, true},
		{"server error", http.StatusInternalServerError, 200, 399, false},
		{"created within custom range", http.StatusCreated, 200, 299, true},
		{"redirect outside custom range", http.StatusFound, 200, 299, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			result := httpCheckerFor(server.URL).WithStatusRange(tt.min, tt.max).Check(context.Background())
			assert.Equal(t, tt.healthy, result.Healthy, result.Message)
		})
	}
}

func TestHTTPCheckerTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := httpCheckerFor(server.URL).WithTimeout(50 * time.Millisecond).Check(context.Background())
	assert.False(t, result.Healthy)
}

func TestNewHTTPCheckerURL(t *testing.T) {
	c := NewHTTPChecker("127.0.0.1", 9090, "/-/healthy")
	assert.Equal(t, "http://127.0.0.1:9090/-/healthy", c.URL)
	assert.Equal(t, CheckTypeHTTP, c.Type())
}

func TestTCPChecker(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port

	open := NewTCPChecker("127.0.0.1", port).Check(context.Background())
	assert.True(t, open.Healthy, open.Message)

	require.NoError(t, lis.Close())
	closed := NewTCPChecker("127.0.0.1", port).WithTimeout(200 * time.Millisecond).Check(context.Background())
	assert.False(t, closed.Healthy)
	assert.Contains(t, closed.Message, "127.0.0.1:"+strconv.Itoa(port))
}

func TestExecChecker(t *testing.T) {
	assert.True(t, NewExecChecker("true").Check(context.Background()).Healthy)
	assert.False(t, NewExecChecker("false").Check(context.Background()).Healthy)
	assert.False(t, NewExecChecker().Check(context.Background()).Healthy)
	assert.Equal(t, []string{"pgrep", "-f", "nginx"}, NewProcessChecker("nginx").Command)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

type fixedChecker struct{ healthy bool }

func (f fixedChecker) Check(ctx context.Context) Result { return Result{Healthy: f.healthy} }
func (f fixedChecker) Type() CheckType                  { return CheckTypeExec }

func TestPingChecker(t *testing.T) {
	assert.True(t, (&PingChecker{Target: fakePinger{}}).Check(context.Background()).Healthy)
	assert.False(t, (&PingChecker{Target: fakePinger{err: errors.New("down")}}).Check(context.Background()).Healthy)
	assert.False(t, (&PingChecker{}).Check(context.Background()).Healthy)
}

func TestRunAll(t *testing.T) {
	probes := []Probe{
		{Name: "postgres", Checker: fixedChecker{healthy: true}},
		{Name: "nginx", Checker: fixedChecker{healthy: false}},
		{Name: "docker", Checker: &PingChecker{Target: fakePinger{}}},
	}

	results := RunAll(context.Background(), time.Second, probes)
	require.Len(t, results, 3)
	assert.True(t, results["postgres"].Healthy)
	assert.False(t, results["nginx"].Healthy)
	assert.True(t, results["docker"].Healthy)
}
