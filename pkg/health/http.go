package health

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// HTTPChecker reports a web service up when its health endpoint answers
// with a status in [MinStatus, MaxStatus]. Prometheus, Grafana, cAdvisor
// and node-exporter are probed this way.
type HTTPChecker struct {
	URL       string
	MinStatus int
	MaxStatus int
	Client    *http.Client
}

// NewHTTPChecker checks http://host:port/path, accepting 2xx and 3xx
func NewHTTPChecker(host string, port int, path string) *HTTPChecker {
	return &HTTPChecker{
		URL:       fmt.Sprintf("http://%s%s", net.JoinHostPort(host, strconv.Itoa(port)), path),
		MinStatus: http.StatusOK,
		MaxStatus: 399,
		Client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HTTPChecker) Check(ctx context.Context) Result {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return fail(start, "bad request: %v", err)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return fail(start, "GET %s: %v", h.URL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < h.MinStatus || resp.StatusCode > h.MaxStatus {
		return fail(start, "GET %s: %s", h.URL, resp.Status)
	}
	return pass(start, "GET %s: %s", h.URL, resp.Status)
}

func (h *HTTPChecker) Type() CheckType {
	return CheckTypeHTTP
}

// WithStatusRange overrides the accepted status codes
func (h *HTTPChecker) WithStatusRange(min, max int) *HTTPChecker {
	h.MinStatus, h.MaxStatus = min, max
	return h
}

func (h *HTTPChecker) WithTimeout(timeout time.Duration) *HTTPChecker {
	h.Client.Timeout = timeout
	return h
}
