package metrics

import (
	"time"

	"github.com/cuemby/netemu/pkg/storage"
)

// Collector periodically refreshes gauges from the metastore
type Collector struct {
	store    storage.Store
	hostIP   string
	interval time.Duration
	stopCh   chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(store storage.Store, hostIP string) *Collector {
	return &Collector{
		store:    store,
		hostIP:   hostIP,
		interval: 15 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(c.interval)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	execs, err := c.store.ListExecutions()
	if err == nil {
		running := 0
		for _, e := range execs {
			if e.Running {
				running++
			}
		}
		ExecutionsTotal.WithLabelValues("true").Set(float64(running))
		ExecutionsTotal.WithLabelValues("false").Set(float64(len(execs) - running))
	}

	if cluster, err := c.store.GetClusterConfig(); err == nil && cluster.IsLeader(c.hostIP) {
		IsLeader.Set(1)
	} else {
		IsLeader.Set(0)
	}
}
