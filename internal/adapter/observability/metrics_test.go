package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDBCommandHelpers(t *testing.T) {
	InitMetrics()
	ObserveDBCommand("query", nil, 5*time.Millisecond)
	ObserveDBCommand("exec", errors.New("boom"), time.Millisecond)
	ObserveSeeded("model")
	ObserveSeeded("tensor")
	ObserveCheck("connection", true)
	ObserveCheck("tables", false)
}

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := NewPoolStatsCollector(nil)
	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)
	n := 0
	for range ch {
		n++
	}
	if n != 6 {
		t.Fatalf("expected 6 descriptors, got %d", n)
	}
}
