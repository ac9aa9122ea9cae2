package observability

import (
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	DBCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_commands_total",
			Help: "Total number of database commands by operation and outcome",
		},
		[]string{"op", "outcome"},
	)
	DBCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_command_duration_seconds",
			Help:    "Database command duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"op"},
	)

	SeededEntitiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeded_entities_total",
			Help: "Total number of entities created by the seeder by kind",
		},
		[]string{"kind"},
	)

	DiagChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "diag_checks_total",
			Help: "Total number of diagnostic checks by name and outcome",
		},
		[]string{"check", "outcome"},
	)
)

func InitMetrics() {
	prometheus.MustRegister(DBCommandsTotal)
	prometheus.MustRegister(DBCommandDuration)
	prometheus.MustRegister(SeededEntitiesTotal)
	prometheus.MustRegister(DiagChecksTotal)
}

// ObserveDBCommand records one command's outcome and latency.
func ObserveDBCommand(op string, err error, dur time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DBCommandsTotal.WithLabelValues(op, outcome).Inc()
	DBCommandDuration.WithLabelValues(op).Observe(dur.Seconds())
}

// ObserveSeeded counts one entity written by the seeder.
func ObserveSeeded(kind string) {
	SeededEntitiesTotal.WithLabelValues(kind).Inc()
}

// ObserveCheck records the outcome of one diagnostic check.
func ObserveCheck(check string, passed bool) {
	outcome := "pass"
	if !passed {
		outcome = "fail"
	}
	DiagChecksTotal.WithLabelValues(check, outcome).Inc()
}

// poolStatsCollector exports pgxpool statistics on scrape, so gauge values
// are read at collection time instead of being pushed on every acquire.
type poolStatsCollector struct {
	stat func() *pgxpool.Stat

	acquired     *prometheus.Desc
	idle         *prometheus.Desc
	total        *prometheus.Desc
	max          *prometheus.Desc
	acquires     *prometheus.Desc
	emptyAcquire *prometheus.Desc
}

// NewPoolStatsCollector builds a Prometheus collector over a pgxpool stats
// source. Register it once per pool.
func NewPoolStatsCollector(stat func() *pgxpool.Stat) prometheus.Collector {
	return &poolStatsCollector{
		stat: stat,
		acquired: prometheus.NewDesc("db_pool_acquired_conns",
			"Connections currently checked out of the pool", nil, nil),
		idle: prometheus.NewDesc("db_pool_idle_conns",
			"Idle connections in the pool", nil, nil),
		total: prometheus.NewDesc("db_pool_total_conns",
			"Total connections held by the pool", nil, nil),
		max: prometheus.NewDesc("db_pool_max_conns",
			"Configured maximum pool size", nil, nil),
		acquires: prometheus.NewDesc("db_pool_acquire_total",
			"Cumulative successful connection acquisitions", nil, nil),
		emptyAcquire: prometheus.NewDesc("db_pool_empty_acquire_total",
			"Cumulative acquisitions that had to wait for a free connection", nil, nil),
	}
}

func (c *poolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.acquires
	ch <- c.emptyAcquire
}

func (c *poolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stat()
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.IdleConns()))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.TotalConns()))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.MaxConns()))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(s.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(c.emptyAcquire, prometheus.CounterValue, float64(s.EmptyAcquireCount()))
}
