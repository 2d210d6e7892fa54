package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// ViewerStats provides the metrics collector access to live session state.
type ViewerStats interface {
	SessionCount() int
	SubscriberCount() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	pool  *pgxpool.Pool
	stats ViewerStats

	activeSessions  *prometheus.Desc
	sseSubscribers  *prometheus.Desc
	dbTotalConns    *prometheus.Desc
	dbAcquiredConns *prometheus.Desc
	dbIdleConns     *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// pool may be nil when no database is configured (metrics will report 0).
func NewCollector(pool *pgxpool.Pool, stats ViewerStats) *Collector {
	return &Collector{
		pool:  pool,
		stats: stats,
		activeSessions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sessions_active"),
			"Current number of viewer sessions.",
			nil, nil,
		),
		sseSubscribers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "sse_subscribers_active"),
			"Current number of SSE subscribers.",
			nil, nil,
		),
		dbTotalConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
			"Total database pool connections.",
			nil, nil,
		),
		dbAcquiredConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
			"Database pool connections currently in use.",
			nil, nil,
		),
		dbIdleConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "idle_conns"),
			"Database pool idle connections.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSessions
	ch <- c.sseSubscribers
	ch <- c.dbTotalConns
	ch <- c.dbAcquiredConns
	ch <- c.dbIdleConns
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var sessions, subscribers float64
	if c.stats != nil {
		sessions = float64(c.stats.SessionCount())
		subscribers = float64(c.stats.SubscriberCount())
	}
	ch <- prometheus.MustNewConstMetric(c.activeSessions, prometheus.GaugeValue, sessions)
	ch <- prometheus.MustNewConstMetric(c.sseSubscribers, prometheus.GaugeValue, subscribers)

	var total, acquired, idle float64
	if c.pool != nil {
		stat := c.pool.Stat()
		total = float64(stat.TotalConns())
		acquired = float64(stat.AcquiredConns())
		idle = float64(stat.IdleConns())
	}
	ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, total)
	ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, acquired)
	ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, idle)
}
