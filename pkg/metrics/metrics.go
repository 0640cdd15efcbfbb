// Package metrics exposes the gateway's session registry as a
// prometheus.Collector, grounded on the conn-keyed collector pattern in
// runZeroInc-sockstats/pkg/exporter/exporter.go: a guarded map updated by
// connection lifecycle events, and a set of metric descriptors reported by
// Collect.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks gateway-wide counters and satisfies session.MetricsSink.
type Collector struct {
	mu sync.Mutex

	sessionsOnline int

	framesTotal     *prometheus.CounterVec
	acksTotal       prometheus.Counter
	resyncTotal     prometheus.Counter
	timeoutsTotal   prometheus.Counter
	sessionsOpened  prometheus.Counter
	sessionsClosed  prometheus.Counter
	onlineDesc      *prometheus.Desc
}

// New builds a Collector. Register it with a prometheus.Registry (or
// prometheus.MustRegister for the default one) before scraping.
func New() *Collector {
	return &Collector{
		framesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gt06_frames_received_total",
			Help: "Frames received from devices, by opcode.",
		}, []string{"opcode"}),
		acksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gt06_acks_sent_total",
			Help: "Frames written to devices: acknowledgments, responses and commands.",
		}),
		resyncTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gt06_resync_events_total",
			Help: "Frame codec resynchronisations due to corrupted start markers.",
		}),
		timeoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gt06_command_timeouts_total",
			Help: "Pending commands that expired without a correlated response.",
		}),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gt06_sessions_opened_total",
			Help: "TCP connections accepted.",
		}),
		sessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gt06_sessions_closed_total",
			Help: "TCP connections closed.",
		}),
		onlineDesc: prometheus.NewDesc(
			"gt06_sessions_online",
			"Device TCP connections currently open.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.framesTotal.Describe(ch)
	ch <- c.acksTotal.Desc()
	ch <- c.resyncTotal.Desc()
	ch <- c.timeoutsTotal.Desc()
	ch <- c.sessionsOpened.Desc()
	ch <- c.sessionsClosed.Desc()
	ch <- c.onlineDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.framesTotal.Collect(ch)
	ch <- c.acksTotal
	ch <- c.resyncTotal
	ch <- c.timeoutsTotal
	ch <- c.sessionsOpened
	ch <- c.sessionsClosed

	c.mu.Lock()
	online := c.sessionsOnline
	c.mu.Unlock()
	ch <- prometheus.MustNewConstMetric(c.onlineDesc, prometheus.GaugeValue, float64(online))
}

// FrameReceived implements session.MetricsSink.
func (c *Collector) FrameReceived(opcode byte) {
	c.framesTotal.WithLabelValues(opcodeLabel(opcode)).Inc()
}

// AckSent implements session.MetricsSink.
func (c *Collector) AckSent() { c.acksTotal.Inc() }

// CommandTimeout implements session.MetricsSink.
func (c *Collector) CommandTimeout() { c.timeoutsTotal.Inc() }

// Resync implements session.MetricsSink.
func (c *Collector) Resync() { c.resyncTotal.Inc() }

// SessionOpened implements session.MetricsSink.
func (c *Collector) SessionOpened() {
	c.sessionsOpened.Inc()
	c.mu.Lock()
	c.sessionsOnline++
	c.mu.Unlock()
}

// SessionClosed implements session.MetricsSink.
func (c *Collector) SessionClosed() {
	c.sessionsClosed.Inc()
	c.mu.Lock()
	c.sessionsOnline--
	c.mu.Unlock()
}

func opcodeLabel(opcode byte) string {
	const hexDigits = "0123456789abcdef"
	return "0x" + string([]byte{hexDigits[opcode>>4], hexDigits[opcode&0x0F]})
}
