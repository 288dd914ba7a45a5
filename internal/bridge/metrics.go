package bridge

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/daemonp/dsc2mqtt/internal/dsc"
	"github.com/daemonp/dsc2mqtt/internal/types"
)

// Metrics are the session counters exported on /metrics. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	LinesReceived *prometheus.CounterVec // labels: result=ok|malformed|checksum
	CommandsSent  *prometheus.CounterVec // labels: code
	CommandErrors *prometheus.CounterVec // labels: reason=invalid|not_connected|transport
	Routed        *prometheus.CounterVec // labels: kind, result
	Connects      *prometheus.CounterVec // labels: result=ok|error
	Online        prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LinesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsc_lines_received_total",
			Help: "Lines received from the panel.",
		}, []string{"result"}),
		CommandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsc_commands_sent_total",
			Help: "Commands written to the panel by code.",
		}, []string{"code"}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsc_command_errors_total",
			Help: "Commands that could not be sent.",
		}, []string{"reason"}),
		Routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsc_events_routed_total",
			Help: "Events routed to consumers.",
		}, []string{"kind", "result"}),
		Connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dsc_connect_attempts_total",
			Help: "Connection attempts to the panel.",
		}, []string{"result"}),
		Online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dsc_bridge_online",
			Help: "1 when the bridge session is online.",
		}),
	}
	reg.MustRegister(m.LinesReceived, m.CommandsSent, m.CommandErrors, m.Routed, m.Connects, m.Online)
	return m
}

func (m *Metrics) received(result string) {
	if m == nil {
		return
	}
	m.LinesReceived.WithLabelValues(result).Inc()
}

func (m *Metrics) sent(code dsc.Code) {
	if m == nil {
		return
	}
	m.CommandsSent.WithLabelValues(string(code)).Inc()
}

func (m *Metrics) commandError(reason string) {
	if m == nil {
		return
	}
	m.CommandErrors.WithLabelValues(reason).Inc()
}

func (m *Metrics) routed(kind types.Kind, result string) {
	if m == nil {
		return
	}
	m.Routed.WithLabelValues(kind.String(), result).Inc()
}

func (m *Metrics) connect(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Connects.WithLabelValues("error").Inc()
		return
	}
	m.Connects.WithLabelValues("ok").Inc()
}

func (m *Metrics) state(s State) {
	if m == nil {
		return
	}
	if s == StateOnline {
		m.Online.Set(1)
		return
	}
	m.Online.Set(0)
}
