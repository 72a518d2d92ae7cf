// Package metrics provides internal Prometheus instrumentation for a
// running Context: I/O reactor load, Pipe backlog, and socket counts. This
// is deliberately distinct from ZMQ's own monitor-socket event firehose
// (PUB-style connect/disconnect/handshake events a peer subscribes to,
// named in spec.md's Non-goals) — these are process-local gauges/counters
// for whoever embeds zmtpfix to scrape, not a wire protocol.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/zmtpfix/zmtpfix/pipe"
)

var (
	reactorLoad = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zmtpfix_reactor_load",
			Help: "Number of connections and timers currently owned by an I/O reactor.",
		},
		[]string{"reactor"},
	)

	pipeBacklog = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zmtpfix_pipe_backlog",
			Help: "Messages written to a Pipe half but not yet read by its peer.",
		},
		[]string{"pipe"},
	)

	socketsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zmtpfix_sockets_active",
			Help: "Number of currently open sockets, by type.",
		},
		[]string{"type"},
	)

	socketsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zmtpfix_sockets_created_total",
			Help: "Total sockets ever created, by type.",
		},
		[]string{"type"},
	)

	sessionReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zmtpfix_session_reconnects_total",
			Help: "Total reconnect attempts a dialled Session has scheduled, by socket type.",
		},
		[]string{"type"},
	)
)

// ObserveReactorLoad records name's current Load() (§4.5's
// choose_io_thread counter).
func ObserveReactorLoad(name string, load int64) {
	reactorLoad.WithLabelValues(name).Set(float64(load))
}

// ObservePipeBacklog records half's outstanding unread message count,
// derived from the public counters Pipe already exposes for Testable
// Property 1.
func ObservePipeBacklog(id string, half *pipe.Pipe) {
	pipeBacklog.WithLabelValues(id).Set(float64(half.MsgsWritten() - half.PeersMsgsRead()))
}

// SocketOpened/SocketClosed track the active-socket gauge and lifetime
// counter for typ.
func SocketOpened(typ string) {
	socketsCreated.WithLabelValues(typ).Inc()
	socketsActive.WithLabelValues(typ).Inc()
}

func SocketClosed(typ string) {
	socketsActive.WithLabelValues(typ).Dec()
}

// SessionReconnecting increments typ's reconnect counter once per
// scheduled retry (§4.2/§4.4's HICCUP-then-reconnect path).
func SessionReconnecting(typ string) {
	sessionReconnects.WithLabelValues(typ).Inc()
}
