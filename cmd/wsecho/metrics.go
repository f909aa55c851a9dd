package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gobwas/wsframe"
)

type metrics struct {
	connections    prometheus.Counter
	messages       *prometheus.CounterVec
	protocolErrors prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsecho_connections_total",
			Help: "Number of upgraded WebSocket connections.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wsecho_messages_total",
			Help: "Number of received messages and control frames.",
		}, []string{"opcode"}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsecho_protocol_errors_total",
			Help: "Number of connections failed with protocol violation.",
		}),
	}
	reg.MustRegister(m.connections, m.messages, m.protocolErrors)
	return m
}

func (m *metrics) message(op wsframe.OpCode) {
	m.messages.WithLabelValues(op.String()).Inc()
}
