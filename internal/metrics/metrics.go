// Package metrics exposes Prometheus instrumentation for trigger engines and
// replication.
//
// A nil *Metrics is valid and records nothing, so components take metrics as
// an optional dependency.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "moreevents"

// Drop reasons for replication messages.
const (
	DropMalformed     = "malformed"
	DropNotAuthority  = "not_authoritative"
	DropUnknownBlock  = "unknown_block"
	DropUnknownEvent  = "unknown_event"
	DropValueMismatch = "value_mismatch"
)

// Suppression reasons for transitions that did not invoke an action.
const (
	SuppressInactive   = "inactive"
	SuppressIncomplete = "incomplete"
	SuppressConsensus  = "consensus"
)

// Metrics holds the Prometheus collectors.
type Metrics struct {
	evaluations *prometheus.CounterVec
	transitions *prometheus.CounterVec
	actions     *prometheus.CounterVec
	suppressed  *prometheus.CounterVec
	resyncs     *prometheus.CounterVec
	observed    *prometheus.GaugeVec
	sent        *prometheus.CounterVec
	applied     *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Returns nil if reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "evaluations_total",
			Help:      "Value changes evaluated by trigger engines",
		}, []string{"event"}),

		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "transitions_total",
			Help:      "Per-source trigger state transitions",
		}, []string{"event", "state"}),

		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "actions_total",
			Help:      "Controller actions invoked",
		}, []string{"event", "slot"}),

		suppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "suppressed_total",
			Help:      "Transitions that did not invoke an action",
		}, []string{"event", "reason"}),

		resyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "resyncs_total",
			Help:      "Full re-evaluations after configuration changes",
		}, []string{"event"}),

		observed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trigger",
			Name:      "observed_sources",
			Help:      "Sources currently observed",
		}, []string{"event"}),

		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "messages_sent_total",
			Help:      "Detailed info messages published by the authoritative side",
		}, []string{"event"}),

		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "messages_applied_total",
			Help:      "Detailed info messages applied to a display cache",
		}, []string{"event"}),

		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replication",
			Name:      "messages_dropped_total",
			Help:      "Detailed info messages dropped on receipt",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.evaluations,
		m.transitions,
		m.actions,
		m.suppressed,
		m.resyncs,
		m.observed,
		m.sent,
		m.applied,
		m.dropped,
	)

	return m
}

// Evaluated counts one evaluation for event.
func (m *Metrics) Evaluated(event string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(event).Inc()
}

// Transitioned counts a per-source transition into state.
func (m *Metrics) Transitioned(event, state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event, state).Inc()
}

// ActionInvoked counts a controller action for slot.
func (m *Metrics) ActionInvoked(event string, slot int) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(event, strconv.Itoa(slot)).Inc()
}

// Suppressed counts a transition that did not reach the controller.
func (m *Metrics) Suppressed(event, reason string) {
	if m == nil {
		return
	}
	m.suppressed.WithLabelValues(event, reason).Inc()
}

// Resynced counts a resync pass.
func (m *Metrics) Resynced(event string) {
	if m == nil {
		return
	}
	m.resyncs.WithLabelValues(event).Inc()
}

// Observing sets the observed source gauge.
func (m *Metrics) Observing(event string, n int) {
	if m == nil {
		return
	}
	m.observed.WithLabelValues(event).Set(float64(n))
}

// Sent counts a published replication message.
func (m *Metrics) Sent(event string) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(event).Inc()
}

// Applied counts a replication message applied to a display cache.
func (m *Metrics) Applied(event string) {
	if m == nil {
		return
	}
	m.applied.WithLabelValues(event).Inc()
}

// Dropped counts a replication message dropped for reason.
func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(reason).Inc()
}
