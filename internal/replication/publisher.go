package replication

import (
	"log/slog"

	"github.com/roach88/moreevents/internal/metrics"
)

// Publisher sends change notifications from the authoritative peer.
// Each message is applied to the local dispatcher first, then sent to the
// other peers.
type Publisher struct {
	local     *Dispatcher
	transport Transport
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// NewPublisher creates a publisher. transport may be nil for a session
// without remote peers.
func NewPublisher(local *Dispatcher, transport Transport, log *slog.Logger, m *metrics.Metrics) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{local: local, transport: transport, log: log, metrics: m}
}

// Publish replicates m.
func (p *Publisher) Publish(m Message) {
	payload := Marshal(m)
	p.log.Debug("publishing change", "block", m.BlockID, "event", m.EventType,
		"entity", m.EntityID, "slot", int(m.Slot), "bytes", len(payload))

	if p.local != nil {
		p.local.Deliver(m)
	}
	if p.transport != nil {
		p.transport.SendToOthers(payload)
	}
	p.metrics.Sent(m.EventType)
}
