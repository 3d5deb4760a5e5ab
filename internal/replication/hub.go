package replication

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Handler consumes a payload delivered to a peer. fromServer is true when the
// sender is the authoritative peer.
type Handler func(payload []byte, sender uuid.UUID, fromServer bool)

// Transport sends a payload to every peer except the sender.
type Transport interface {
	SendToOthers(payload []byte)
}

// Hub is an in-memory message bus connecting the peers of one session.
// Delivery is synchronous and follows join order.
//
// Thread-safety: Hub is safe for concurrent use. Handlers run on the
// sending goroutine.
type Hub struct {
	mu    sync.Mutex
	peers []*Peer
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Peer is one participant of a Hub.
type Peer struct {
	hub           *Hub
	id            uuid.UUID
	authoritative bool
	handler       Handler
}

// Join adds a peer. Peers are identified by time-sortable UUIDv7 values.
func (h *Hub) Join(authoritative bool, handler Handler) *Peer {
	p := &Peer{
		hub:           h,
		id:            uuid.Must(uuid.NewV7()),
		authoritative: authoritative,
		handler:       handler,
	}
	h.mu.Lock()
	h.peers = append(h.peers, p)
	h.mu.Unlock()
	slog.Debug("peer joined", "peer", p.id, "authoritative", authoritative)
	return p
}

// Leave removes p from the hub. Safe to call more than once.
func (h *Hub) Leave(p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, q := range h.peers {
		if q == p {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			return
		}
	}
}

// Len returns the number of joined peers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// ID returns the peer identifier.
func (p *Peer) ID() uuid.UUID {
	return p.id
}

// Authoritative reports whether the peer is the session authority.
func (p *Peer) Authoritative() bool {
	return p.authoritative
}

// SendToOthers delivers payload to every other peer.
func (p *Peer) SendToOthers(payload []byte) {
	p.hub.mu.Lock()
	targets := make([]*Peer, 0, len(p.hub.peers))
	for _, q := range p.hub.peers {
		if q != p {
			targets = append(targets, q)
		}
	}
	p.hub.mu.Unlock()

	for _, q := range targets {
		if q.handler != nil {
			// Each receiver gets its own copy.
			q.handler(append([]byte(nil), payload...), p.id, p.authoritative)
		}
	}
}
