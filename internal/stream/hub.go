// Package stream pushes group snapshots to websocket clients.
//
// Each connection subscribes to one or more groups. Delivery is
// latest-only per group: a slow client skips intermediate snapshots
// instead of blocking the publisher. A new subscriber immediately gets the
// last snapshot of each group it subscribes to.
package stream

import (
	"sync"
)

// Hub tracks subscriptions and the last payload per topic.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Conn]struct{} // topic -> set(conn)
	last map[string][]byte             // topic -> last payload
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*Conn]struct{}),
		last: make(map[string][]byte),
	}
}

// Subscribe adds c to topics and replays their last payloads.
func (h *Hub) Subscribe(c *Conn, topics []string) {
	type snap struct {
		topic string
		data  []byte
	}

	// Record and snapshot under one lock so a concurrent Publish is not missed.
	h.mu.Lock()
	// readPump marks c closed before RemoveConn; a closed conn stays out.
	if c.closed.Load() {
		h.mu.Unlock()
		return
	}
	snaps := make([]snap, 0, len(topics))
	for _, t := range topics {
		set := h.subs[t]
		if set == nil {
			set = make(map[*Conn]struct{})
			h.subs[t] = set
		}
		set[c] = struct{}{}
		if b := h.last[t]; b != nil {
			snaps = append(snaps, snap{t, b})
		}
	}
	h.mu.Unlock()

	for _, s := range snaps {
		c.Offer(s.topic, s.data)
	}
}

// Unsubscribe removes c from topics.
func (h *Hub) Unsubscribe(c *Conn, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		if set := h.subs[t]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(h.subs, t)
			}
		}
	}
}

// RemoveConn drops every subscription of c.
func (h *Hub) RemoveConn(c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, topic)
		}
	}
}

// Publish stores payload as the topic's latest and offers it to every
// subscriber without blocking.
func (h *Hub) Publish(topic string, payload []byte) {
	cp := make([]byte, len(payload))
	copy(cp, payload)

	h.mu.Lock()
	h.last[topic] = cp
	conns := make([]*Conn, 0, len(h.subs[topic]))
	for c := range h.subs[topic] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.Offer(topic, cp)
	}
}

// Forget drops a topic's last payload, e.g. after its group is deleted.
func (h *Hub) Forget(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.last, topic)
}

// Subscribers returns the number of connections subscribed to topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
