// Package events fans session changes out to dashboard subscribers.
package events

import (
	"encoding/json"
	"sync"

	"github.com/playperu/superadmin/internal/sessions"
)

const (
	SessionCreated = "session.created"
	SessionUpdated = "session.updated"
	SessionEnded   = "session.ended"
)

// Event is the payload streamed to subscribers.
type Event struct {
	Type    string            `json:"type"`
	Session *sessions.Session `json:"session"`
}

// Broker is an in-process pub/sub for session events.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish sends an event to every subscriber without blocking.
func (b *Broker) Publish(event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Subscribers reports the current subscriber count.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
