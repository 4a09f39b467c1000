package realtime

import (
	"errors"
	"sync"
)

// AddressOf is the mailbox routing key for a principal. It is derived
// from the id alone and is never persisted.
func AddressOf(principalID string) string {
	return "user_" + principalID
}

// ErrRegistryClosed is returned by Subscribe after shutdown has begun.
var ErrRegistryClosed = errors.New("connection registry is closed")

const defaultMailboxBuffer = 64

// Subscription is one open connection's view of its mailbox.
type Subscription struct {
	Address string
	C       <-chan Event

	send chan Event
}

// Registry is the in-process connection table for the realtime bus: mailbox
// address to the connections currently subscribed to it. It is created at
// server start and closed at shutdown; one serving process holds all open
// connections. Scaling past one process means swapping this component for an
// external pub/sub backend, not touching the guards.
type Registry struct {
	mu        sync.RWMutex
	mailboxes map[string][]*Subscription
	buffer    int
	closed    bool
}

func NewRegistry() *Registry {
	return &Registry{
		mailboxes: make(map[string][]*Subscription),
		buffer:    defaultMailboxBuffer,
	}
}

// Subscribe attaches a new connection to the principal's mailbox. A
// principal may hold several connections at once (multiple devices).
func (r *Registry) Subscribe(principalID string) (*Subscription, error) {
	addr := AddressOf(principalID)
	sub := &Subscription{Address: addr, send: make(chan Event, r.buffer)}
	sub.C = sub.send

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	r.mailboxes[addr] = append(r.mailboxes[addr], sub)
	return sub, nil
}

// Unsubscribe detaches the connection and closes its channel.
func (r *Registry) Unsubscribe(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.mailboxes[sub.Address]
	for i, s := range subs {
		if s == sub {
			subs = append(subs[:i], subs[i+1:]...)
			close(s.send)
			break
		}
	}
	if len(subs) == 0 {
		delete(r.mailboxes, sub.Address)
	} else {
		r.mailboxes[sub.Address] = subs
	}
}

// Publish delivers the event to every connection on the address.
// Fire-and-forget: no recipient, or a recipient too slow to drain its
// buffer, drops the event.
func (r *Registry) Publish(address string, evt Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	for _, sub := range r.mailboxes[address] {
		select {
		case sub.send <- evt:
		default: // slow consumer
		}
	}
}

// Open reports whether the address has at least one live connection.
func (r *Registry) Open(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.mailboxes[address]) > 0
}

// Close tears the registry down, closing every subscription channel.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for addr, subs := range r.mailboxes {
		for _, sub := range subs {
			close(sub.send)
		}
		delete(r.mailboxes, addr)
	}
}
