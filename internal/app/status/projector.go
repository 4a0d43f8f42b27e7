package status

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stream receives status updates for a single subscriber.
type Stream interface {
	Send(Update) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Projector fans status updates out to subscribers and remembers the most
// recent one so late joiners and polling clients can read the current state.
type Projector struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	last          Update
}

// NewProjector creates a new status projector.
func NewProjector() *Projector {
	return &Projector{
		subscriptions: make(map[string]*subscription),
		last:          Update{Status: Ready, At: time.Now()},
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (p *Projector) Subscribe(stream Stream) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := uuid.New().String()
	p.subscriptions[id] = &subscription{id: id, stream: stream}
	return id
}

// Unsubscribe removes a subscription.
func (p *Projector) Unsubscribe(subscriptionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subscriptions, subscriptionID)
}

// Last returns the most recently published update.
func (p *Projector) Last() Update {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last
}

// SubscriberCount returns the number of active subscribers.
func (p *Projector) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions)
}

// Publish sends an update to all subscribers.
// Each stream send is done in a goroutine with a timeout to prevent blocking.
func (p *Projector) Publish(u Update) {
	if u.At.IsZero() {
		u.At = time.Now()
	}

	p.mu.Lock()
	p.last = u
	// Copy subscriptions to avoid holding the lock during sends
	subs := make([]*subscription, 0, len(p.subscriptions))
	for _, sub := range p.subscriptions {
		subs = append(subs, sub)
	}
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(u)
			}()

			select {
			case <-done:
				// Errors are ignored; a broken subscriber is cleaned up
				// by its own connection handler.
			case <-ctx.Done():
				// Timeout - continue to next subscriber
			}
		}(sub)
	}
	wg.Wait()
}

// Close removes all subscriptions.
func (p *Projector) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions = make(map[string]*subscription)
}
