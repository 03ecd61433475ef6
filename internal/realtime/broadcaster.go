// File: internal/realtime/broadcaster.go
package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/agrisaarthi/agrisaarthi/internal/domain"
)

// subscriberBufferSize is the channel buffer for each subscriber. Slow
// consumers drop notifications rather than blocking publishers; droppers
// recover on the next full LoadMessages.
const subscriberBufferSize = 64

// Broadcaster is the in-memory change feed for message inserts. Subscribers
// register for one chat thread and receive each message persisted to it.
// This is the subscribe() half of the conversation store interface.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan *domain.Message // chatID -> subID -> ch
	closed      bool
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]map[string]chan *domain.Message),
	}
}

// Subscribe registers for inserts on the given chat thread. The returned
// channel is closed on Unsubscribe or Close; the subscription is also torn
// down automatically when ctx is cancelled.
func (b *Broadcaster) Subscribe(ctx context.Context, chatID string) (<-chan *domain.Message, string) {
	subID := uuid.New().String()
	ch := make(chan *domain.Message, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	if _, ok := b.subscribers[chatID]; !ok {
		b.subscribers[chatID] = make(map[string]chan *domain.Message)
	}
	b.subscribers[chatID][subID] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.Unsubscribe(chatID, subID)
	}()

	return ch, subID
}

// Publish fans a persisted message out to every subscriber of its thread.
// Non-blocking: the message is dropped for subscribers whose buffers are full.
func (b *Broadcaster) Publish(msg *domain.Message) {
	if msg == nil {
		return
	}

	// The read lock is held across the sends so an Unsubscribe cannot close
	// a channel mid-fanout. Sends are non-blocking, so the lock is never
	// held waiting on a subscriber.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[msg.ChatID] {
		select {
		case ch <- msg:
		default:
			// Slow subscriber; drop and let the next full reload reconcile.
		}
	}
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// more than once.
func (b *Broadcaster) Unsubscribe(chatID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[chatID]
	if !ok {
		return
	}
	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	if len(subs) == 0 {
		delete(b.subscribers, chatID)
	}
	close(ch)
}

// Close tears down every subscription.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for chatID, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, chatID)
	}
}
