// Package notify fans rerender requests out to connected clients.
// The session calls RequestRerender after every change it applies; each
// open event stream holds a subscription.
package notify

import "sync"

// Broadcaster coalesces rerender requests per subscriber: every channel has
// room for one pending signal, and a request that finds it full is dropped
// because the subscriber will re-read the whole document anyway.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan struct{})}
}

// RequestRerender signals every subscriber. It never blocks.
func (b *Broadcaster) RequestRerender() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a channel that receives a value after each rerender
// request, and a cancel func that closes it. cancel is idempotent.
func (b *Broadcaster) Subscribe() (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers reports how many subscriptions are open.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
