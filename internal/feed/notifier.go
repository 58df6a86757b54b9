package feed

import (
	"context"
	"sync"
)

// Notifier carries "owner X changed" signals between store writers and the
// hubs holding subscriptions. Payloads are owner ids only; subscribers always
// reload the full set.
type Notifier interface {
	Publish(ctx context.Context, ownerID string) error
	// Listen registers fn and returns once delivery is established. fn is
	// invoked until ctx is done and must not block.
	Listen(ctx context.Context, fn func(ownerID string)) error
}

// LocalNotifier delivers signals within the process.
type LocalNotifier struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]func(string)
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{handlers: make(map[int]func(string))}
}

func (n *LocalNotifier) Publish(_ context.Context, ownerID string) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, fn := range n.handlers {
		fn(ownerID)
	}
	return nil
}

func (n *LocalNotifier) Listen(ctx context.Context, fn func(string)) error {
	n.mu.Lock()
	id := n.next
	n.next++
	n.handlers[id] = fn
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.handlers, id)
		n.mu.Unlock()
	}()
	return nil
}

var _ Notifier = (*LocalNotifier)(nil)
