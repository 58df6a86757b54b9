// Package feed turns store writes into full-snapshot pushes. A Hub wraps the
// assignment repository; every successful write signals the owner's
// subscribers, which reload and receive the owner's complete set.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jaekwang-park/homework-api/internal/model"
	"github.com/jaekwang-park/homework-api/internal/repository"
)

// Snapshot is the owner's full assignment set at one point in time. Err is
// set instead when the reload failed.
type Snapshot struct {
	OwnerID     string
	Assignments []model.Assignment
	Err         error
}

type Hub struct {
	repository.AssignmentRepository
	notifier Notifier
	logger   *slog.Logger

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub(repo repository.AssignmentRepository, notifier Notifier, logger *slog.Logger) *Hub {
	return &Hub{
		AssignmentRepository: repo,
		notifier:             notifier,
		logger:               logger,
		subs:                 make(map[string]map[*Subscription]struct{}),
	}
}

// Start begins receiving change signals. Signals stop when ctx is done.
func (h *Hub) Start(ctx context.Context) error {
	return h.notifier.Listen(ctx, h.dispatch)
}

func (h *Hub) Create(ctx context.Context, a model.Assignment) (model.Assignment, error) {
	created, err := h.AssignmentRepository.Create(ctx, a)
	if err != nil {
		return model.Assignment{}, err
	}
	h.changed(ctx, created.OwnerID)
	return created, nil
}

func (h *Hub) Update(ctx context.Context, ownerID, id string, patch model.AssignmentPatch) (model.Assignment, error) {
	updated, err := h.AssignmentRepository.Update(ctx, ownerID, id, patch)
	if err != nil {
		return model.Assignment{}, err
	}
	h.changed(ctx, ownerID)
	return updated, nil
}

func (h *Hub) Delete(ctx context.Context, ownerID, id string) error {
	if err := h.AssignmentRepository.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	h.changed(ctx, ownerID)
	return nil
}

// changed never fails the write that triggered it; a lost signal only delays
// the next snapshot.
func (h *Hub) changed(ctx context.Context, ownerID string) {
	if err := h.notifier.Publish(ctx, ownerID); err != nil {
		h.logger.Warn("failed to publish snapshot change", "owner_id", ownerID, "error", err)
	}
}

func (h *Hub) dispatch(ownerID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ownerID] {
		sub.markDirty()
	}
}

// Subscribe returns a subscription whose channel already holds the owner's
// current set. The subscription ends when ctx is done or Close is called.
//
// The subscription is registered before the initial load, so a write that
// commits during the load marks it dirty and run reloads once more.
func (h *Hub) Subscribe(ctx context.Context, ownerID string) (*Subscription, error) {
	sub := &Subscription{
		hub:   h,
		owner: ownerID,
		dirty: make(chan struct{}, 1),
		out:   make(chan Snapshot, 1),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[*Subscription]struct{})
	}
	h.subs[ownerID][sub] = struct{}{}
	count := len(h.subs[ownerID])
	h.mu.Unlock()

	initial, err := h.AssignmentRepository.ListByOwner(ctx, ownerID)
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to load initial snapshot: %w", err)
	}
	sub.out <- Snapshot{OwnerID: ownerID, Assignments: initial}

	h.logger.Debug("snapshot subscription opened", "owner_id", ownerID, "subscribers", count)

	go sub.run(ctx)
	return sub, nil
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs[sub.owner], sub)
	if len(h.subs[sub.owner]) == 0 {
		delete(h.subs, sub.owner)
	}
	h.mu.Unlock()

	h.logger.Debug("snapshot subscription closed", "owner_id", sub.owner)
}

// Subscribers reports the number of open subscriptions for ownerID.
func (h *Hub) Subscribers(ownerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ownerID])
}

// Subscription delivers snapshots for one owner. Only the latest undelivered
// snapshot is kept: a slow reader skips intermediate states.
type Subscription struct {
	hub   *Hub
	owner string
	dirty chan struct{}
	out   chan Snapshot
	done  chan struct{}
	once  sync.Once
}

// C is closed after the subscription ends.
func (s *Subscription) C() <-chan Snapshot {
	return s.out
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.hub.remove(s)
	})
}

func (s *Subscription) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.out)
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-s.done:
			return
		case <-s.dirty:
			s.deliver(s.load(ctx))
		}
	}
}

func (s *Subscription) load(ctx context.Context) Snapshot {
	list, err := s.hub.AssignmentRepository.ListByOwner(ctx, s.owner)
	if err != nil {
		s.hub.logger.Error("failed to reload snapshot", "owner_id", s.owner, "error", err)
		return Snapshot{OwnerID: s.owner, Err: err}
	}
	return Snapshot{OwnerID: s.owner, Assignments: list}
}

func (s *Subscription) deliver(snap Snapshot) {
	// run is the only sender, so after dropping a stale value there is room.
	select {
	case <-s.out:
	default:
	}
	select {
	case s.out <- snap:
	case <-s.done:
	}
}
