package notification

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing. The single mutex makes the
// owner-election read and the insert in Create atomic, which is the property
// production backends must provide with a transaction or unique constraint.
type MemoryStorage struct {
	mu       sync.RWMutex
	byID     map[string]*Notification
	byTarget map[string][]string // target key -> notification ids in creation order
}

// NewMemoryStorage creates a new in-memory notification storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byID:     make(map[string]*Notification),
		byTarget: make(map[string][]string),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, n *Notification) error {
	if n.Target.IsZero() {
		return ErrMissingTarget
	}
	if n.Notifiable.IsZero() {
		return ErrMissingNotifiable
	}
	if n.Key == "" {
		return ErrMissingKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	// Owner election under the same lock as the insert: find the most
	// recently created unopened owner of the same bundle tuple.
	if !n.Group.IsZero() {
		ids := s.byTarget[n.Target.String()]
		for i := len(ids) - 1; i >= 0; i-- {
			candidate := s.byID[ids[i]]
			if candidate.IsGroupOwner() && !candidate.IsOpened() &&
				candidate.Notifiable.Kind == n.Notifiable.Kind &&
				candidate.Key == n.Key &&
				candidate.Group.Equal(n.Group) {
				n.GroupOwnerID = candidate.ID
				break
			}
		}
	}

	stored := *n
	stored.Parameters = cloneParameters(n.Parameters)
	s.byID[n.ID] = &stored
	s.byTarget[n.Target.String()] = append(s.byTarget[n.Target.String()], n.ID)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.byID[id]
	if !ok {
		return nil, ErrNotificationNotFound
	}

	// Return a copy to prevent external mutation of stored data.
	out := *n
	out.Parameters = cloneParameters(n.Parameters)
	return &out, nil
}

func (s *MemoryStorage) List(ctx context.Context, target ref.Ref, opts ListOptions) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byTarget[target.String()]

	// Creation order is oldest first; walk backwards for newest first.
	filtered := make([]Notification, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		n := s.byID[ids[i]]
		if opts.OnlyUnopened && n.IsOpened() {
			continue
		}
		if opts.OwnersOnly && n.IsGroupMember() {
			continue
		}
		out := *n
		out.Parameters = cloneParameters(n.Parameters)
		filtered = append(filtered, out)
	}

	start := opts.Offset
	if start > len(filtered) {
		return []Notification{}, nil
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], nil
}

func (s *MemoryStorage) MarkOpened(ctx context.Context, id string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return 0, ErrNotificationNotFound
	}
	if !n.markOpened(at) {
		return 0, nil
	}
	return 1, nil
}

func (s *MemoryStorage) OpenMembers(ctx context.Context, ownerID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows int64
	for _, n := range s.byID {
		if n.GroupOwnerID == ownerID && n.markOpened(at) {
			rows++
		}
	}
	return rows, nil
}

func (s *MemoryStorage) UnopenedMemberCounts(ctx context.Context, target ref.Ref) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, id := range s.byTarget[target.String()] {
		n := s.byID[id]
		if n.IsGroupMember() && !n.IsOpened() {
			counts[n.GroupOwnerID]++
		}
	}
	return counts, nil
}

func (s *MemoryStorage) OpenedMemberCounts(ctx context.Context, target ref.Ref, limit int) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byTarget[target.String()]

	// The most recent `limit` opened owners define the window.
	window := make(map[string]bool, limit)
	for i := len(ids) - 1; i >= 0 && len(window) < limit; i-- {
		n := s.byID[ids[i]]
		if n.IsGroupOwner() && n.IsOpened() {
			window[n.ID] = true
		}
	}

	counts := make(map[string]int64)
	for _, id := range ids {
		n := s.byID[id]
		if n.IsGroupMember() && n.IsOpened() && window[n.GroupOwnerID] {
			counts[n.GroupOwnerID]++
		}
	}
	return counts, nil
}

func (s *MemoryStorage) CountUnopened(ctx context.Context, target ref.Ref) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, id := range s.byTarget[target.String()] {
		n := s.byID[id]
		if n.IsGroupOwner() && !n.IsOpened() {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) Delete(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		n, ok := s.byID[id]
		if !ok {
			continue
		}
		delete(s.byID, id)

		targetKey := n.Target.String()
		list := s.byTarget[targetKey]
		for i, other := range list {
			if other == id {
				s.byTarget[targetKey] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
	return nil
}

func cloneParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out
}
