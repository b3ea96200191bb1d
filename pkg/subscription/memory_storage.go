package subscription

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]*Subscription
}

// NewMemoryStorage creates a new in-memory subscription storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*Subscription),
	}
}

func recordKey(target ref.Ref, key string) string {
	return target.String() + "|" + key
}

func (s *MemoryStorage) Get(ctx context.Context, target ref.Ref, key string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.records[recordKey(target, key)]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return sub.clone(), nil
}

func (s *MemoryStorage) Upsert(ctx context.Context, sub *Subscription) error {
	if sub.Target.IsZero() {
		return ErrMissingTarget
	}
	if sub.Key == "" {
		return ErrMissingKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[recordKey(sub.Target, sub.Key)] = sub.clone()
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, target ref.Ref, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, recordKey(target, key))
	return nil
}

func (s *MemoryStorage) List(ctx context.Context, target ref.Ref) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := target.String() + "|"
	out := make([]Subscription, 0)
	for key, sub := range s.records {
		if strings.HasPrefix(key, prefix) {
			out = append(out, *sub.clone())
		}
	}
	return out, nil
}
