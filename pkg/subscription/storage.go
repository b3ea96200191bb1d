package subscription

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// Storage is the persistence contract for subscription records.
type Storage interface {
	// Get loads the record for (target, key). Returns
	// ErrSubscriptionNotFound when no record exists; absence is meaningful
	// and the caller decides what it resolves to.
	Get(ctx context.Context, target ref.Ref, key string) (*Subscription, error)

	// Upsert stores the record, replacing any existing one for the same
	// (target, key).
	Upsert(ctx context.Context, sub *Subscription) error

	// Delete removes the record for (target, key). Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, target ref.Ref, key string) error

	// List returns all records for the target.
	List(ctx context.Context, target ref.Ref) ([]Subscription, error)
}
