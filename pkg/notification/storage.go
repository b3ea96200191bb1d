package notification

import (
	"context"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// Storage handles notification persistence and the grouping queries the feed
// depends on.
type Storage interface {
	// Create persists a new notification and performs group-owner election
	// atomically with the write: when n.Group is non-zero and an unopened
	// owner already exists for (target, notifiable kind, key, group), the
	// implementation sets n.GroupOwnerID to that owner's id before storing.
	// The lookup and the insert must share one lock or transaction so two
	// concurrent writers cannot both become owners of the same bundle.
	Create(ctx context.Context, n *Notification) error

	// Get retrieves a notification by id, returning ErrNotificationNotFound
	// when it does not exist.
	Get(ctx context.Context, id string) (*Notification, error)

	// List returns notifications for a target, newest first.
	List(ctx context.Context, target ref.Ref, opts ListOptions) ([]Notification, error)

	// MarkOpened stamps OpenedAt on a single notification. Returns the number
	// of rows updated: zero when the notification was already opened.
	MarkOpened(ctx context.Context, id string, at time.Time) (int64, error)

	// OpenMembers bulk-stamps OpenedAt on every unopened member of the owner
	// in a single update. Returns the number of rows updated.
	OpenMembers(ctx context.Context, ownerID string, at time.Time) (int64, error)

	// UnopenedMemberCounts returns member counts grouped by owner id across
	// all currently-unopened members for the target, in one aggregate query.
	UnopenedMemberCounts(ctx context.Context, target ref.Ref) (map[string]int64, error)

	// OpenedMemberCounts returns opened-member counts grouped by owner id,
	// scoped to the target's most recently created `limit` opened owners.
	OpenedMemberCounts(ctx context.Context, target ref.Ref, limit int) (map[string]int64, error)

	// CountUnopened returns the number of unopened bundle owners for the
	// target, i.e. the feed badge count.
	CountUnopened(ctx context.Context, target ref.Ref) (int, error)

	// Delete removes notifications by id. Missing ids are ignored so
	// retention sweeps can be replayed.
	Delete(ctx context.Context, ids ...string) error
}

// ListOptions provides filtering and pagination options for feed listings.
type ListOptions struct {
	Limit        int  // Maximum number of notifications to return (0 = no limit)
	Offset       int  // Number of notifications to skip for pagination
	OnlyUnopened bool // When true, only return unopened notifications
	OwnersOnly   bool // When true, exclude group members (the usual feed view)
}
