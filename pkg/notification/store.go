package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// Store creates notifications with bundling, opens them (cascading the open
// state to bundle members), and answers member-count queries without issuing
// one count per displayed notification.
type Store struct {
	storage Storage
	logger  *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger for the Store.
func WithStoreLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewStore creates a notification store over the given storage backend.
func NewStore(storage Storage, opts ...StoreOption) *Store {
	s := &Store{
		storage: storage,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Storage returns the underlying notification storage.
func (s *Store) Storage() Storage {
	return s.storage
}

// CreateOption customizes a single notification creation.
type CreateOption func(*createOptions)

type createOptions struct {
	key        string
	group      ref.Ref
	groupSet   bool
	notifier   ref.Ref
	parameters map[string]any
	extra      map[string]any
}

// WithKey sets the notification key, overriding the notifiable's default.
func WithKey(key string) CreateOption {
	return func(o *createOptions) {
		if key != "" {
			o.key = key
		}
	}
}

// WithGroup sets the bundling entity explicitly, bypassing the notifiable's
// group resolution. A zero ref disables bundling.
func WithGroup(group ref.Ref) CreateOption {
	return func(o *createOptions) {
		o.group = group
		o.groupSet = true
	}
}

// WithNotifier sets the entity credited as the cause of the notification.
func WithNotifier(notifier ref.Ref) CreateOption {
	return func(o *createOptions) {
		o.notifier = notifier
	}
}

// WithParameters merges an explicit parameter map over the notifiable's
// resolved parameters.
func WithParameters(params map[string]any) CreateOption {
	return func(o *createOptions) {
		o.parameters = params
	}
}

// WithParameter merges a single extra parameter. Extras are applied last and
// win over both resolved and explicit parameter maps.
func WithParameter(key string, value any) CreateOption {
	return func(o *createOptions) {
		if o.extra == nil {
			o.extra = make(map[string]any)
		}
		o.extra[key] = value
	}
}

// Create resolves the notification ingredients from the notifiable and the
// options, then persists the record. Bundling follows the
// most-recent-open-owner rule: while an unopened owner exists for the same
// (target, notifiable kind, key, group), new notifications attach to it as
// members; once that owner is opened, the next notification starts a fresh
// bundle. Owner election happens atomically inside Storage.Create.
func (s *Store) Create(ctx context.Context, target ref.Ref, notifiable Notifiable, opts ...CreateOption) (*Notification, error) {
	if target.IsZero() {
		return nil, ErrMissingTarget
	}
	if notifiable == nil || notifiable.Ref().IsZero() {
		return nil, ErrMissingNotifiable
	}

	options := &createOptions{}
	for _, opt := range opts {
		opt(options)
	}

	key := options.key
	if key == "" {
		key = notifiable.DefaultKey()
	}
	if key == "" {
		return nil, ErrMissingKey
	}

	group := options.group
	if !options.groupSet {
		resolved, err := notifiable.ResolveGroup(ctx, target.Kind, key)
		if err != nil {
			return nil, fmt.Errorf("resolving group: %w", err)
		}
		group = resolved
	}

	notifier := options.notifier
	if notifier.IsZero() {
		resolved, err := notifiable.ResolveNotifier(ctx, target.Kind, key)
		if err != nil {
			return nil, fmt.Errorf("resolving notifier: %w", err)
		}
		notifier = resolved
	}

	resolved, err := notifiable.ResolveParameters(ctx, target.Kind, key)
	if err != nil {
		return nil, fmt.Errorf("resolving parameters: %w", err)
	}
	parameters := mergeParameters(resolved, options.parameters, options.extra)

	n := &Notification{
		ID:         uuid.New().String(),
		Target:     target,
		Notifiable: notifiable.Ref(),
		Key:        key,
		Group:      group,
		Notifier:   notifier,
		Parameters: parameters,
		CreatedAt:  time.Now(),
	}

	if err := s.storage.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to store notification: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "stored notification",
		logger.NotificationID(n.ID),
		logger.Target(n.Target),
		logger.Key(n.Key),
		slog.Bool("group_member", n.IsGroupMember()),
	)

	return n, nil
}

// OpenOption customizes an open operation.
type OpenOption func(*openOptions)

type openOptions struct {
	at             time.Time
	includeMembers bool
}

// WithOpenedAt sets the open timestamp; defaults to now.
func WithOpenedAt(at time.Time) OpenOption {
	return func(o *openOptions) {
		if !at.IsZero() {
			o.at = at
		}
	}
}

// WithoutMembers opens only the notification itself, leaving bundle members
// unopened.
func WithoutMembers() OpenOption {
	return func(o *openOptions) {
		o.includeMembers = false
	}
}

// Open marks the notification as read and, when it owns a bundle, bulk-opens
// every still-unopened member in one update. Returns the total number of rows
// affected; opening an already-opened notification affects zero rows for the
// record itself.
func (s *Store) Open(ctx context.Context, n *Notification, opts ...OpenOption) (int64, error) {
	options := &openOptions{
		at:             time.Now(),
		includeMembers: true,
	}
	for _, opt := range opts {
		opt(options)
	}

	rows, err := s.storage.MarkOpened(ctx, n.ID, options.at)
	if err != nil {
		return 0, fmt.Errorf("marking notification opened: %w", err)
	}

	if options.includeMembers && n.IsGroupOwner() {
		memberRows, err := s.storage.OpenMembers(ctx, n.ID, options.at)
		if err != nil {
			return rows, fmt.Errorf("opening group members: %w", err)
		}
		rows += memberRows
	}

	if rows > 0 {
		n.markOpened(options.at)
	}

	return rows, nil
}

// MemberCount returns the number of members bundled under the notification's
// owner. A member resolves to its owner first. The count comes from a single
// aggregate query spanning the whole index window (all unopened members for
// the target, or the most recent limit opened owners), so listing N bundles
// costs one query, not N.
func (s *Store) MemberCount(ctx context.Context, n *Notification, limit int) (int64, error) {
	owner := n
	if n.IsGroupMember() {
		var err error
		owner, err = s.storage.Get(ctx, n.GroupOwnerID)
		if err != nil {
			if errors.Is(err, ErrNotificationNotFound) {
				return 0, nil
			}
			return 0, fmt.Errorf("resolving group owner: %w", err)
		}
	}

	var (
		counts map[string]int64
		err    error
	)
	if owner.IsOpened() {
		counts, err = s.storage.OpenedMemberCounts(ctx, owner.Target, limit)
	} else {
		counts, err = s.storage.UnopenedMemberCounts(ctx, owner.Target)
	}
	if err != nil {
		return 0, fmt.Errorf("aggregating member counts: %w", err)
	}

	return counts[owner.ID], nil
}

// mergeParameters layers the maps so later sources win: notifiable-resolved
// parameters, then the explicit map, then single extras.
func mergeParameters(maps ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return merged
}
