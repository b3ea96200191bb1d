package notification

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// DefaultKey is used when neither the caller nor the notifiable names a key.
const DefaultKey = "default.default"

// Notifiable is the contract a subject entity exposes to the notification
// system. The domain model owns the implementation; this library only reads
// from it and never mutates the entity behind it.
//
// The targetKind argument selects which recipient population a resolution
// applies to, so one subject can notify, say, both "user" and "admin"
// audiences with different grouping and parameters.
type Notifiable interface {
	// Ref identifies the subject entity.
	Ref() ref.Ref

	// DefaultKey returns the key used when the caller does not pass one.
	DefaultKey() string

	// ResolveTargets returns the candidate recipients for the kind and key.
	ResolveTargets(ctx context.Context, targetKind, key string) ([]ref.Ref, error)

	// ResolveGroup returns the bundling entity, or a zero ref for no bundling.
	ResolveGroup(ctx context.Context, targetKind, key string) (ref.Ref, error)

	// ResolveNotifier returns the entity credited as the cause of the
	// notification, or a zero ref.
	ResolveNotifier(ctx context.Context, targetKind, key string) (ref.Ref, error)

	// ResolveParameters returns additional payload merged into each created
	// notification.
	ResolveParameters(ctx context.Context, targetKind, key string) (map[string]any, error)

	// EmailAllowed reports whether email delivery is permitted for the target.
	EmailAllowed(ctx context.Context, target ref.Ref, key string) (bool, error)

	// OptionalChannels returns the out-of-band channels configured for the
	// kind and key.
	OptionalChannels(targetKind, key string) []Channel
}

// TargetStreamer is an optional extension of Notifiable for subjects with
// target populations too large to materialize as one slice. When implemented,
// the dispatcher streams targets through fn instead of calling ResolveTargets.
type TargetStreamer interface {
	StreamTargets(ctx context.Context, targetKind, key string, fn func(ref.Ref) error) error
}

// Channel is a named out-of-band delivery mechanism (chat, SMS, push) beyond
// the primary in-app and email paths.
type Channel interface {
	Name() string
	Notify(ctx context.Context, n Notification, options map[string]any) error
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc struct {
	ChannelName string
	Fn          func(ctx context.Context, n Notification, options map[string]any) error
}

func (c ChannelFunc) Name() string { return c.ChannelName }

func (c ChannelFunc) Notify(ctx context.Context, n Notification, options map[string]any) error {
	return c.Fn(ctx, n, options)
}

// NotifiableResolver materializes the Notifiable behind a stored reference.
// Cascade firing happens long after the originating call returned, so the
// subject must be reloadable from its (kind, id) pair alone.
type NotifiableResolver interface {
	ResolveNotifiable(ctx context.Context, r ref.Ref) (Notifiable, error)
}

// RegistryResolver resolves notifiables through a ref.Registry whose loaders
// return entities implementing Notifiable.
type RegistryResolver struct {
	registry *ref.Registry
}

// NewRegistryResolver creates a resolver over the given registry.
func NewRegistryResolver(registry *ref.Registry) *RegistryResolver {
	return &RegistryResolver{registry: registry}
}

func (r *RegistryResolver) ResolveNotifiable(ctx context.Context, rf ref.Ref) (Notifiable, error) {
	entity, err := r.registry.Load(ctx, rf)
	if err != nil {
		return nil, err
	}

	notifiable, ok := entity.(Notifiable)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrNotNotifiable, rf, entity)
	}
	return notifiable, nil
}
