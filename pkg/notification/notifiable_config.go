package notification

import (
	"context"

	"github.com/dmitrymomot/notifykit/pkg/callable"
	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// TargetSettings declares, for one target kind, how a configured notifiable
// resolves its notification ingredients. Every field is a callable value so
// applications can mix constants with computed settings:
//
//	notification.TargetSettings{
//	    Targets: callable.Closure(func(ctx context.Context, args ...any) (any, error) {
//	        return project.MemberRefs(ctx)
//	    }),
//	    Group:        callable.Literal(projectRef),
//	    EmailAllowed: callable.MethodRef("EmailOptIn"),
//	}
//
// Resolution args are positional: targets/group/notifier/parameters receive
// (key); EmailAllowed receives (target, key).
type TargetSettings struct {
	Targets      callable.Value // resolves to []ref.Ref
	Group        callable.Value // resolves to ref.Ref
	Notifier     callable.Value // resolves to ref.Ref
	Parameters   callable.Value // resolves to map[string]any
	EmailAllowed callable.Value // resolves to bool; unset means allowed
	Channels     []Channel
}

// ConfiguredNotifiable implements Notifiable from declarative per-target-kind
// settings. It is the bridge between domain entities and the notification
// system for applications that prefer configuration over a hand-written
// Notifiable implementation.
type ConfiguredNotifiable struct {
	self       ref.Ref
	defaultKey string
	receiver   callable.MethodReceiver
	settings   map[string]TargetSettings
}

// ConfiguredOption configures a ConfiguredNotifiable.
type ConfiguredOption func(*ConfiguredNotifiable)

// WithTargetSettings binds settings to a target kind.
func WithTargetSettings(targetKind string, settings TargetSettings) ConfiguredOption {
	return func(c *ConfiguredNotifiable) {
		c.settings[targetKind] = settings
	}
}

// WithDefaultKey overrides the key used when callers pass none.
func WithDefaultKey(key string) ConfiguredOption {
	return func(c *ConfiguredNotifiable) {
		if key != "" {
			c.defaultKey = key
		}
	}
}

// WithMethodReceiver sets the receiver that method-reference settings dispatch
// against, usually the domain entity itself.
func WithMethodReceiver(receiver callable.MethodReceiver) ConfiguredOption {
	return func(c *ConfiguredNotifiable) {
		c.receiver = receiver
	}
}

// NewConfiguredNotifiable builds a Notifiable for the entity identified by
// self.
func NewConfiguredNotifiable(self ref.Ref, opts ...ConfiguredOption) *ConfiguredNotifiable {
	c := &ConfiguredNotifiable{
		self:       self,
		defaultKey: DefaultKey,
		settings:   make(map[string]TargetSettings),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ConfiguredNotifiable) Ref() ref.Ref { return c.self }

func (c *ConfiguredNotifiable) DefaultKey() string { return c.defaultKey }

func (c *ConfiguredNotifiable) ResolveTargets(ctx context.Context, targetKind, key string) ([]ref.Ref, error) {
	settings, ok := c.settings[targetKind]
	if !ok || settings.Targets.IsZero() {
		return nil, nil
	}
	return callable.ResolveAs[[]ref.Ref](ctx, settings.Targets, c.receiver, key)
}

func (c *ConfiguredNotifiable) ResolveGroup(ctx context.Context, targetKind, key string) (ref.Ref, error) {
	settings, ok := c.settings[targetKind]
	if !ok || settings.Group.IsZero() {
		return ref.Ref{}, nil
	}
	return callable.ResolveAs[ref.Ref](ctx, settings.Group, c.receiver, key)
}

func (c *ConfiguredNotifiable) ResolveNotifier(ctx context.Context, targetKind, key string) (ref.Ref, error) {
	settings, ok := c.settings[targetKind]
	if !ok || settings.Notifier.IsZero() {
		return ref.Ref{}, nil
	}
	return callable.ResolveAs[ref.Ref](ctx, settings.Notifier, c.receiver, key)
}

func (c *ConfiguredNotifiable) ResolveParameters(ctx context.Context, targetKind, key string) (map[string]any, error) {
	settings, ok := c.settings[targetKind]
	if !ok || settings.Parameters.IsZero() {
		return nil, nil
	}
	return callable.ResolveAs[map[string]any](ctx, settings.Parameters, c.receiver, key)
}

// EmailAllowed defaults to true when no setting is configured: email gating
// belongs to subscriptions, the notifiable-level flag is an extra veto.
func (c *ConfiguredNotifiable) EmailAllowed(ctx context.Context, target ref.Ref, key string) (bool, error) {
	settings, ok := c.settings[target.Kind]
	if !ok || settings.EmailAllowed.IsZero() {
		return true, nil
	}
	return callable.ResolveAs[bool](ctx, settings.EmailAllowed, c.receiver, target, key)
}

func (c *ConfiguredNotifiable) OptionalChannels(targetKind, key string) []Channel {
	return c.settings[targetKind].Channels
}
