package notification_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/callable"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// fakeEntity exposes a couple of callable methods the way a domain entity
// would when it backs a configured notifiable.
type fakeEntity struct {
	members []ref.Ref
	optIn   bool
}

func (e *fakeEntity) CallMethod(ctx context.Context, name string, args ...any) (any, error) {
	switch name {
	case "MemberRefs":
		return e.members, nil
	case "EmailOptIn":
		return e.optIn, nil
	default:
		return nil, fmt.Errorf("%w: %s", callable.ErrMethodNotFound, name)
	}
}

func TestConfiguredNotifiable_Defaults(t *testing.T) {
	ctx := context.Background()
	self := ref.New("invoice", "i-1")

	c := notification.NewConfiguredNotifiable(self)

	assert.Equal(t, self, c.Ref())
	assert.Equal(t, notification.DefaultKey, c.DefaultKey())

	targets, err := c.ResolveTargets(ctx, "user", "invoice.created")
	require.NoError(t, err)
	assert.Nil(t, targets)

	group, err := c.ResolveGroup(ctx, "user", "invoice.created")
	require.NoError(t, err)
	assert.True(t, group.IsZero())

	params, err := c.ResolveParameters(ctx, "user", "invoice.created")
	require.NoError(t, err)
	assert.Nil(t, params)

	// Unconfigured email gating allows delivery.
	allowed, err := c.EmailAllowed(ctx, ref.New("user", "u-1"), "invoice.created")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Empty(t, c.OptionalChannels("user", "invoice.created"))
}

func TestConfiguredNotifiable_Settings(t *testing.T) {
	ctx := context.Background()
	self := ref.New("invoice", "i-1")
	entity := &fakeEntity{
		members: []ref.Ref{ref.New("user", "u-1"), ref.New("user", "u-2")},
	}

	var closureKey string
	c := notification.NewConfiguredNotifiable(self,
		notification.WithDefaultKey("invoice.created"),
		notification.WithMethodReceiver(entity),
		notification.WithTargetSettings("user", notification.TargetSettings{
			Targets:  callable.MethodRef("MemberRefs"),
			Group:    callable.Literal(ref.New("project", "p-1")),
			Notifier: callable.Literal(ref.New("user", "author")),
			Parameters: callable.Closure(func(ctx context.Context, args ...any) (any, error) {
				closureKey, _ = args[0].(string)
				return map[string]any{"amount": 42}, nil
			}),
			EmailAllowed: callable.MethodRef("EmailOptIn"),
		}),
	)

	assert.Equal(t, "invoice.created", c.DefaultKey())

	targets, err := c.ResolveTargets(ctx, "user", "invoice.created")
	require.NoError(t, err)
	assert.Equal(t, entity.members, targets)

	group, err := c.ResolveGroup(ctx, "user", "invoice.created")
	require.NoError(t, err)
	assert.Equal(t, ref.New("project", "p-1"), group)

	notifier, err := c.ResolveNotifier(ctx, "user", "invoice.created")
	require.NoError(t, err)
	assert.Equal(t, ref.New("user", "author"), notifier)

	params, err := c.ResolveParameters(ctx, "user", "invoice.created")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"amount": 42}, params)
	assert.Equal(t, "invoice.created", closureKey)

	allowed, err := c.EmailAllowed(ctx, ref.New("user", "u-1"), "invoice.created")
	require.NoError(t, err)
	assert.False(t, allowed)

	entity.optIn = true
	allowed, err = c.EmailAllowed(ctx, ref.New("user", "u-1"), "invoice.created")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestConfiguredNotifiable_UnknownTargetKind(t *testing.T) {
	ctx := context.Background()

	c := notification.NewConfiguredNotifiable(ref.New("invoice", "i-1"),
		notification.WithTargetSettings("user", notification.TargetSettings{
			Targets: callable.Literal([]ref.Ref{ref.New("user", "u-1")}),
		}),
	)

	targets, err := c.ResolveTargets(ctx, "admin", "invoice.created")
	require.NoError(t, err)
	assert.Nil(t, targets)
}

func TestConfiguredNotifiable_MethodRefWithoutReceiver(t *testing.T) {
	ctx := context.Background()

	c := notification.NewConfiguredNotifiable(ref.New("invoice", "i-1"),
		notification.WithTargetSettings("user", notification.TargetSettings{
			Targets: callable.MethodRef("MemberRefs"),
		}),
	)

	_, err := c.ResolveTargets(ctx, "user", "invoice.created")
	assert.ErrorIs(t, err, callable.ErrNoReceiver)
}

func TestConfiguredNotifiable_WorksWithStore(t *testing.T) {
	ctx := context.Background()
	entity := &fakeEntity{members: []ref.Ref{ref.New("user", "u-1")}}

	c := notification.NewConfiguredNotifiable(ref.New("invoice", "i-1"),
		notification.WithDefaultKey("invoice.created"),
		notification.WithMethodReceiver(entity),
		notification.WithTargetSettings("user", notification.TargetSettings{
			Group:      callable.Literal(ref.New("project", "p-1")),
			Parameters: callable.Literal(map[string]any{"amount": 42}),
		}),
	)

	store := notification.NewStore(notification.NewMemoryStorage())
	n, err := store.Create(ctx, ref.New("user", "u-1"), c)
	require.NoError(t, err)

	assert.Equal(t, "invoice.created", n.Key)
	assert.Equal(t, ref.New("project", "p-1"), n.Group)
	assert.Equal(t, map[string]any{"amount": 42}, n.Parameters)
}
