package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/dispatch"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/queue"
	"github.com/dmitrymomot/notifykit/pkg/ref"
	"github.com/dmitrymomot/notifykit/pkg/subscription"
)

// fakeNotifiable is a minimal Notifiable for dispatcher tests.
type fakeNotifiable struct {
	self    ref.Ref
	key     string
	targets []ref.Ref
	email   bool
	stream  bool
}

func (f *fakeNotifiable) Ref() ref.Ref       { return f.self }
func (f *fakeNotifiable) DefaultKey() string { return f.key }

func (f *fakeNotifiable) ResolveTargets(ctx context.Context, targetKind, key string) ([]ref.Ref, error) {
	return f.targets, nil
}

func (f *fakeNotifiable) ResolveGroup(ctx context.Context, targetKind, key string) (ref.Ref, error) {
	return ref.Ref{}, nil
}

func (f *fakeNotifiable) ResolveNotifier(ctx context.Context, targetKind, key string) (ref.Ref, error) {
	return ref.Ref{}, nil
}

func (f *fakeNotifiable) ResolveParameters(ctx context.Context, targetKind, key string) (map[string]any, error) {
	return nil, nil
}

func (f *fakeNotifiable) EmailAllowed(ctx context.Context, target ref.Ref, key string) (bool, error) {
	return f.email, nil
}

func (f *fakeNotifiable) OptionalChannels(targetKind, key string) []notification.Channel {
	return nil
}

// streamingNotifiable adds the streaming extension on top of fakeNotifiable.
type streamingNotifiable struct {
	fakeNotifiable
}

func (s *streamingNotifiable) StreamTargets(ctx context.Context, targetKind, key string, fn func(ref.Ref) error) error {
	s.stream = true
	for _, target := range s.targets {
		if err := fn(target); err != nil {
			return err
		}
	}
	return nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	payloads []any
	err      error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

type fakeDeliverer struct {
	sent []notification.Notification
	err  error
}

func (f *fakeDeliverer) Send(ctx context.Context, n notification.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func newFakeInvoice(targets ...ref.Ref) *fakeNotifiable {
	return &fakeNotifiable{
		self:    ref.New("invoice", "i-1"),
		key:     "invoice.created",
		targets: targets,
		email:   true,
	}
}

func TestDispatcher_Notify(t *testing.T) {
	ctx := context.Background()
	u1 := ref.New("user", "u-1")
	u2 := ref.New("user", "u-2")

	t.Run("one record per target plus queued email", func(t *testing.T) {
		enqueuer := &fakeEnqueuer{}
		storage := notification.NewMemoryStorage()
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(storage),
			dispatch.WithEnqueuer(enqueuer),
		)

		created, err := dispatcher.Notify(ctx, "user", newFakeInvoice(u1, u2))
		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, u1, created[0].Target)
		assert.Equal(t, u2, created[1].Target)

		require.Len(t, enqueuer.payloads, 2)
		task, ok := enqueuer.payloads[0].(dispatch.EmailDeliveryTask)
		require.True(t, ok)
		assert.Equal(t, created[0].ID, task.NotificationID)
	})

	t.Run("empty target list is a no-op", func(t *testing.T) {
		enqueuer := &fakeEnqueuer{}
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(notification.NewMemoryStorage()),
			dispatch.WithEnqueuer(enqueuer),
		)

		created, err := dispatcher.Notify(ctx, "user", newFakeInvoice())
		require.NoError(t, err)
		assert.Empty(t, created)
		assert.Empty(t, enqueuer.payloads)
	})

	t.Run("streaming notifiable bypasses list resolution", func(t *testing.T) {
		invoice := &streamingNotifiable{fakeNotifiable: *newFakeInvoice(u1, u2)}
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(notification.NewMemoryStorage()),
		)

		created, err := dispatcher.Notify(ctx, "user", invoice, dispatch.WithoutEmail())
		require.NoError(t, err)
		assert.Len(t, created, 2)
		assert.True(t, invoice.stream)
	})

	t.Run("notify all fans out over explicit targets", func(t *testing.T) {
		enqueuer := &fakeEnqueuer{}
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(notification.NewMemoryStorage()),
			dispatch.WithEnqueuer(enqueuer),
		)

		admin := ref.New("admin", "a-1")
		created, err := dispatcher.NotifyAll(ctx, []ref.Ref{u1, u2, admin}, newFakeInvoice())
		require.NoError(t, err)
		require.Len(t, created, 3)
		assert.Equal(t, u1, created[0].Target)
		assert.Equal(t, u2, created[1].Target)
		assert.Equal(t, admin, created[2].Target)
		assert.Len(t, enqueuer.payloads, 3)
	})
}

func TestDispatcher_EmailGating(t *testing.T) {
	ctx := context.Background()
	target := ref.New("user", "u-1")

	t.Run("without email skips delivery entirely", func(t *testing.T) {
		enqueuer := &fakeEnqueuer{}
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(notification.NewMemoryStorage()),
			dispatch.WithEnqueuer(enqueuer),
		)

		_, err := dispatcher.NotifyTo(ctx, target, newFakeInvoice(), dispatch.WithoutEmail())
		require.NoError(t, err)
		assert.Empty(t, enqueuer.payloads)
	})

	t.Run("notifiable veto blocks email", func(t *testing.T) {
		enqueuer := &fakeEnqueuer{}
		invoice := newFakeInvoice()
		invoice.email = false
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(notification.NewMemoryStorage()),
			dispatch.WithEnqueuer(enqueuer),
		)

		n, err := dispatcher.NotifyTo(ctx, target, invoice)
		require.NoError(t, err)
		assert.NotNil(t, n)
		assert.Empty(t, enqueuer.payloads)
	})

	t.Run("subscription opt-out blocks email", func(t *testing.T) {
		subStorage := subscription.NewMemoryStorage()
		require.NoError(t, subStorage.Upsert(ctx, &subscription.Subscription{
			Target: target, Key: "invoice.created",
			Subscribing: true, SubscribingToEmail: false,
		}))

		enqueuer := &fakeEnqueuer{}
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(notification.NewMemoryStorage()),
			dispatch.WithEnqueuer(enqueuer),
			dispatch.WithSubscriptions(subscription.NewResolver(subStorage)),
		)

		_, err := dispatcher.NotifyTo(ctx, target, newFakeInvoice())
		require.NoError(t, err)
		assert.Empty(t, enqueuer.payloads)
	})

	t.Run("unconfigured subscription follows the call default", func(t *testing.T) {
		enqueuer := &fakeEnqueuer{}
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(notification.NewMemoryStorage()),
			dispatch.WithEnqueuer(enqueuer),
			dispatch.WithSubscriptions(subscription.NewResolver(subscription.NewMemoryStorage())),
		)

		_, err := dispatcher.NotifyTo(ctx, target, newFakeInvoice())
		require.NoError(t, err)
		assert.Len(t, enqueuer.payloads, 1)

		_, err = dispatcher.NotifyTo(ctx, target, newFakeInvoice(),
			dispatch.WithEmailSubscriptionDefault(false))
		require.NoError(t, err)
		assert.Len(t, enqueuer.payloads, 1)
	})

	t.Run("sync email sends in process", func(t *testing.T) {
		enqueuer := &fakeEnqueuer{}
		deliverer := &fakeDeliverer{}
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(notification.NewMemoryStorage()),
			dispatch.WithEnqueuer(enqueuer),
			dispatch.WithEmailDeliverer(deliverer),
		)

		n, err := dispatcher.NotifyTo(ctx, target, newFakeInvoice(), dispatch.WithSyncEmail())
		require.NoError(t, err)
		assert.Empty(t, enqueuer.payloads)
		require.Len(t, deliverer.sent, 1)
		assert.Equal(t, n.ID, deliverer.sent[0].ID)
	})

	t.Run("email failure leaves the record in place", func(t *testing.T) {
		storage := notification.NewMemoryStorage()
		deliverer := &fakeDeliverer{err: errors.New("smtp down")}
		dispatcher := dispatch.NewDispatcher(
			notification.NewStore(storage),
			dispatch.WithEmailDeliverer(deliverer),
		)

		n, err := dispatcher.NotifyTo(ctx, target, newFakeInvoice(), dispatch.WithSyncEmail())
		require.Error(t, err)
		require.NotNil(t, n)

		stored, err := storage.Get(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.ID, stored.ID)
	})
}

func TestEmailDeliveryHandler(t *testing.T) {
	ctx := context.Background()
	target := ref.New("user", "u-1")

	t.Run("reloads and delivers", func(t *testing.T) {
		storage := notification.NewMemoryStorage()
		store := notification.NewStore(storage)
		n, err := store.Create(ctx, target, newFakeInvoice())
		require.NoError(t, err)

		deliverer := &fakeDeliverer{}
		handler := dispatch.NewEmailDeliveryHandler(storage, deliverer, nil)

		payload, err := json.Marshal(dispatch.EmailDeliveryTask{NotificationID: n.ID})
		require.NoError(t, err)
		require.NoError(t, handler.Handle(ctx, payload))

		require.Len(t, deliverer.sent, 1)
		assert.Equal(t, n.ID, deliverer.sent[0].ID)
	})

	t.Run("missing notification is a no-op", func(t *testing.T) {
		deliverer := &fakeDeliverer{}
		handler := dispatch.NewEmailDeliveryHandler(notification.NewMemoryStorage(), deliverer, nil)

		payload, err := json.Marshal(dispatch.EmailDeliveryTask{NotificationID: "ghost"})
		require.NoError(t, err)
		require.NoError(t, handler.Handle(ctx, payload))
		assert.Empty(t, deliverer.sent)
	})

	t.Run("handler name pairs with the enqueued payload", func(t *testing.T) {
		handler := dispatch.NewEmailDeliveryHandler(notification.NewMemoryStorage(), &fakeDeliverer{}, nil)
		assert.Equal(t, "dispatch.EmailDeliveryTask", handler.Name())
	})
}
