package notification_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/ref"
)

func newSQLiteStorage(t *testing.T) *notification.SQLiteStorage {
	t.Helper()

	storage, err := notification.NewSQLiteStorage(filepath.Join(t.TempDir(), "notifications.db"))
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSQLiteStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStorage(t)
	target := ref.New("user", "u-1")

	t.Run("round trips all fields", func(t *testing.T) {
		n := makeNotification("n-1", target, ref.New("project", "p-1"))
		n.Notifier = ref.New("user", "author")
		n.Parameters = map[string]any{"amount": "42"}
		require.NoError(t, storage.Create(ctx, n))

		loaded, err := storage.Get(ctx, "n-1")
		require.NoError(t, err)
		assert.Equal(t, n.Target, loaded.Target)
		assert.Equal(t, n.Notifiable, loaded.Notifiable)
		assert.Equal(t, n.Key, loaded.Key)
		assert.Equal(t, n.Group, loaded.Group)
		assert.Equal(t, n.Notifier, loaded.Notifier)
		assert.Equal(t, map[string]any{"amount": "42"}, loaded.Parameters)
		assert.True(t, loaded.IsGroupOwner())
		assert.False(t, loaded.IsOpened())
	})

	t.Run("validates required fields", func(t *testing.T) {
		err := storage.Create(ctx, &notification.Notification{ID: "x"})
		assert.ErrorIs(t, err, notification.ErrMissingTarget)
	})

	t.Run("missing notification", func(t *testing.T) {
		_, err := storage.Get(ctx, "ghost")
		assert.ErrorIs(t, err, notification.ErrNotificationNotFound)
	})
}

func TestSQLiteStorage_OwnerElection(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStorage(t)
	target := ref.New("user", "u-1")
	group := ref.New("project", "p-1")

	first := makeNotification("n-1", target, group)
	require.NoError(t, storage.Create(ctx, first))
	assert.True(t, first.IsGroupOwner())

	second := makeNotification("n-2", target, group)
	require.NoError(t, storage.Create(ctx, second))
	assert.Equal(t, "n-1", second.GroupOwnerID)

	// Opening the owner closes the window; the next create starts fresh.
	_, err := storage.MarkOpened(ctx, "n-1", time.Now())
	require.NoError(t, err)

	third := makeNotification("n-3", target, group)
	require.NoError(t, storage.Create(ctx, third))
	assert.True(t, third.IsGroupOwner())

	// A different key bundles separately.
	other := makeNotification("n-4", target, group)
	other.Key = "invoice.overdue"
	require.NoError(t, storage.Create(ctx, other))
	assert.True(t, other.IsGroupOwner())
}

func TestSQLiteStorage_List(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStorage(t)
	target := ref.New("user", "u-1")
	group := ref.New("project", "p-1")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		n := makeNotification(fmt.Sprintf("n-%d", i), target, group)
		n.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, storage.Create(ctx, n))
	}
	_, err := storage.MarkOpened(ctx, "n-0", time.Now())
	require.NoError(t, err)

	t.Run("newest first", func(t *testing.T) {
		all, err := storage.List(ctx, target, notification.ListOptions{})
		require.NoError(t, err)
		require.Len(t, all, 5)
		assert.Equal(t, "n-4", all[0].ID)
		assert.Equal(t, "n-0", all[4].ID)
	})

	t.Run("owners only", func(t *testing.T) {
		owners, err := storage.List(ctx, target, notification.ListOptions{OwnersOnly: true})
		require.NoError(t, err)
		require.Len(t, owners, 1)
		assert.Equal(t, "n-0", owners[0].ID)
	})

	t.Run("only unopened with pagination", func(t *testing.T) {
		page, err := storage.List(ctx, target, notification.ListOptions{
			OnlyUnopened: true,
			Limit:        2,
			Offset:       1,
		})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "n-3", page[0].ID)
		assert.Equal(t, "n-2", page[1].ID)
	})
}

func TestSQLiteStorage_Open(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStorage(t)
	target := ref.New("user", "u-1")
	group := ref.New("project", "p-1")

	require.NoError(t, storage.Create(ctx, makeNotification("owner", target, group)))
	require.NoError(t, storage.Create(ctx, makeNotification("member-1", target, group)))
	require.NoError(t, storage.Create(ctx, makeNotification("member-2", target, group)))

	rows, err := storage.MarkOpened(ctx, "owner", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// Already opened rows are untouched.
	rows, err = storage.MarkOpened(ctx, "owner", time.Now())
	require.NoError(t, err)
	assert.Zero(t, rows)

	rows, err = storage.OpenMembers(ctx, "owner", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	count, err := storage.CountUnopened(ctx, target)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteStorage_MemberCounts(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStorage(t)
	target := ref.New("user", "u-1")

	base := time.Now().Add(-time.Hour)
	openBundle := func(suffix string, createdAt time.Time) {
		g := ref.New("project", "p-"+suffix)
		owner := makeNotification("owner-"+suffix, target, g)
		owner.CreatedAt = createdAt
		require.NoError(t, storage.Create(ctx, owner))

		member := makeNotification("member-"+suffix, target, g)
		member.CreatedAt = createdAt.Add(time.Second)
		require.NoError(t, storage.Create(ctx, member))

		_, err := storage.MarkOpened(ctx, owner.ID, time.Now())
		require.NoError(t, err)
		_, err = storage.OpenMembers(ctx, owner.ID, time.Now())
		require.NoError(t, err)
	}
	openBundle("a", base)
	openBundle("b", base.Add(time.Minute))

	// One still-unopened bundle alongside the opened ones.
	g := ref.New("project", "p-c")
	require.NoError(t, storage.Create(ctx, makeNotification("owner-c", target, g)))
	require.NoError(t, storage.Create(ctx, makeNotification("member-c", target, g)))

	t.Run("unopened member counts", func(t *testing.T) {
		counts, err := storage.UnopenedMemberCounts(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"owner-c": 1}, counts)
	})

	t.Run("opened member counts respect the window limit", func(t *testing.T) {
		counts, err := storage.OpenedMemberCounts(ctx, target, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts["owner-a"])
		assert.Equal(t, int64(1), counts["owner-b"])

		counts, err = storage.OpenedMemberCounts(ctx, target, 1)
		require.NoError(t, err)
		assert.Zero(t, counts["owner-a"])
		assert.Equal(t, int64(1), counts["owner-b"])
	})

	t.Run("unopened owners", func(t *testing.T) {
		count, err := storage.CountUnopened(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestSQLiteStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStorage(t)
	target := ref.New("user", "u-1")

	require.NoError(t, storage.Create(ctx, makeNotification("n-1", target, ref.Ref{})))
	require.NoError(t, storage.Create(ctx, makeNotification("n-2", target, ref.Ref{})))

	require.NoError(t, storage.Delete(ctx))
	require.NoError(t, storage.Delete(ctx, "n-1", "missing"))

	_, err := storage.Get(ctx, "n-1")
	assert.ErrorIs(t, err, notification.ErrNotificationNotFound)

	all, err := storage.List(ctx, target, notification.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLiteStorage_WorksWithStore(t *testing.T) {
	ctx := context.Background()
	storage := newSQLiteStorage(t)
	store := notification.NewStore(storage)
	target := ref.New("user", "u-1")

	invoice := newInvoice("i-1")
	invoice.group = ref.New("project", "p-1")

	owner, err := store.Create(ctx, target, invoice)
	require.NoError(t, err)
	member, err := store.Create(ctx, target, invoice)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, member.GroupOwnerID)

	rows, err := store.Open(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)
}
