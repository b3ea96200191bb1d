// Package notification implements the notification store and its grouping
// engine.
//
// A Notification records one event about a subject entity (the notifiable)
// delivered to one recipient (the target). Bursts of related notifications
// collapse into bundles: while an unopened bundle owner exists for the same
// (target, notifiable kind, key, group), new notifications attach to it as
// members instead of appearing as separate feed entries. Opening the owner
// closes the bundling window; the next notification starts a fresh bundle.
//
// # Architecture
//
//   - Storage: persistence plus the aggregate queries bundling depends on
//   - Store: creation, open-with-members, and member counting on top of it
//   - Notifiable / Channel: contracts the surrounding application implements
//
// # Basic Usage
//
//	store := notification.NewStore(notification.NewMemoryStorage())
//
//	n, err := store.Create(ctx, userRef, invoice,
//	    notification.WithKey("invoice.created"),
//	    notification.WithParameter("amount", 4200),
//	)
//
//	// Later, when the user reads the bundle:
//	affected, err := store.Open(ctx, n)
//
// Member counts for a feed page come from one aggregate query across the
// page's whole window, not one count per row:
//
//	count, err := store.MemberCount(ctx, n, 20)
//
// # Storage Implementations
//
// MemoryStorage backs tests and development. SQLiteStorage is a
// production-shaped implementation showing how the grouping queries map to
// SQL; any backend with equality filtering, ordering, bulk update, and
// count-by-key aggregation can implement the interface.
package notification
