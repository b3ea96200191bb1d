// Package dispatch fans a notifiable event out to its recipients.
//
// A Dispatcher resolves the target list from the notifiable (or streams it
// for large populations), creates one notification record per target through
// the notification store, and layers an optional email delivery on top. The
// record always comes first: an email failure never prevents the notification
// from existing.
//
// Email delivery defaults to a queued task consumed by the handler from
// NewEmailDeliveryHandler; WithSyncEmail sends in-process instead, and
// WithoutEmail skips the path entirely. Per-target email gating is the
// conjunction of the notifiable's own EmailAllowed flag and the subscription
// resolver's email answer.
//
// # Basic Usage
//
//	dispatcher := dispatch.NewDispatcher(store,
//	    dispatch.WithSubscriptions(resolver),
//	    dispatch.WithEnqueuer(enqueuer),
//	)
//
//	created, err := dispatcher.Notify(ctx, "user", invoice,
//	    dispatch.WithKey("invoice.created"),
//	)
//
// An empty resolved target list is a no-op, not an error. When the caller
// already holds the targets, NotifyAll fans out over the explicit list and
// NotifyTo addresses a single target, both bypassing resolution.
package dispatch
