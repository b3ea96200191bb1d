package dispatch

import "github.com/dmitrymomot/notifykit/pkg/notification"

// NotifyOption configures one Notify/NotifyTo call.
type NotifyOption func(*notifyOptions)

type notifyOptions struct {
	key          string
	withoutEmail bool
	syncEmail    bool
	emailDefault bool
	createOpts   []notification.CreateOption
}

func applyNotifyOptions(notifiable notification.Notifiable, opts []NotifyOption) notifyOptions {
	options := notifyOptions{
		key:          notifiable.DefaultKey(),
		emailDefault: true,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.key == "" {
		options.key = notification.DefaultKey
	}
	return options
}

// WithKey overrides the notifiable's default key for this call.
func WithKey(key string) NotifyOption {
	return func(o *notifyOptions) {
		if key != "" {
			o.key = key
		}
	}
}

// WithoutEmail skips the email path entirely; only the notification record is
// created.
func WithoutEmail() NotifyOption {
	return func(o *notifyOptions) {
		o.withoutEmail = true
	}
}

// WithSyncEmail sends the email in-process instead of enqueueing a delivery
// task.
func WithSyncEmail() NotifyOption {
	return func(o *notifyOptions) {
		o.syncEmail = true
	}
}

// WithEmailSubscriptionDefault sets the answer for targets with no
// subscription record. Defaults to true: unconfigured targets receive email.
func WithEmailSubscriptionDefault(subscribed bool) NotifyOption {
	return func(o *notifyOptions) {
		o.emailDefault = subscribed
	}
}

// WithCreateOptions passes options through to the underlying store.Create,
// for per-call grouping, notifier, or parameter overrides.
func WithCreateOptions(opts ...notification.CreateOption) NotifyOption {
	return func(o *notifyOptions) {
		o.createOpts = append(o.createOpts, opts...)
	}
}
