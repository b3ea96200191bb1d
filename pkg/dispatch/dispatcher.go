package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/queue"
	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// EmailDeliverer turns a stored notification into an outgoing email message.
// Message content is owned by the application; this package only decides
// whether and when to call it.
type EmailDeliverer interface {
	Send(ctx context.Context, n notification.Notification) error
}

// Enqueuer schedules background tasks. Satisfied by queue.Enqueuer.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error
}

// SubscriptionResolver gates email delivery per target. Satisfied by
// subscription.Resolver.
type SubscriptionResolver interface {
	SubscribedToEmail(ctx context.Context, target ref.Ref, key string, defaultIfUnconfigured bool) (bool, error)
}

// Dispatcher fans a notifiable event out to its targets: one stored
// notification per target, plus an optional email send per target. The
// record is stored first; email is an additive delivery layered on top and
// its failure never undoes the record.
type Dispatcher struct {
	store         *notification.Store
	subscriptions SubscriptionResolver
	deliverer     EmailDeliverer
	enqueuer      Enqueuer
	log           *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSubscriptions sets the resolver gating email delivery. Without one,
// every target passes the subscription gate.
func WithSubscriptions(resolver SubscriptionResolver) Option {
	return func(d *Dispatcher) {
		d.subscriptions = resolver
	}
}

// WithEmailDeliverer sets the synchronous email path.
func WithEmailDeliverer(deliverer EmailDeliverer) Option {
	return func(d *Dispatcher) {
		d.deliverer = deliverer
	}
}

// WithEnqueuer sets the task queue used for deferred email delivery, the
// default path.
func WithEnqueuer(enqueuer Enqueuer) Option {
	return func(d *Dispatcher) {
		d.enqueuer = enqueuer
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDispatcher creates a Dispatcher on top of the notification store.
func NewDispatcher(store *notification.Store, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Notify resolves the notifiable's targets for the kind and creates one
// notification per target. An empty target list is a no-op, not an error.
// When the notifiable implements notification.TargetStreamer the targets are
// streamed instead of materialized.
func (d *Dispatcher) Notify(ctx context.Context, targetKind string, notifiable notification.Notifiable, opts ...NotifyOption) ([]*notification.Notification, error) {
	options := applyNotifyOptions(notifiable, opts)

	if streamer, ok := notifiable.(notification.TargetStreamer); ok {
		var created []*notification.Notification
		err := streamer.StreamTargets(ctx, targetKind, options.key, func(target ref.Ref) error {
			n, err := d.notifyOne(ctx, target, notifiable, options)
			if err != nil {
				return err
			}
			created = append(created, n)
			return nil
		})
		if err != nil {
			return created, fmt.Errorf("streaming targets for %s: %w", notifiable.Ref(), err)
		}
		return created, nil
	}

	targets, err := notifiable.ResolveTargets(ctx, targetKind, options.key)
	if err != nil {
		return nil, fmt.Errorf("resolving targets for %s: %w", notifiable.Ref(), err)
	}
	if len(targets) == 0 {
		d.log.DebugContext(ctx, "no targets resolved, nothing to notify",
			logger.Notifiable(notifiable.Ref()),
			slog.String("target_kind", targetKind),
			logger.Key(options.key),
		)
		return nil, nil
	}

	return d.notifyAll(ctx, targets, notifiable, options)
}

// NotifyAll creates one notification per explicit target, bypassing target
// resolution. The first failure stops the batch; notifications created
// before it are returned alongside the error.
func (d *Dispatcher) NotifyAll(ctx context.Context, targets []ref.Ref, notifiable notification.Notifiable, opts ...NotifyOption) ([]*notification.Notification, error) {
	return d.notifyAll(ctx, targets, notifiable, applyNotifyOptions(notifiable, opts))
}

func (d *Dispatcher) notifyAll(ctx context.Context, targets []ref.Ref, notifiable notification.Notifiable, options notifyOptions) ([]*notification.Notification, error) {
	created := make([]*notification.Notification, 0, len(targets))
	for _, target := range targets {
		n, err := d.notifyOne(ctx, target, notifiable, options)
		if err != nil {
			return created, err
		}
		created = append(created, n)
	}
	return created, nil
}

// NotifyTo creates a notification for one explicit target, bypassing target
// resolution.
func (d *Dispatcher) NotifyTo(ctx context.Context, target ref.Ref, notifiable notification.Notifiable, opts ...NotifyOption) (*notification.Notification, error) {
	return d.notifyOne(ctx, target, notifiable, applyNotifyOptions(notifiable, opts))
}

func (d *Dispatcher) notifyOne(ctx context.Context, target ref.Ref, notifiable notification.Notifiable, options notifyOptions) (*notification.Notification, error) {
	createOpts := append([]notification.CreateOption{notification.WithKey(options.key)}, options.createOpts...)

	n, err := d.store.Create(ctx, target, notifiable, createOpts...)
	if err != nil {
		return nil, err
	}

	if options.withoutEmail {
		return n, nil
	}

	allowed, err := d.emailAllowed(ctx, target, notifiable, options)
	if err != nil {
		return n, err
	}
	if !allowed {
		return n, nil
	}

	if err := d.deliverEmail(ctx, n, options); err != nil {
		return n, err
	}
	return n, nil
}

func (d *Dispatcher) emailAllowed(ctx context.Context, target ref.Ref, notifiable notification.Notifiable, options notifyOptions) (bool, error) {
	allowed, err := notifiable.EmailAllowed(ctx, target, options.key)
	if err != nil {
		return false, fmt.Errorf("checking email allowance for %s: %w", target, err)
	}
	if !allowed {
		return false, nil
	}

	if d.subscriptions == nil {
		return true, nil
	}
	subscribed, err := d.subscriptions.SubscribedToEmail(ctx, target, options.key, options.emailDefault)
	if err != nil {
		return false, fmt.Errorf("checking email subscription for %s: %w", target, err)
	}
	return subscribed, nil
}

// deliverEmail prefers the task queue; WithSyncEmail or a missing enqueuer
// falls through to the synchronous path. The notification record already
// exists either way.
func (d *Dispatcher) deliverEmail(ctx context.Context, n *notification.Notification, options notifyOptions) error {
	if !options.syncEmail && d.enqueuer != nil {
		if err := d.enqueuer.Enqueue(ctx, EmailDeliveryTask{NotificationID: n.ID}); err != nil {
			return fmt.Errorf("enqueueing email delivery for %s: %w", n.ID, err)
		}
		return nil
	}

	if d.deliverer == nil {
		d.log.WarnContext(ctx, "email delivery requested but no deliverer configured",
			logger.NotificationID(n.ID),
		)
		return nil
	}
	if err := d.deliverer.Send(ctx, *n); err != nil {
		return fmt.Errorf("sending email for %s: %w", n.ID, err)
	}
	return nil
}
