package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// Status classifies the outcome of one cascade step fire.
type Status string

const (
	// StatusDelivered means the channel accepted the notification.
	StatusDelivered Status = "delivered"
	// StatusFailed means the channel returned an error that was rescued by
	// policy; the error is carried in Result.Err.
	StatusFailed Status = "failed"
	// StatusNotConfigured means the notifiable exposes no channel with the
	// step's target name.
	StatusNotConfigured Status = "not_configured"
	// StatusNotSubscribed means the target opted out of the channel.
	StatusNotSubscribed Status = "not_subscribed"
	// StatusSkipped means the notification was opened before the fire;
	// nothing further is scheduled.
	StatusSkipped Status = "skipped"
	// StatusMissing means the notification no longer exists; nothing further
	// is scheduled.
	StatusMissing Status = "missing"
)

// Result is the outcome of one FireStep invocation.
type Result struct {
	NotificationID string
	StepIndex      int
	Channel        string
	Status         Status
	Err            error
}

// SubscriptionResolver gates optional-channel delivery per target. Satisfied
// by subscription.Resolver.
type SubscriptionResolver interface {
	SubscribedToChannel(ctx context.Context, target ref.Ref, key, channel string, defaultIfUnconfigured bool) (bool, error)
}

// Cascader drives multi-step delayed delivery of a notification through its
// optional channels. Each step re-reads the notification's opened state, so
// reading the notification is the cancellation mechanism: a cascade never
// outlives its purpose.
type Cascader struct {
	storage             notification.Storage
	notifiables         notification.NotifiableResolver
	subscriptions       SubscriptionResolver
	scheduler           TaskScheduler
	rescueChannelErrors bool
	channelDefault      bool
	log                 *slog.Logger
}

// CascaderOption configures a Cascader.
type CascaderOption func(*Cascader)

// WithSubscriptions sets the resolver gating each step. Without one, every
// step passes the subscription gate.
func WithSubscriptions(resolver SubscriptionResolver) CascaderOption {
	return func(c *Cascader) {
		c.subscriptions = resolver
	}
}

// WithRescueChannelErrors captures channel failures as step results instead
// of propagating them, letting the cascade continue past a broken channel.
func WithRescueChannelErrors() CascaderOption {
	return func(c *Cascader) {
		c.rescueChannelErrors = true
	}
}

// WithChannelSubscriptionDefault sets the answer for targets with no
// channel subscription configured. Defaults to true.
func WithChannelSubscriptionDefault(subscribed bool) CascaderOption {
	return func(c *Cascader) {
		c.channelDefault = subscribed
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) CascaderOption {
	return func(c *Cascader) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCascader creates a Cascader. The storage reloads notifications at fire
// time, the resolver materializes their notifiables, and the scheduler runs
// the delayed steps.
func NewCascader(storage notification.Storage, notifiables notification.NotifiableResolver, scheduler TaskScheduler, opts ...CascaderOption) *Cascader {
	c := &Cascader{
		storage:        storage,
		notifiables:    notifiables,
		scheduler:      scheduler,
		channelDefault: true,
		log:            slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NotifyOption configures one Notify call.
type NotifyOption func(*notifyOptions)

type notifyOptions struct {
	validate       bool
	immediateFirst bool
}

// WithoutValidation skips config validation. An empty config still returns
// false rather than scheduling anything.
func WithoutValidation() NotifyOption {
	return func(o *notifyOptions) {
		o.validate = false
	}
}

// WithImmediateFirst fires step 0 synchronously in-process before scheduling
// the remainder.
func WithImmediateFirst() NotifyOption {
	return func(o *notifyOptions) {
		o.immediateFirst = true
	}
}

// Notify starts a cascade for the notification. It returns false without
// scheduling anything when the config is empty or the notification is
// already opened, and true once the first step has been fired or scheduled.
func (c *Cascader) Notify(ctx context.Context, n *notification.Notification, cfg Config, opts ...NotifyOption) (bool, error) {
	options := notifyOptions{validate: true}
	for _, opt := range opts {
		opt(&options)
	}

	if options.validate {
		if err := cfg.Validate(); err != nil {
			return false, err
		}
	}
	if len(cfg) == 0 {
		return false, nil
	}
	if n.IsOpened() {
		return false, nil
	}

	if options.immediateFirst {
		// Fire step 0 alone so its own scheduling logic sees no successor;
		// the remainder is rescheduled below as a fresh sub-cascade.
		if _, err := c.FireStep(ctx, FireTask{
			NotificationID: n.ID,
			Config:         cfg[:1],
			StepIndex:      0,
		}); err != nil {
			return false, err
		}

		// The remainder runs only when its first step carries a delay; a
		// missing delay here drops the rest of the cascade.
		if len(cfg) > 1 && cfg[1].Delay != nil {
			if err := c.scheduler.Schedule(ctx, cfg[1].Delay.Duration, FireTask{
				NotificationID: n.ID,
				Config:         cfg[1:],
				StepIndex:      0,
			}); err != nil {
				return false, fmt.Errorf("scheduling cascade remainder for %s: %w", n.ID, err)
			}
		}
		return true, nil
	}

	// A missing delay on step 0 schedules it for immediate execution.
	var delay Delay
	if cfg[0].Delay != nil {
		delay = *cfg[0].Delay
	}
	if err := c.scheduler.Schedule(ctx, delay.Duration, FireTask{
		NotificationID: n.ID,
		Config:         cfg,
		StepIndex:      0,
	}); err != nil {
		return false, fmt.Errorf("scheduling cascade for %s: %w", n.ID, err)
	}
	return true, nil
}

// FireStep executes one scheduled step. It is safe to invoke more than once
// for the same (notification, step): the opened state is re-read before
// acting, so a duplicate fire after the notification was opened is a no-op.
// Only a non-rescued channel failure returns an error; every other outcome
// is a Result status.
func (c *Cascader) FireStep(ctx context.Context, task FireTask) (Result, error) {
	result := Result{
		NotificationID: task.NotificationID,
		StepIndex:      task.StepIndex,
	}
	if task.StepIndex < 0 || task.StepIndex >= len(task.Config) {
		return result, fmt.Errorf("%w: step %d of %d", ErrStepOutOfRange, task.StepIndex, len(task.Config))
	}
	step := task.Config[task.StepIndex]
	result.Channel = step.Target

	n, err := c.storage.Get(ctx, task.NotificationID)
	if err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			c.log.InfoContext(ctx, "notification gone before cascade step, stopping",
				logger.NotificationID(task.NotificationID),
				logger.Step(task.StepIndex),
			)
			result.Status = StatusMissing
			return result, nil
		}
		return result, fmt.Errorf("reloading notification %s: %w", task.NotificationID, err)
	}
	if n.IsOpened() {
		c.log.InfoContext(ctx, "notification opened before cascade step, stopping",
			logger.NotificationID(n.ID),
			logger.Step(task.StepIndex),
		)
		result.Status = StatusSkipped
		return result, nil
	}

	result.Status, result.Err = c.fireChannel(ctx, n, step)
	if result.Err != nil && !c.rescueChannelErrors {
		// Propagating failure halts the cascade here; the next step is
		// never scheduled.
		return result, result.Err
	}

	if err := c.scheduleNext(ctx, task); err != nil {
		return result, err
	}
	return result, nil
}

func (c *Cascader) fireChannel(ctx context.Context, n *notification.Notification, step Step) (Status, error) {
	notifiable, err := c.notifiables.ResolveNotifiable(ctx, n.Notifiable)
	if err != nil {
		return StatusFailed, fmt.Errorf("resolving notifiable %s: %w", n.Notifiable, err)
	}

	var channel notification.Channel
	for _, candidate := range notifiable.OptionalChannels(n.Target.Kind, n.Key) {
		if candidate.Name() == step.Target {
			channel = candidate
			break
		}
	}
	if channel == nil {
		c.log.WarnContext(ctx, "cascade channel not configured",
			logger.NotificationID(n.ID),
			logger.Channel(step.Target),
		)
		return StatusNotConfigured, nil
	}

	if c.subscriptions != nil {
		subscribed, err := c.subscriptions.SubscribedToChannel(ctx, n.Target, n.Key, step.Target, c.channelDefault)
		if err != nil {
			return StatusFailed, fmt.Errorf("checking channel subscription for %s: %w", n.Target, err)
		}
		if !subscribed {
			c.log.InfoContext(ctx, "target not subscribed to cascade channel",
				logger.NotificationID(n.ID),
				logger.Target(n.Target),
				logger.Channel(step.Target),
			)
			return StatusNotSubscribed, nil
		}
	}

	if err := channel.Notify(ctx, *n, step.Options); err != nil {
		c.log.ErrorContext(ctx, "cascade channel delivery failed",
			logger.NotificationID(n.ID),
			logger.Channel(step.Target),
			logger.Error(err),
		)
		return StatusFailed, fmt.Errorf("channel %s: %w", step.Target, err)
	}
	return StatusDelivered, nil
}

// scheduleNext schedules the following step when one exists and carries a
// delay. A missing delay on the next step ends the cascade.
func (c *Cascader) scheduleNext(ctx context.Context, task FireTask) error {
	next := task.StepIndex + 1
	if next >= len(task.Config) {
		return nil
	}
	if task.Config[next].Delay == nil {
		c.log.DebugContext(ctx, "next cascade step has no delay, stopping",
			logger.NotificationID(task.NotificationID),
			logger.Step(next),
		)
		return nil
	}

	if err := c.scheduler.Schedule(ctx, task.Config[next].Delay.Duration, FireTask{
		NotificationID: task.NotificationID,
		Config:         task.Config,
		StepIndex:      next,
	}); err != nil {
		return fmt.Errorf("scheduling cascade step %d for %s: %w", next, task.NotificationID, err)
	}
	return nil
}
