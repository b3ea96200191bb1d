package subscription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// Resolver answers subscription questions and applies subscribe/unsubscribe
// mutations on top of a Storage backend.
//
// Every query takes the caller's defaultIfUnconfigured: the answer when no
// record (or no channel entry) exists. Different call sites want different
// defaults, so the policy lives with the caller, not the resolver.
type Resolver struct {
	storage Storage
	log     *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger for subscription mutations.
func WithResolverLogger(log *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if log != nil {
			r.log = log
		}
	}
}

// NewResolver creates a Resolver backed by the given storage.
func NewResolver(storage Storage, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		storage: storage,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SubscribedTo reports whether the target is subscribed to the base key.
// A missing record resolves to defaultIfUnconfigured.
func (r *Resolver) SubscribedTo(ctx context.Context, target ref.Ref, key string, defaultIfUnconfigured bool) (bool, error) {
	sub, err := r.storage.Get(ctx, target, key)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return defaultIfUnconfigured, nil
		}
		return false, err
	}
	return sub.Subscribing, nil
}

// SubscribedToEmail reports whether the target is subscribed to email
// delivery for the key. A missing record resolves to defaultIfUnconfigured.
func (r *Resolver) SubscribedToEmail(ctx context.Context, target ref.Ref, key string, defaultIfUnconfigured bool) (bool, error) {
	sub, err := r.storage.Get(ctx, target, key)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return defaultIfUnconfigured, nil
		}
		return false, err
	}
	return sub.SubscribingToEmail, nil
}

// SubscribedToChannel reports whether the target is subscribed to a named
// optional channel for the key. The answer is a conjunction: the base
// subscription must hold AND the channel flag must hold. A target
// unsubscribed from the base key is excluded from every optional channel
// regardless of per-channel settings. Missing record or missing channel
// entry resolves to defaultIfUnconfigured.
func (r *Resolver) SubscribedToChannel(ctx context.Context, target ref.Ref, key, channel string, defaultIfUnconfigured bool) (bool, error) {
	sub, err := r.storage.Get(ctx, target, key)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return defaultIfUnconfigured, nil
		}
		return false, err
	}
	if !sub.Subscribing {
		return false, nil
	}

	enabled, configured := sub.ChannelEnabled(channel)
	if !configured {
		return defaultIfUnconfigured, nil
	}
	return enabled, nil
}

// Subscribe flips the whole record on: the base flag, the email flag, and
// every currently-configured channel flag, all stamped with one timestamp.
// The record is created when absent.
func (r *Resolver) Subscribe(ctx context.Context, target ref.Ref, key string) error {
	return r.flipAll(ctx, target, key, true)
}

// Unsubscribe flips the whole record off, mirroring Subscribe.
func (r *Resolver) Unsubscribe(ctx context.Context, target ref.Ref, key string) error {
	return r.flipAll(ctx, target, key, false)
}

func (r *Resolver) flipAll(ctx context.Context, target ref.Ref, key string, subscribing bool) error {
	sub, err := r.load(ctx, target, key)
	if err != nil {
		return err
	}

	now := time.Now()
	sub.Subscribing = subscribing
	sub.SubscribingToEmail = subscribing
	if subscribing {
		sub.SubscribedAt = &now
		sub.EmailSubscribedAt = &now
	} else {
		sub.UnsubscribedAt = &now
		sub.EmailUnsubscribedAt = &now
	}
	for name, state := range sub.OptionalTargets {
		state.Enabled = subscribing
		if subscribing {
			state.SubscribedAt = &now
		} else {
			state.UnsubscribedAt = &now
		}
		sub.OptionalTargets[name] = state
	}

	if err := r.storage.Upsert(ctx, sub); err != nil {
		return err
	}

	r.log.InfoContext(ctx, "subscription updated",
		slog.String("target", target.String()),
		slog.String("key", key),
		slog.Bool("subscribing", subscribing),
	)
	return nil
}

// SubscribeToEmail flips only the email flag and its timestamp.
func (r *Resolver) SubscribeToEmail(ctx context.Context, target ref.Ref, key string) error {
	return r.flipEmail(ctx, target, key, true)
}

// UnsubscribeFromEmail flips only the email flag and its timestamp.
func (r *Resolver) UnsubscribeFromEmail(ctx context.Context, target ref.Ref, key string) error {
	return r.flipEmail(ctx, target, key, false)
}

func (r *Resolver) flipEmail(ctx context.Context, target ref.Ref, key string, subscribing bool) error {
	sub, err := r.load(ctx, target, key)
	if err != nil {
		return err
	}

	now := time.Now()
	sub.SubscribingToEmail = subscribing
	if subscribing {
		sub.EmailSubscribedAt = &now
	} else {
		sub.EmailUnsubscribedAt = &now
	}
	return r.storage.Upsert(ctx, sub)
}

// SubscribeToChannel flips only the named channel's flag and its timestamp,
// configuring the channel entry when absent.
func (r *Resolver) SubscribeToChannel(ctx context.Context, target ref.Ref, key, channel string) error {
	return r.flipChannel(ctx, target, key, channel, true)
}

// UnsubscribeFromChannel flips only the named channel's flag and its
// timestamp.
func (r *Resolver) UnsubscribeFromChannel(ctx context.Context, target ref.Ref, key, channel string) error {
	return r.flipChannel(ctx, target, key, channel, false)
}

func (r *Resolver) flipChannel(ctx context.Context, target ref.Ref, key, channel string, subscribing bool) error {
	sub, err := r.load(ctx, target, key)
	if err != nil {
		return err
	}
	if sub.OptionalTargets == nil {
		sub.OptionalTargets = make(map[string]ChannelState)
	}

	now := time.Now()
	state := sub.OptionalTargets[channel]
	state.Enabled = subscribing
	if subscribing {
		state.SubscribedAt = &now
	} else {
		state.UnsubscribedAt = &now
	}
	sub.OptionalTargets[channel] = state

	return r.storage.Upsert(ctx, sub)
}

// load fetches the record or lazily initializes a fresh one on first
// mutation.
func (r *Resolver) load(ctx context.Context, target ref.Ref, key string) (*Subscription, error) {
	if target.IsZero() {
		return nil, ErrMissingTarget
	}
	if key == "" {
		return nil, ErrMissingKey
	}

	sub, err := r.storage.Get(ctx, target, key)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return &Subscription{Target: target, Key: key}, nil
		}
		return nil, err
	}
	return sub, nil
}
