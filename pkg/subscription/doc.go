// Package subscription answers whether a target wants a given notification,
// per delivery path.
//
// One Subscription record exists per (target, key) pair and carries three
// layers of opt-in state: the base flag, the email flag, and a map of
// optional-channel flags. Absence of a record is meaningful and distinct from
// an explicit opt-out; every query therefore takes the caller's
// default-if-unconfigured answer.
//
// Optional channels are gated by a conjunction with the base flag: a target
// unsubscribed from the key never receives the key through any optional
// channel, whatever the per-channel flags say.
//
// # Basic Usage
//
//	resolver := subscription.NewResolver(subscription.NewMemoryStorage())
//
//	ok, err := resolver.SubscribedToChannel(ctx, userRef, "invoice.created", "slack", true)
//
//	// Whole-record opt-out, stamping one timestamp across all flags:
//	err = resolver.Unsubscribe(ctx, userRef, "invoice.created")
//
// # Storage Implementations
//
// MemoryStorage backs tests and development. RedisStorage stores records as
// JSON documents in Redis, one key per (target, key) pair; build it from an
// existing client with NewRedisStorage, or let NewRedisStorageFromConfig
// dial and verify the connection itself.
package subscription
