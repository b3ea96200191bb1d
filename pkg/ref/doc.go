// Package ref provides polymorphic entity references for the notification
// system.
//
// A notification points at several application-owned entities (the recipient,
// the subject, the acting user, the grouping entity) whose concrete types this
// library never sees. Each is carried as a Ref, a plain (kind, id) pair, and
// materialized on demand through a Registry that maps kinds to application
// loader functions.
//
// # Usage
//
//	registry := ref.NewRegistry()
//	registry.Register("user", func(ctx context.Context, id string) (any, error) {
//	    return users.Find(ctx, id)
//	})
//
//	entity, err := registry.Load(ctx, ref.New("user", "42"))
package ref
