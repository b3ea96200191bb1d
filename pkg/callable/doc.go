// Package callable implements configured values that may be literals, named
// method references, or inline closures, resolved through one entry point.
//
// Notification settings (grouping key, parameters, email gating) are often
// static for one application and computed for another. Value lets both be
// declared the same way:
//
//	group := callable.Literal(ref.New("project", "p-1"))
//	params := callable.Closure(func(ctx context.Context, args ...any) (any, error) {
//	    return map[string]any{"source": "import"}, nil
//	})
//	notifier := callable.MethodRef("InvoiceAuthor")
//
// Method references dispatch through the MethodReceiver interface rather than
// reflection, so the set of callable methods stays explicit and type-checked
// at the receiver.
package callable
