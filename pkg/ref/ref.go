package ref

import "fmt"

// Ref is a polymorphic reference to an entity owned by the surrounding
// application. Identity is the (Kind, ID) pair; the zero value means the
// reference is absent.
type Ref struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// New creates a reference for the given entity kind and identifier.
func New(kind, id string) Ref {
	return Ref{Kind: kind, ID: id}
}

// IsZero reports whether the reference is absent.
func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// Equal reports whether two references point at the same entity.
func (r Ref) Equal(other Ref) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}

// String returns the reference in "kind/id" form.
func (r Ref) String() string {
	if r.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}
