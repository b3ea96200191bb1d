package notification

import (
	"time"

	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// Notification is the persisted record of one event delivered to one target.
//
// Notifications sharing (target, notifiable kind, key, group) collapse into a
// bundle: a single owner record represents the bundle in the feed and member
// records attach to it via GroupOwnerID. The canonical ownership rule is that
// an empty GroupOwnerID marks the owner; a member never owns members itself.
type Notification struct {
	ID           string         `json:"id"`
	Target       ref.Ref        `json:"target"`
	Notifiable   ref.Ref        `json:"notifiable"`
	Key          string         `json:"key"`
	Group        ref.Ref        `json:"group,omitempty"`
	GroupOwnerID string         `json:"group_owner_id,omitempty"`
	Notifier     ref.Ref        `json:"notifier,omitempty"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	OpenedAt     *time.Time     `json:"opened_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// IsGroupOwner reports whether this record represents a bundle in the feed.
func (n *Notification) IsGroupOwner() bool {
	return n.GroupOwnerID == ""
}

// IsGroupMember reports whether this record is folded into another bundle.
func (n *Notification) IsGroupMember() bool {
	return n.GroupOwnerID != ""
}

// IsOpened reports whether the notification has been read.
func (n *Notification) IsOpened() bool {
	return n.OpenedAt != nil
}

// markOpened stamps OpenedAt once; re-opening is a no-op.
func (n *Notification) markOpened(at time.Time) bool {
	if n.OpenedAt != nil {
		return false
	}
	n.OpenedAt = &at
	return true
}
