package subscription

import (
	"time"

	"github.com/dmitrymomot/notifykit/pkg/ref"
)

// ChannelState holds the opt-in flag for one optional channel together with
// the timestamps of the last flips in either direction.
type ChannelState struct {
	Enabled        bool       `json:"enabled"`
	SubscribedAt   *time.Time `json:"subscribed_at,omitempty"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`
}

// Subscription is a target's per-key opt-in record. One record exists per
// (target, key) pair; absence of a record is meaningful and distinct from
// Subscribing=false. Callers resolve absence through the per-call-site
// default, see Resolver.
type Subscription struct {
	Target ref.Ref `json:"target"`
	Key    string  `json:"key"`

	Subscribing    bool       `json:"subscribing"`
	SubscribedAt   *time.Time `json:"subscribed_at,omitempty"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at,omitempty"`

	SubscribingToEmail  bool       `json:"subscribing_to_email"`
	EmailSubscribedAt   *time.Time `json:"email_subscribed_at,omitempty"`
	EmailUnsubscribedAt *time.Time `json:"email_unsubscribed_at,omitempty"`

	// OptionalTargets maps channel name to its opt-in state. A channel with
	// no entry is unconfigured, which resolves to the caller's default.
	OptionalTargets map[string]ChannelState `json:"optional_targets,omitempty"`
}

// ChannelEnabled reports the flag for a named channel. The second return
// value reports whether the channel is configured at all.
func (s *Subscription) ChannelEnabled(name string) (bool, bool) {
	state, ok := s.OptionalTargets[name]
	if !ok {
		return false, false
	}
	return state.Enabled, true
}

func (s *Subscription) clone() *Subscription {
	out := *s
	if s.OptionalTargets != nil {
		out.OptionalTargets = make(map[string]ChannelState, len(s.OptionalTargets))
		for name, state := range s.OptionalTargets {
			out.OptionalTargets[name] = state
		}
	}
	return &out
}
