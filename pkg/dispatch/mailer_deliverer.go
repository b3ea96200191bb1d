package dispatch

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// EmailComposer renders a notification into an outgoing message. The
// application owns recipient lookup, subject, and body; composition errors
// abort the send.
type EmailComposer func(ctx context.Context, n notification.Notification) (email.SendEmailParams, error)

// MailerDeliverer implements EmailDeliverer on top of an email sender and an
// application-supplied composer.
type MailerDeliverer struct {
	sender  email.EmailSender
	compose EmailComposer
}

// NewMailerDeliverer builds the deliverer used for both synchronous sends and
// the queued delivery handler.
func NewMailerDeliverer(sender email.EmailSender, compose EmailComposer) *MailerDeliverer {
	return &MailerDeliverer{
		sender:  sender,
		compose: compose,
	}
}

func (d *MailerDeliverer) Send(ctx context.Context, n notification.Notification) error {
	params, err := d.compose(ctx, n)
	if err != nil {
		return fmt.Errorf("composing email for %s: %w", n.ID, err)
	}
	stampNotification(&params, n)
	if err := params.Validate(); err != nil {
		return fmt.Errorf("composed email for %s: %w", n.ID, err)
	}
	return d.sender.SendEmail(ctx, params)
}

// stampNotification fills the provider-facing trace fields the composer left
// blank. Tag defaults to the notification key so provider analytics group by
// key, and Metadata carries the notification id and target so provider
// events can be joined back to the stored record. Composer values win.
func stampNotification(params *email.SendEmailParams, n notification.Notification) {
	if params.Tag == "" {
		params.Tag = n.Key
	}
	if params.Metadata == nil {
		params.Metadata = make(map[string]string, 2)
	}
	if _, ok := params.Metadata["notification_id"]; !ok {
		params.Metadata["notification_id"] = n.ID
	}
	if _, ok := params.Metadata["notification_target"]; !ok {
		params.Metadata["notification_target"] = n.Target.String()
	}
}
