// Package email provides the outbound email transport used by notification
// delivery.
//
// The package deliberately knows nothing about notification content: callers
// hand it fully rendered SendEmailParams. Two EmailSender implementations are
// included - a Postmark client for production and a filesystem DevSender that
// writes messages to disk for local development.
//
// # Usage
//
//	var cfg email.Config
//	config.MustLoad(&cfg)
//
//	sender, err := email.NewPostmarkClient(cfg)
//	if err != nil {
//	    // handle error
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "New invoice",
//	    BodyHTML: "<p>Invoice #42 was created.</p>",
//	    Tag:      "invoice.created",
//	})
package email
