package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	valid := email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Hello",
		BodyHTML: "<p>Hi</p>",
	}

	tests := []struct {
		name    string
		mutate  func(*email.SendEmailParams)
		wantErr bool
	}{
		{name: "valid params", mutate: func(p *email.SendEmailParams) {}, wantErr: false},
		{name: "missing recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "" }, wantErr: true},
		{name: "malformed recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "not-an-email" }, wantErr: true},
		{name: "missing subject", mutate: func(p *email.SendEmailParams) { p.Subject = "" }, wantErr: true},
		{name: "missing body", mutate: func(p *email.SendEmailParams) { p.BodyHTML = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := valid
			tt.mutate(&params)

			err := params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, email.ErrInvalidParams)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPostmarkClient(t *testing.T) {
	validCfg := email.Config{
		PostmarkServerToken:  "server-token",
		PostmarkAccountToken: "account-token",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	}

	t.Run("valid config", func(t *testing.T) {
		sender, err := email.NewPostmarkClient(validCfg)
		require.NoError(t, err)
		assert.NotNil(t, sender)
	})

	t.Run("missing server token", func(t *testing.T) {
		cfg := validCfg
		cfg.PostmarkServerToken = ""
		_, err := email.NewPostmarkClient(cfg)
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("invalid sender email", func(t *testing.T) {
		cfg := validCfg
		cfg.SenderEmail = "invalid"
		_, err := email.NewPostmarkClient(cfg)
		assert.ErrorIs(t, err, email.ErrInvalidConfig)
	})

	t.Run("must variant panics", func(t *testing.T) {
		assert.Panics(t, func() {
			email.MustNewPostmarkClient(email.Config{})
		})
	})
}

func TestDevSender(t *testing.T) {
	t.Run("writes html and metadata files", func(t *testing.T) {
		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		err := sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "New comment",
			BodyHTML: "<p>Someone replied</p>",
			Tag:      "comment.replied",
			Metadata: map[string]string{"notification_id": "n-42"},
		})
		require.NoError(t, err)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		var jsonFile string
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".json") {
				jsonFile = filepath.Join(dir, e.Name())
			}
		}
		require.NotEmpty(t, jsonFile)

		data, err := os.ReadFile(jsonFile)
		require.NoError(t, err)

		var meta map[string]any
		require.NoError(t, json.Unmarshal(data, &meta))
		assert.Equal(t, "user@example.com", meta["send_to"])
		assert.Equal(t, "comment.replied", meta["tag"])

		stamped, ok := meta["metadata"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "n-42", stamped["notification_id"])
	})

	t.Run("rejects invalid params", func(t *testing.T) {
		sender := email.NewDevSender(t.TempDir())

		err := sender.SendEmail(context.Background(), email.SendEmailParams{})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
	})
}
