// Package gmail sends outreach emails through the Gmail API on behalf of a
// signed-in Google user.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender sends messages as the user identified by a Google access token.
type Sender struct {
	endpoint string
	logger   *zap.Logger
}

// NewSender creates a Sender. endpoint overrides the Gmail API base URL and
// is empty in production.
func NewSender(endpoint string, logger *zap.Logger) *Sender {
	return &Sender{
		endpoint: endpoint,
		logger:   logger.Named("gmail"),
	}
}

// Send delivers msg from the token owner's mailbox and returns the Gmail
// message id. The token needs the gmail.send scope.
func (s *Sender) Send(ctx context.Context, accessToken string, msg Message) (string, error) {
	if strings.TrimSpace(accessToken) == "" {
		return "", fmt.Errorf("google access token is required")
	}

	raw, err := BuildRawMessage(msg)
	if err != nil {
		return "", err
	}

	opts := []option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})),
	}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	srv, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create gmail service: %w", err)
	}

	sent, err := srv.Users.Messages.Send("me", &gmailapi.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	s.logger.Info("Email sent", zap.String("gmail_message_id", sent.Id))
	return sent.Id, nil
}

// BuildRawMessage renders msg as an RFC 2822 plain-text message encoded
// with unpadded base64url, as the Gmail API expects.
func BuildRawMessage(msg Message) (string, error) {
	to, err := mail.ParseAddress(strings.TrimSpace(msg.To))
	if err != nil {
		return "", fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return "", fmt.Errorf("subject must be a single line")
	}

	var b strings.Builder
	b.WriteString("To: " + to.String() + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return base64.RawURLEncoding.EncodeToString([]byte(b.String())), nil
}
