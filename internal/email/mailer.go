package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

const postmarkURL = "https://api.postmarkapp.com/email"

// Mailer sends transactional mail through Postmark. An unconfigured Mailer
// (empty server token) reports itself as such so callers can skip sending.
type Mailer struct {
	serverToken string
	fromEmail   string
	baseURL     string
	httpClient  *http.Client
}

type Option func(*Mailer)

func WithHTTPClient(c *http.Client) Option {
	return func(m *Mailer) {
		m.httpClient = c
	}
}

func NewMailer(serverToken, fromEmail, baseURL string, opts ...Option) *Mailer {
	m := &Mailer{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		baseURL:     baseURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Configured returns true if the server token is set.
func (m *Mailer) Configured() bool {
	return m.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendInvitation mails a household invitation link. Transient failures
// (network errors, 5xx) are retried with exponential backoff; 4xx responses
// fail immediately since resending the same payload cannot help.
func (m *Mailer) SendInvitation(ctx context.Context, toEmail, token, householdName, inviterName string) error {
	if !m.Configured() {
		return fmt.Errorf("mailer not configured: missing server token")
	}

	link := fmt.Sprintf("%s/invitations/accept?token=%s", m.baseURL, token)
	subject := fmt.Sprintf("%s invited you to join %s on RentMate", inviterName, householdName)
	textBody := fmt.Sprintf(
		"%s has invited you to join the household %q on RentMate.\n\nAccept the invitation:\n\n%s\n\nThis invitation expires in 7 days.",
		inviterName, householdName, link,
	)
	htmlBody := fmt.Sprintf(
		`<p>%s has invited you to join the household <strong>%s</strong> on RentMate.</p><p><a href="%s">Accept the invitation</a></p><p>This invitation expires in 7 days.</p>`,
		inviterName, householdName, link,
	)

	payload := postmarkEmail{
		From:     m.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		return m.post(ctx, body)
	})
}

func (m *Mailer) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", m.serverToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("send email: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return retry.RetryableError(fmt.Errorf("postmark API error: status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}
	return nil
}
