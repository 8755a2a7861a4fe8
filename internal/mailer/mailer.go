package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"apkdrop/internal/structures"
)

// ErrNotAccepted is returned when SendGrid does not answer 202 Accepted.
var ErrNotAccepted = errors.New("email not accepted")

// Message is a plain-text email.
type Message struct {
	From    string
	To      []structures.Recipient
	Subject string
	Body    string
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// payload is the SendGrid v3 mail/send request body.
type payload struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

func newPayload(msg Message) payload {
	to := make([]address, len(msg.To))
	for i, r := range msg.To {
		to[i] = address{Email: r.Email}
	}
	return payload{
		Personalizations: []personalization{{To: to}},
		From:             address{Email: msg.From},
		Subject:          msg.Subject,
		Content:          []content{{Type: "text/plain", Value: msg.Body}},
	}
}

// Client posts messages to a SendGrid mail/send endpoint.
type Client struct {
	hook       string
	authPrefix string
	token      string
	http       *http.Client
}

// NewClient creates a SendGrid client. The Authorization header is
// "<authPrefix> <token>".
func NewClient(hook, authPrefix, token string, timeout time.Duration) *Client {
	return &Client{
		hook:       hook,
		authPrefix: authPrefix,
		token:      token,
		http:       &http.Client{Timeout: timeout},
	}
}

// Send delivers msg. Only 202 Accepted counts as success.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("%w: no recipients", ErrNotAccepted)
	}

	body, err := json.Marshal(newPayload(msg))
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", strings.TrimSpace(c.authPrefix+" "+c.token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAccepted, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: SendGrid API error (status %d): %s", ErrNotAccepted, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
