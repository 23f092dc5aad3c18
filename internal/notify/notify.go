package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"northstar/internal/config"
)

const defaultSendTimeout = 5 * time.Second

// Message is the template data handed to the external delivery channel.
type Message struct {
	Subject string         `json:"subject"`
	Body    string         `json:"body"`
	Data    map[string]any `json:"data,omitempty"`
}

// Notifier delivers a message to a recipient out of band (email relay,
// chat bridge). Callers treat delivery as best effort: errors are logged
// and never fail the write that triggered them.
type Notifier interface {
	Send(ctx context.Context, recipientEmail string, msg Message) error
}

// HTTPNotifier posts messages to the configured relay endpoints.
type HTTPNotifier struct {
	Targets []config.NotifierTarget
	Client  *http.Client
}

func NewHTTP(targets []config.NotifierTarget) *HTTPNotifier {
	return &HTTPNotifier{
		Targets: targets,
		Client:  &http.Client{Timeout: defaultSendTimeout},
	}
}

type outboundPayload struct {
	To      string         `json:"to"`
	Subject string         `json:"subject"`
	Body    string         `json:"body"`
	Data    map[string]any `json:"data,omitempty"`
}

func (n *HTTPNotifier) Send(ctx context.Context, recipientEmail string, msg Message) error {
	if strings.TrimSpace(recipientEmail) == "" {
		return fmt.Errorf("recipient email empty")
	}
	data, err := json.Marshal(outboundPayload{
		To:      recipientEmail,
		Subject: msg.Subject,
		Body:    msg.Body,
		Data:    msg.Data,
	})
	if err != nil {
		return err
	}
	var lastErr error
	sent := 0
	for _, target := range n.Targets {
		if target.Enabled != nil && !*target.Enabled {
			continue
		}
		if strings.TrimSpace(target.URL) == "" {
			continue
		}
		if err := n.post(ctx, target, data); err != nil {
			lastErr = err
			continue
		}
		sent++
	}
	if sent == 0 && lastErr != nil {
		return lastErr
	}
	if sent == 0 {
		return fmt.Errorf("no notifier targets configured")
	}
	return nil
}

func (n *HTTPNotifier) post(ctx context.Context, target config.NotifierTarget, data []byte) error {
	client := n.Client
	if target.TimeoutSeconds > 0 {
		client = &http.Client{Timeout: time.Duration(target.TimeoutSeconds) * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(target.Secret) != "" {
		req.Header.Set("X-Northstar-Secret", target.Secret)
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// LogNotifier is the fallback when no relay is configured.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, recipientEmail string, msg Message) error {
	log.Printf("notify: would deliver %q to %s", msg.Subject, recipientEmail)
	return nil
}
