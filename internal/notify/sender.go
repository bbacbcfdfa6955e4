// Package notify defines the outbound notification channel. Delivery is
// an external collaborator; callers treat sends as fire-and-forget and
// never await delivery confirmation for correctness.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devdesk/helpdesk/internal/config"
)

// Kind identifies a notification template.
type Kind string

const (
	KindStatusUpdate    Kind = "status_update"
	KindAssignmentOwner Kind = "assignment_owner"
	KindAssignmentAgent Kind = "assignment_agent"
	KindSLABreach       Kind = "sla_breach"
	KindPasswordReset   Kind = "password_reset"
)

// Notification carries a recipient, a template kind and contextual
// fields; rendering and delivery happen out-of-band.
type Notification struct {
	Recipient string            `json:"recipient"`
	Kind      Kind              `json:"kind"`
	Fields    map[string]string `json:"fields"`
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// WebhookSender posts notifications to a configured webhook and logs
// every send. With no webhook configured it degrades to log-only, which
// keeps development environments mail-free.
type WebhookSender struct {
	cfg    config.NotificationConfig
	client *http.Client
	logger *zap.Logger
}

// NewWebhookSender constructs the sender.
func NewWebhookSender(cfg config.NotificationConfig, logger *zap.Logger) *WebhookSender {
	return &WebhookSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Send delivers one notification.
func (s *WebhookSender) Send(ctx context.Context, n Notification) error {
	s.logger.Info("notification",
		zap.String("kind", string(n.Kind)),
		zap.String("recipient", n.Recipient),
		zap.String("from", s.cfg.EmailFrom),
	)

	if strings.TrimSpace(s.cfg.WebhookURL) == "" {
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}
	return nil
}
