package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/calloway-legal/caseflow/pkg/config"
	"github.com/calloway-legal/caseflow/pkg/logger"
)

// Notification is a message to deliver on behalf of an automation rule
type Notification struct {
	Recipient string
	Subject   string
	Message   string
}

// NotificationService delivers notifications through the configured
// channels. With no channel enabled it logs the notification, which keeps
// rule execution observable in development.
type NotificationService struct {
	config     *config.NotificationConfig
	logger     *logger.Logger
	httpClient *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg *config.NotificationConfig, log *logger.Logger) *NotificationService {
	if log == nil {
		log = logger.NewNop()
	}
	return &NotificationService{
		config: cfg,
		logger: log,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send delivers the notification via every enabled channel
func (s *NotificationService) Send(ctx context.Context, n Notification) error {
	var errs []error

	if s.config.Email.Enabled && n.Recipient != "" {
		if err := s.sendEmail(n); err != nil {
			s.logger.Error("Failed to send email notification", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if s.config.Slack.Enabled {
		if err := s.sendSlack(ctx, n); err != nil {
			s.logger.Error("Failed to send slack notification", zap.Error(err))
			errs = append(errs, err)
		}
	}

	if !s.config.Email.Enabled && !s.config.Slack.Enabled {
		s.logger.Info("Notification",
			zap.String("recipient", n.Recipient),
			zap.String("subject", n.Subject),
			zap.String("message", n.Message),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %v", errs)
	}
	return nil
}

func (s *NotificationService) sendEmail(n Notification) error {
	cfg := s.config.Email
	addr := fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort)

	msg := []byte(fmt.Sprintf("To: %s\r\nFrom: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.Recipient, cfg.FromAddress, n.Subject, n.Message))

	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, cfg.FromAddress, []string{n.Recipient}, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (s *NotificationService) sendSlack(ctx context.Context, n Notification) error {
	payload := map[string]string{
		"text": fmt.Sprintf("*%s*\n%s", n.Subject, n.Message),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Slack.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}
