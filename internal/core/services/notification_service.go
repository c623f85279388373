package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/models"
	"github.com/MilindPius2005/library-management-system/internal/adapters/persistence/repositories"
)

// NotificationService delivers user notifications: every message is
// persisted as a notification row, and optionally forwarded to a webhook.
// It is always invoked after the borrow/return unit commits.
type NotificationService struct {
	repo       repositories.NotificationRepository
	webhookURL string
	enabled    bool
	client     *http.Client
}

// NewNotificationService creates a new notification service; an empty
// webhook URL disables forwarding but keeps the persisted rows.
func NewNotificationService(repo repositories.NotificationRepository, webhookURL string) *NotificationService {
	return &NotificationService{
		repo:       repo,
		webhookURL: webhookURL,
		enabled:    webhookURL != "",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if webhook forwarding is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// Notify records the message for the user and forwards it if a webhook is
// configured. A returned error means delivery failed; callers log and
// continue, so a failed notification never rolls back a committed loan.
func (s *NotificationService) Notify(ctx context.Context, userID uint, message, notifType string) error {
	if s.repo != nil {
		n := &models.Notification{
			UserID:  userID,
			Message: message,
			Type:    notifType,
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return fmt.Errorf("persist notification: %w", err)
		}
	}

	return s.sendWebhook(ctx, userID, message, notifType)
}

// sendWebhook posts the message to the configured webhook
func (s *NotificationService) sendWebhook(ctx context.Context, userID uint, message, notifType string) error {
	if !s.enabled {
		return nil
	}

	data := url.Values{}
	data.Set("user_id", strconv.FormatUint(uint64(userID), 10))
	data.Set("message", message)
	data.Set("type", notifType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook delivery failed: status %d", resp.StatusCode)
	}

	log.Printf("📨 Notified user %d [%s]", userID, notifType)
	return nil
}
