package notifications

import (
	"sync"
	"time"

	"github.com/bullpost/bullpost-client/internal/metrics"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GenericError is shown when the backend gives no message of its own
const GenericError = "Something went wrong. Please try again."

// ReauthMessage asks the user to sign in again
const ReauthMessage = "Your session has expired. Please log in again."

// Center holds transient notifications until they are dismissed. Error
// notifications are optionally forwarded as alerts.
type Center struct {
	mu      sync.Mutex
	items   []models.Notification
	limit   int
	forward NotificationInterface
	nowFunc func() time.Time
}

var _ Notifier = (*Center)(nil)

// NewCenter keeps at most limit undismissed notifications, dropping the
// oldest first. forward may be nil.
func NewCenter(limit int, forward NotificationInterface) *Center {
	if limit <= 0 {
		limit = 20
	}
	return &Center{limit: limit, forward: forward, nowFunc: time.Now}
}

// Notify records a notification and returns it
func (c *Center) Notify(level models.Level, message string) models.Notification {
	if message == "" {
		message = GenericError
	}

	n := models.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: c.nowFunc(),
	}

	c.mu.Lock()
	c.items = append(c.items, n)
	if len(c.items) > c.limit {
		c.items = append([]models.Notification(nil), c.items[len(c.items)-c.limit:]...)
	}
	c.mu.Unlock()

	metrics.NotificationsTotal.WithLabelValues(string(level)).Inc()

	switch level {
	case models.LevelError, models.LevelReauth:
		logrus.Warnf("Notification (%s): %s", level, message)
		if c.forward != nil {
			alert := &models.Alert{
				ID:        n.ID,
				Type:      "urgent",
				Title:     "BullPost client error",
				Message:   message,
				CreatedAt: n.CreatedAt,
			}
			if err := c.forward.SendAlert(alert); err != nil {
				logrus.Errorf("Failed to forward alert: %v", err)
			}
		}
	default:
		logrus.Infof("Notification (%s): %s", level, message)
	}

	return n
}

// Active returns the undismissed notifications, oldest first
func (c *Center) Active() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Notification(nil), c.items...)
}

// Dismiss removes a notification; unknown ids are ignored
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.items {
		if n.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear dismisses everything
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}
