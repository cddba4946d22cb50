package notifications

import "github.com/bullpost/bullpost-client/internal/models"

// NotificationInterface defines the contract for forwarding notifications
// outside the process
type NotificationInterface interface {
	SendReport(report *models.Report) error
	SendAlert(alert *models.Alert) error
}

// Notifier receives user-facing notifications raised by the state containers
type Notifier interface {
	Notify(level models.Level, message string) models.Notification
}
