package store

import (
	"errors"
	"fmt"

	"github.com/bullpost/bullpost-client/internal/api"
	"github.com/bullpost/bullpost-client/internal/metrics"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/notifications"
)

// ValidationError is a client-side rejection reported next to a field.
// No request is sent when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

var (
	ErrEmailRequired  = &ValidationError{Field: "email", Message: "Email is required"}
	ErrEmailInvalid   = &ValidationError{Field: "email", Message: "Invalid email format"}
	ErrOTPRequired    = &ValidationError{Field: "otp", Message: "Code is required"}
	ErrEmptyPost      = &ValidationError{Field: "text", Message: "Post text cannot be empty"}
	ErrUnknownChannel = &ValidationError{Field: "channel", Message: "Unknown channel"}
	ErrInvalidPage    = &ValidationError{Field: "page", Message: "Page must be 1 or greater"}
	ErrScheduleInPast = &ValidationError{Field: "dateTime", Message: "Schedule time must be in the future"}
	ErrNothingToSave  = &ValidationError{Field: "preferences", Message: "Nothing to save"}
)

var (
	// ErrCooldownActive is returned while a new OTP may not be requested yet
	ErrCooldownActive = errors.New("wait for the cooldown before requesting another code")

	// ErrInFlight is returned when the container already has a request outstanding
	ErrInFlight = errors.New("a request is already in flight")

	// ErrNoMorePages is returned when the requested page is past the known total
	ErrNoMorePages = errors.New("no more pages")

	// ErrStale is returned when a completion arrived after the container was
	// reset or moved on; its result was discarded.
	ErrStale = errors.New("request superseded")

	// ErrReauthRequired wraps missing or rejected credentials
	ErrReauthRequired = errors.New("re-authentication required")

	// ErrOAuthOnly is returned for accounts that can only be linked through OAuth
	ErrOAuthOnly = errors.New("this account type is linked through OAuth")

	// ErrInvalidTransition is returned when a post's status does not allow the action
	ErrInvalidTransition = errors.New("post status does not allow this action")

	// ErrMismatchedResponse is returned when the backend answers about another post
	ErrMismatchedResponse = errors.New("backend answered for a different post")
)

// surface routes a failed backend call to the notification channel and
// returns the error the caller should see.
func surface(n notifications.Notifier, err error) error {
	var validation *ValidationError
	var apiErr *api.APIError

	switch {
	case err == nil:
		return nil
	case errors.As(err, &validation), errors.Is(err, ErrStale):
		return err
	case errors.Is(err, api.ErrNotAuthenticated), errors.Is(err, api.ErrUnauthorized):
		n.Notify(models.LevelReauth, notifications.ReauthMessage)
		return fmt.Errorf("%w: %w", ErrReauthRequired, err)
	case errors.As(err, &apiErr):
		n.Notify(models.LevelError, apiErr.Message)
		return err
	default:
		n.Notify(models.LevelError, notifications.GenericError)
		return err
	}
}

// message returns the text to show inline for a failed call
func message(err error) string {
	var validation *ValidationError
	var apiErr *api.APIError
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	}
	return notifications.GenericError
}

func stale(container string) error {
	metrics.StaleCompletionsTotal.WithLabelValues(container).Inc()
	return ErrStale
}
