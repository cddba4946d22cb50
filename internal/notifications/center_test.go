package notifications

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendReport(report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockNotificationService) SendAlert(alert *models.Alert) error {
	args := m.Called(alert)
	return args.Error(0)
}

func TestCenterNotify(t *testing.T) {
	c := NewCenter(10, nil)

	n := c.Notify(models.LevelSuccess, "Post updated")
	empty := c.Notify(models.LevelError, "")

	assert.NotEmpty(t, n.ID)
	assert.NotEqual(t, n.ID, empty.ID)
	assert.Equal(t, GenericError, empty.Message)
	assert.Equal(t, []models.Notification{n, empty}, c.Active())
}

func TestCenterDropsOldest(t *testing.T) {
	c := NewCenter(3, nil)
	for i := 0; i < 5; i++ {
		c.Notify(models.LevelInfo, fmt.Sprintf("message %d", i))
	}

	active := c.Active()
	require.Len(t, active, 3)
	assert.Equal(t, "message 2", active[0].Message)
	assert.Equal(t, "message 4", active[2].Message)
}

func TestCenterDismiss(t *testing.T) {
	c := NewCenter(10, nil)
	first := c.Notify(models.LevelInfo, "one")
	c.Notify(models.LevelInfo, "two")

	assert.True(t, c.Dismiss(first.ID))
	assert.False(t, c.Dismiss(first.ID))
	require.Len(t, c.Active(), 1)
	assert.Equal(t, "two", c.Active()[0].Message)

	c.Clear()
	assert.Empty(t, c.Active())
}

func TestCenterForwardsErrorsOnly(t *testing.T) {
	forward := new(MockNotificationService)
	forward.On("SendAlert", mock.MatchedBy(func(a *models.Alert) bool {
		return a.Message == ReauthMessage && a.Type == "urgent"
	})).Return(errors.New("teams down"))
	c := NewCenter(10, forward)

	c.Notify(models.LevelSuccess, "Preferences saved")
	n := c.Notify(models.LevelReauth, ReauthMessage)

	// A failed forward still records the notification
	assert.Len(t, c.Active(), 2)
	assert.Equal(t, n, c.Active()[1])
	forward.AssertNumberOfCalls(t, "SendAlert", 1)
}
