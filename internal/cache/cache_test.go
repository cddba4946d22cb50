package cache

import (
	"errors"
	"testing"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock implementation of the storage interface
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Store(key string, data []byte) error {
	args := m.Called(key, data)
	return args.Error(0)
}

func (m *MockStorage) Retrieve(key string) ([]byte, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockStorage) List(prefix string) ([]string, error) {
	args := m.Called(prefix)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func TestSessionRoundTrip(t *testing.T) {
	c := New(storage.NewMemoryStorage())
	assert.True(t, c.Session().Anonymous())

	session := models.Session{Token: "abc", User: &models.UserProfile{UserName: "Ada", TrafficCounter: 2}}
	require.NoError(t, c.SaveSession(session))

	assert.Equal(t, session, c.Session())
}

func TestSessionWithoutUserDropsStaleProfile(t *testing.T) {
	s := storage.NewMemoryStorage()
	c := New(s)
	require.NoError(t, c.SaveSession(models.Session{Token: "abc", User: &models.UserProfile{UserName: "Ada"}}))

	require.NoError(t, c.SaveSession(models.Session{Token: "def"}))

	assert.Equal(t, models.Session{Token: "def"}, c.Session())
}

func TestMalformedUserIsIgnored(t *testing.T) {
	s := storage.NewMemoryStorage()
	require.NoError(t, s.Store(KeyToken, []byte("abc")))
	require.NoError(t, s.Store(KeyUser, []byte("{not json")))

	session := New(s).Session()

	assert.Equal(t, "abc", session.Token)
	assert.Nil(t, session.User)
}

func TestUnreadableStorageYieldsAnonymous(t *testing.T) {
	s := new(MockStorage)
	s.On("Retrieve", mock.Anything).Return(nil, errors.New("disk on fire"))

	assert.True(t, New(s).Session().Anonymous())
}

func TestProviderFlags(t *testing.T) {
	c := New(storage.NewMemoryStorage())
	_, ok := c.ProviderFlags()
	assert.False(t, ok)

	require.NoError(t, c.SaveProviderFlags(models.FlagsFor(models.ProviderGemini)))
	flags, ok := c.ProviderFlags()
	assert.True(t, ok)
	assert.Equal(t, models.ProviderGemini, flags.Provider())
}

func TestAddAccountFlag(t *testing.T) {
	c := New(storage.NewMemoryStorage())
	assert.False(t, c.AddAccountPending())

	require.NoError(t, c.SetAddAccount(true))
	assert.True(t, c.AddAccountPending())

	require.NoError(t, c.SetAddAccount(false))
	assert.False(t, c.AddAccountPending())
}

func TestClearAttemptsEveryKey(t *testing.T) {
	s := new(MockStorage)
	s.On("Delete", KeyToken).Return(errors.New("locked"))
	s.On("Delete", KeyUser).Return(nil)
	s.On("Delete", KeyUserPreference).Return(nil)
	s.On("Delete", KeyAddAccount).Return(nil)

	err := New(s).Clear()

	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyToken)
	s.AssertNumberOfCalls(t, "Delete", 4)
}
