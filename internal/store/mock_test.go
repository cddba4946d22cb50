package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bullpost/bullpost-client/internal/cache"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/notifications"
	"github.com/bullpost/bullpost-client/internal/storage"
	"github.com/stretchr/testify/mock"
)

// MockBackend is a mock implementation of the backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) SetToken(token string) {
	m.Called(token)
}

func (m *MockBackend) ClearCookie(name string) {
	m.Called(name)
}

func (m *MockBackend) SendOTP(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) VerifyOTP(ctx context.Context, email, otp string) (*models.Session, error) {
	args := m.Called(ctx, email, otp)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func (m *MockBackend) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) OAuthURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) GetAccounts(ctx context.Context, channels []models.Channel) (models.AccountSet, error) {
	args := m.Called(ctx, channels)
	return args.Get(0).(models.AccountSet), args.Error(1)
}

func (m *MockBackend) AddDiscordWebhook(ctx context.Context, groupName, webhookURL string) (models.DiscordAccount, error) {
	args := m.Called(ctx, groupName, webhookURL)
	return args.Get(0).(models.DiscordAccount), args.Error(1)
}

func (m *MockBackend) AddTelegramChat(ctx context.Context, groupName, chatID string) (models.TelegramAccount, error) {
	args := m.Called(ctx, groupName, chatID)
	return args.Get(0).(models.TelegramAccount), args.Error(1)
}

func (m *MockBackend) RemoveAccount(ctx context.Context, ch models.Channel, key string) error {
	args := m.Called(ctx, ch, key)
	return args.Error(0)
}

func (m *MockBackend) AssignAccount(ctx context.Context, account models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockBackend) GetPreferences(ctx context.Context) (models.Preferences, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Preferences), args.Error(1)
}

func (m *MockBackend) UpdatePreferences(ctx context.Context, patch models.PreferencesPatch) (*models.Preferences, error) {
	args := m.Called(ctx, patch)
	prefs, _ := args.Get(0).(*models.Preferences)
	return prefs, args.Error(1)
}

func (m *MockBackend) PostsByStatus(ctx context.Context, status models.Status, page, limit int) (models.PostPage, error) {
	args := m.Called(ctx, status, page, limit)
	return args.Get(0).(models.PostPage), args.Error(1)
}

func (m *MockBackend) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	args := m.Called(ctx, id, patch)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *MockBackend) Regenerate(ctx context.Context, provider models.Provider, ch models.Channel, postID string) (models.Generated, error) {
	args := m.Called(ctx, provider, ch, postID)
	return args.Get(0).(models.Generated), args.Error(1)
}

func (m *MockBackend) PostNow(ctx context.Context, ch models.Channel, id string) (*models.Post, error) {
	args := m.Called(ctx, ch, id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *MockBackend) SchedulePost(ctx context.Context, ch models.Channel, id string, at time.Time, loc *time.Location) (*models.Post, error) {
	args := m.Called(ctx, ch, id, at, loc)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

func (m *MockBackend) Unpublish(ctx context.Context, ch models.Channel, id string) (*models.Post, error) {
	args := m.Called(ctx, ch, id)
	post, _ := args.Get(0).(*models.Post)
	return post, args.Error(1)
}

// manualTicker fires only when the test says so
type manualTicker struct {
	mu      sync.Mutex
	fn      func()
	stopped bool
	starts  int
}

func (t *manualTicker) Start(fn func()) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fn = fn
	t.stopped = false
	t.starts++
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.stopped = true
	}
}

func (t *manualTicker) fire() {
	t.mu.Lock()
	fn, stopped := t.fn, t.stopped
	t.mu.Unlock()
	if fn != nil && !stopped {
		fn()
	}
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fixture is a store wired over a mock backend and an in-memory cache
type fixture struct {
	backend *MockBackend
	storage *storage.MemoryStorage
	cache   *cache.Cache
	center  *notifications.Center
	ticker  *manualTicker
	store   *Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: new(MockBackend),
		storage: storage.NewMemoryStorage(),
		center:  notifications.NewCenter(50, nil),
		ticker:  &manualTicker{},
	}
	f.cache = cache.New(f.storage)
	f.backend.On("SetToken", mock.Anything).Return().Maybe()
	f.backend.On("ClearCookie", mock.Anything).Return().Maybe()
	f.store = New(f.backend, f.cache, f.center, Options{
		CooldownSeconds: 60,
		PageSize:        10,
		CookieName:      "connect.sid",
		Location:        time.UTC,
		Ticker:          f.ticker,
	})
	return f
}

// loggedIn hydrates the fixture with a cached session
func (f *fixture) loggedIn(t *testing.T) {
	t.Helper()
	if err := f.cache.SaveSession(models.Session{Token: "abc", User: &models.UserProfile{UserName: "Ada"}}); err != nil {
		t.Fatal(err)
	}
	f.store.Auth.hydrate(f.cache.Session())
}

func (f *fixture) levels() []models.Level {
	var out []models.Level
	for _, n := range f.center.Active() {
		out = append(out, n.Level)
	}
	return out
}

// gate blocks a mocked call until released
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) hold(mock.Arguments) {
	close(g.entered)
	<-g.release
}
