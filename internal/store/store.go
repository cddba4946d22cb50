package store

import (
	"context"
	"time"

	"github.com/bullpost/bullpost-client/internal/cache"
	"github.com/bullpost/bullpost-client/internal/notifications"
	"github.com/sirupsen/logrus"
)

// Options tunes a Store
type Options struct {
	CooldownSeconds int
	PageSize        int
	CookieName      string
	Location        *time.Location
	Ticker          Ticker
}

// Store is the client state: one instance per session, created at start
// and passed to whatever needs it.
type Store struct {
	Auth     *AuthStore
	Accounts *AccountsStore
	Posts    *PostsStore

	cache    *cache.Cache
	notifier notifications.Notifier
}

// New wires the three containers over one backend and cache
func New(backend Backend, c *cache.Cache, n notifications.Notifier, opts Options) *Store {
	if opts.CooldownSeconds <= 0 {
		opts.CooldownSeconds = 60
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}

	accounts := NewAccountsStore(backend, c, n)
	posts := NewPostsStore(backend, n, accounts.Provider, opts.Location, opts.PageSize)
	auth := NewAuthStore(backend, c, n, opts.CookieName, NewCooldown(opts.CooldownSeconds, opts.Ticker))

	auth.OnLogout(func() {
		accounts.Reset()
		posts.Reset()
	})
	auth.OnAccountLinked(func(ctx context.Context) error {
		return accounts.LoadAccounts(ctx)
	})

	return &Store{
		Auth:     auth,
		Accounts: accounts,
		Posts:    posts,
		cache:    c,
		notifier: n,
	}
}

// Hydrate reads the cold-start cache, then reconciles the preferences with
// the backend when a session exists. The cached session is read nowhere else.
func (s *Store) Hydrate(ctx context.Context) error {
	session := s.cache.Session()
	s.Auth.hydrate(session)
	if flags, ok := s.cache.ProviderFlags(); ok {
		s.Accounts.seedProvider(flags)
	}

	if !s.Auth.IsLoggedIn() {
		logrus.Debug("No cached session")
		return nil
	}

	name := ""
	if session.User != nil {
		name = session.User.UserName
	}
	logrus.Debugf("Hydrated session for %q, reconciling preferences", name)
	return s.Accounts.LoadPreferences(ctx)
}
