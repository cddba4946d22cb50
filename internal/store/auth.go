package store

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/bullpost/bullpost-client/internal/cache"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/notifications"
	"github.com/sirupsen/logrus"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail applies the client-side e-mail check used before any request
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// AuthStore holds the session and the OTP login flow
type AuthStore struct {
	backend    AuthBackend
	cache      *cache.Cache
	notifier   notifications.Notifier
	cookieName string
	cooldown   *Cooldown

	mu             sync.Mutex
	session        models.Session
	hydrated       bool
	otpPending     bool
	otpOutstanding bool
	canContinue    bool
	loginPending   bool
	lastError      string
	gen            uint64

	onLogout        []func()
	onAccountLinked []func(ctx context.Context) error
}

// NewAuthStore creates an unhydrated auth container
func NewAuthStore(backend AuthBackend, c *cache.Cache, n notifications.Notifier, cookieName string, cooldown *Cooldown) *AuthStore {
	return &AuthStore{
		backend:    backend,
		cache:      c,
		notifier:   n,
		cookieName: cookieName,
		cooldown:   cooldown,
	}
}

// OnLogout registers a listener fired after every logout
func (a *AuthStore) OnLogout(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onLogout = append(a.onLogout, fn)
}

// OnAccountLinked registers a listener fired when OAuth links an account
func (a *AuthStore) OnAccountLinked(fn func(ctx context.Context) error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onAccountLinked = append(a.onAccountLinked, fn)
}

// hydrate installs the cached session. Until it runs IsLoggedIn is false.
func (a *AuthStore) hydrate(session models.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = session
	a.hydrated = true
	a.backend.SetToken(session.Token)
}

// IsLoggedIn is true once hydration completed and a token is held
func (a *AuthStore) IsLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hydrated && a.session.Token != ""
}

// Hydrated reports whether the cached session has been read
func (a *AuthStore) Hydrated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hydrated
}

// Session returns a copy of the current session
func (a *AuthStore) Session() models.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.session
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// LastError is the inline error of the last failed OTP request or login
func (a *AuthStore) LastError() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastError
}

// OTPOutstanding reports whether a code was sent and not yet redeemed
func (a *AuthStore) OTPOutstanding() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.otpOutstanding
}

// CanContinue reports whether the code entry step may be submitted
func (a *AuthStore) CanContinue() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.canContinue
}

// LoginPending reports whether a verification is in flight
func (a *AuthStore) LoginPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loginPending
}

// Cooldown exposes the OTP request countdown
func (a *AuthStore) Cooldown() *Cooldown {
	return a.cooldown
}

// RequestOTP validates the address and asks the backend to send a code
func (a *AuthStore) RequestOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		a.setError(message(err))
		return err
	}
	if a.cooldown.Active() {
		return ErrCooldownActive
	}

	a.mu.Lock()
	if a.otpPending {
		a.mu.Unlock()
		return ErrInFlight
	}
	a.otpPending = true
	gen := a.gen
	a.mu.Unlock()

	msg, err := a.backend.SendOTP(ctx, email)

	a.mu.Lock()
	a.otpPending = false
	if gen != a.gen {
		a.mu.Unlock()
		return stale("auth")
	}
	if err != nil {
		a.lastError = message(err)
		a.canContinue = false
		a.otpOutstanding = false
		a.mu.Unlock()
		return surface(a.notifier, err)
	}
	a.lastError = ""
	a.otpOutstanding = true
	a.canContinue = true
	a.mu.Unlock()

	a.cooldown.Start()
	logrus.Infof("OTP sent to %s", email)
	if msg != "" {
		a.notifier.Notify(models.LevelSuccess, msg)
	}
	return nil
}

// Login redeems a code. The session is written to the cache only after the
// backend confirmed it.
func (a *AuthStore) Login(ctx context.Context, email, otp string) error {
	email = strings.TrimSpace(email)
	otp = strings.TrimSpace(otp)
	if err := ValidateEmail(email); err != nil {
		a.setError(message(err))
		return err
	}
	if otp == "" {
		a.setError(ErrOTPRequired.Message)
		return ErrOTPRequired
	}

	a.mu.Lock()
	a.loginPending = true
	gen := a.gen
	a.mu.Unlock()

	session, err := a.backend.VerifyOTP(ctx, email, otp)

	a.mu.Lock()
	a.loginPending = false
	if gen != a.gen {
		a.mu.Unlock()
		return stale("auth")
	}
	if err != nil {
		a.lastError = message(err)
		a.mu.Unlock()
		return surface(a.notifier, err)
	}
	a.mu.Unlock()

	a.establish(*session)
	a.cooldown.Stop()
	logrus.Infof("Logged in as %s", email)
	return nil
}

// establish persists and installs a confirmed session
func (a *AuthStore) establish(session models.Session) {
	if err := a.cache.SaveSession(session); err != nil {
		logrus.Warnf("Failed to persist session: %v", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = session
	a.hydrated = true
	a.lastError = ""
	a.otpOutstanding = false
	a.canContinue = false
	a.backend.SetToken(session.Token)
}

// Logout forgets the session everywhere. The backend call is best-effort.
func (a *AuthStore) Logout(ctx context.Context) {
	a.mu.Lock()
	hadToken := a.session.Token != ""
	a.mu.Unlock()

	if hadToken {
		if err := a.backend.Logout(ctx); err != nil {
			logrus.Warnf("Backend logout failed: %v", err)
		}
	}

	if err := a.cache.Clear(); err != nil {
		logrus.Warnf("Failed to clear cached session: %v", err)
	}

	a.mu.Lock()
	a.session = models.Session{}
	a.gen++
	a.otpOutstanding = false
	a.canContinue = false
	a.lastError = ""
	a.backend.SetToken("")
	a.backend.ClearCookie(a.cookieName)
	listeners := append([]func(){}, a.onLogout...)
	a.mu.Unlock()

	a.cooldown.Stop()
	for _, fn := range listeners {
		fn()
	}
	logrus.Info("Logged out")
}

// BeginOAuth returns the Twitter authorisation URL. When addAccount is set
// the redirect links an account to the current user instead of logging in.
func (a *AuthStore) BeginOAuth(ctx context.Context, addAccount bool) (string, error) {
	u, err := a.backend.OAuthURL(ctx)
	if err != nil {
		return "", surface(a.notifier, err)
	}
	if err := a.cache.SetAddAccount(addAccount); err != nil {
		logrus.Warnf("Failed to record OAuth intent: %v", err)
	}
	return u, nil
}

// CompleteOAuth finishes an OAuth redirect. It returns true when the
// redirect linked an account rather than starting a session.
func (a *AuthStore) CompleteOAuth(ctx context.Context, token string, user *models.UserProfile) (bool, error) {
	if a.cache.AddAccountPending() && a.IsLoggedIn() {
		if err := a.cache.SetAddAccount(false); err != nil {
			logrus.Warnf("Failed to clear OAuth intent: %v", err)
		}

		a.mu.Lock()
		listeners := append([]func(context.Context) error{}, a.onAccountLinked...)
		a.mu.Unlock()

		for _, fn := range listeners {
			if err := fn(ctx); err != nil {
				return true, err
			}
		}
		a.notifier.Notify(models.LevelSuccess, "Twitter account connected")
		return true, nil
	}

	if strings.TrimSpace(token) == "" {
		return false, ErrReauthRequired
	}
	a.establish(models.Session{Token: token, User: user})
	return false, nil
}

func (a *AuthStore) setError(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = msg
}
