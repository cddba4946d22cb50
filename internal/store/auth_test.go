package store

import (
	"context"
	"errors"
	"testing"

	"github.com/bullpost/bullpost-client/internal/api"
	"github.com/bullpost/bullpost-client/internal/cache"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  error
	}{
		{name: "Valid", email: "a@b.co", want: nil},
		{name: "Surrounding spaces", email: "  a@b.co ", want: nil},
		{name: "Empty", email: "", want: ErrEmailRequired},
		{name: "Blank", email: "   ", want: ErrEmailRequired},
		{name: "No at sign", email: "ab.co", want: ErrEmailInvalid},
		{name: "No dot in domain", email: "a@b", want: ErrEmailInvalid},
		{name: "Inner space", email: "a b@c.co", want: ErrEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestRequestOTPInvalidEmailMakesNoCall(t *testing.T) {
	f := newFixture(t)

	err := f.store.Auth.RequestOTP(context.Background(), "not-an-email")

	assert.Equal(t, ErrEmailInvalid, err)
	assert.Equal(t, "Invalid email format", f.store.Auth.LastError())
	assert.False(t, f.store.Auth.Cooldown().Active())
	assert.Empty(t, f.center.Active())
	f.backend.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
}

func TestRequestOTPStartsCooldown(t *testing.T) {
	f := newFixture(t)
	f.backend.On("SendOTP", mock.Anything, "a@b.co").Return("OTP sent", nil).Once()
	auth := f.store.Auth

	require.NoError(t, auth.RequestOTP(context.Background(), "a@b.co"))
	assert.True(t, auth.OTPOutstanding())
	assert.True(t, auth.CanContinue())
	assert.Equal(t, "Wait 60s", auth.Cooldown().Label())
	assert.Equal(t, []models.Level{models.LevelSuccess}, f.levels())

	// A second request inside the window is refused locally
	assert.ErrorIs(t, auth.RequestOTP(context.Background(), "a@b.co"), ErrCooldownActive)

	for i := 0; i < 60; i++ {
		f.ticker.fire()
	}
	assert.Equal(t, "Get Code", auth.Cooldown().Label())
	assert.True(t, f.ticker.isStopped())
	f.backend.AssertNumberOfCalls(t, "SendOTP", 1)
}

func TestRequestOTPFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.On("SendOTP", mock.Anything, "a@b.co").
		Return("", &api.APIError{Operation: "send otp", StatusCode: 429, Message: "Too many requests"})
	auth := f.store.Auth

	err := auth.RequestOTP(context.Background(), "a@b.co")

	require.Error(t, err)
	assert.Equal(t, "Too many requests", auth.LastError())
	assert.False(t, auth.CanContinue())
	assert.False(t, auth.Cooldown().Active())
	require.Len(t, f.center.Active(), 1)
	assert.Equal(t, "Too many requests", f.center.Active()[0].Message)
}

func TestLoginPersistsSession(t *testing.T) {
	f := newFixture(t)
	f.store.Auth.hydrate(models.Session{})
	user := &models.UserProfile{UserName: "Ada", Email: "a@b.co"}
	f.backend.On("VerifyOTP", mock.Anything, "a@b.co", "123456").
		Return(&models.Session{Token: "abc", User: user}, nil)

	require.NoError(t, f.store.Auth.Login(context.Background(), "a@b.co", "123456"))

	assert.True(t, f.store.Auth.IsLoggedIn())
	assert.Equal(t, "Ada", f.store.Auth.Session().User.UserName)
	token, err := f.storage.Retrieve(cache.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(token))
	assert.Equal(t, "abc", f.cache.Session().Token)
	f.backend.AssertCalled(t, "SetToken", "abc")
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, ErrOTPRequired, f.store.Auth.Login(context.Background(), "a@b.co", " "))
	assert.Equal(t, ErrEmailRequired, f.store.Auth.Login(context.Background(), "", "123456"))
	assert.Equal(t, "Email is required", f.store.Auth.LastError())
	f.backend.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	f := newFixture(t)
	f.store.Auth.hydrate(models.Session{})
	f.backend.On("VerifyOTP", mock.Anything, "a@b.co", "000000").
		Return(nil, &api.APIError{Operation: "verify otp", StatusCode: 400, Message: "Invalid OTP"})

	err := f.store.Auth.Login(context.Background(), "a@b.co", "000000")

	require.Error(t, err)
	assert.False(t, f.store.Auth.IsLoggedIn())
	assert.False(t, f.store.Auth.LoginPending())
	assert.Equal(t, "Invalid OTP", f.store.Auth.LastError())
	assert.True(t, f.cache.Session().Anonymous())
}

func TestIsLoggedInNeedsHydration(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.cache.SaveSession(models.Session{Token: "abc"}))

	assert.False(t, f.store.Auth.IsLoggedIn())
	f.store.Auth.hydrate(f.cache.Session())
	assert.True(t, f.store.Auth.IsLoggedIn())
}

func TestLogoutRestoresAnonymousState(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	require.NoError(t, f.cache.SaveProviderFlags(models.FlagsFor(models.ProviderGemini)))
	f.backend.On("Logout", mock.Anything).Return(errors.New("connection refused"))
	f.backend.On("GetAccounts", mock.Anything, models.AllChannels).
		Return(models.AccountSet{Discord: []models.DiscordAccount{{ID: "d1", WebhookURL: "w1"}}}, nil)
	f.backend.On("PostsByStatus", mock.Anything, models.StatusDrafts, 1, 10).
		Return(models.PostPage{Posts: []models.Post{{ID: "p1"}}, TotalPages: 1}, nil)
	ctx := context.Background()
	require.NoError(t, f.store.Accounts.LoadAccounts(ctx))
	require.NoError(t, f.store.Posts.Refresh(ctx))

	f.store.Auth.Logout(ctx)

	assert.False(t, f.store.Auth.IsLoggedIn())
	assert.True(t, f.store.Auth.Session().Anonymous())
	assert.True(t, f.cache.Session().Anonymous())
	_, ok := f.cache.ProviderFlags()
	assert.False(t, ok)
	assert.Equal(t, 0, f.store.Accounts.Accounts().Len(models.ChannelDiscord))
	assert.Empty(t, f.store.Posts.Posts())
	assert.Equal(t, models.StatusDrafts, f.store.Posts.Status())
	f.backend.AssertCalled(t, "SetToken", "")
	f.backend.AssertCalled(t, "ClearCookie", "connect.sid")
}

func TestLogoutDiscardsInFlightLogin(t *testing.T) {
	f := newFixture(t)
	f.store.Auth.hydrate(models.Session{})
	g := newGate()
	f.backend.On("VerifyOTP", mock.Anything, "a@b.co", "123456").
		Return(&models.Session{Token: "late"}, nil).Run(g.hold)

	done := make(chan error, 1)
	go func() {
		done <- f.store.Auth.Login(context.Background(), "a@b.co", "123456")
	}()
	<-g.entered
	f.store.Auth.Logout(context.Background())
	close(g.release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.False(t, f.store.Auth.IsLoggedIn())
	assert.True(t, f.cache.Session().Anonymous())
}

func TestBeginOAuthRecordsIntent(t *testing.T) {
	f := newFixture(t)
	f.backend.On("OAuthURL", mock.Anything).Return("https://twitter.com/auth", nil)

	u, err := f.store.Auth.BeginOAuth(context.Background(), true)

	require.NoError(t, err)
	assert.Equal(t, "https://twitter.com/auth", u)
	assert.True(t, f.cache.AddAccountPending())
}

func TestCompleteOAuthLinksAccount(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	require.NoError(t, f.cache.SetAddAccount(true))
	f.backend.On("GetAccounts", mock.Anything, models.AllChannels).
		Return(models.AccountSet{Twitter: []models.TwitterAccount{{ID: "t1", TwitterName: "@bull", RefreshToken: "r1"}}}, nil)

	linked, err := f.store.Auth.CompleteOAuth(context.Background(), "", nil)

	require.NoError(t, err)
	assert.True(t, linked)
	assert.False(t, f.cache.AddAccountPending())
	assert.Equal(t, 1, f.store.Accounts.Accounts().Len(models.ChannelTwitter))
	assert.Equal(t, "abc", f.store.Auth.Session().Token)
}

func TestCompleteOAuthStartsSession(t *testing.T) {
	f := newFixture(t)
	f.store.Auth.hydrate(models.Session{})

	linked, err := f.store.Auth.CompleteOAuth(context.Background(), "tok", &models.UserProfile{UserName: "bull"})
	require.NoError(t, err)
	assert.False(t, linked)
	assert.True(t, f.store.Auth.IsLoggedIn())
	assert.Equal(t, "tok", f.cache.Session().Token)

	_, err = newFixture(t).store.Auth.CompleteOAuth(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrReauthRequired)
}
