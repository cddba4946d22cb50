package store

import (
	"context"
	"time"

	"github.com/bullpost/bullpost-client/internal/api"
	"github.com/bullpost/bullpost-client/internal/models"
)

// AuthBackend is the part of the backend the auth container talks to
type AuthBackend interface {
	SetToken(token string)
	SendOTP(ctx context.Context, email string) (string, error)
	VerifyOTP(ctx context.Context, email, otp string) (*models.Session, error)
	Logout(ctx context.Context) error
	OAuthURL(ctx context.Context) (string, error)
	ClearCookie(name string)
}

// AccountsBackend is the part of the backend the accounts container talks to
type AccountsBackend interface {
	GetAccounts(ctx context.Context, channels []models.Channel) (models.AccountSet, error)
	AddDiscordWebhook(ctx context.Context, groupName, webhookURL string) (models.DiscordAccount, error)
	AddTelegramChat(ctx context.Context, groupName, chatID string) (models.TelegramAccount, error)
	RemoveAccount(ctx context.Context, ch models.Channel, key string) error
	AssignAccount(ctx context.Context, account models.Account) error
	GetPreferences(ctx context.Context) (models.Preferences, error)
	UpdatePreferences(ctx context.Context, patch models.PreferencesPatch) (*models.Preferences, error)
}

// PostsBackend is the part of the backend the posts container talks to
type PostsBackend interface {
	PostsByStatus(ctx context.Context, status models.Status, page, limit int) (models.PostPage, error)
	UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error)
	Regenerate(ctx context.Context, provider models.Provider, ch models.Channel, postID string) (models.Generated, error)
	PostNow(ctx context.Context, ch models.Channel, id string) (*models.Post, error)
	SchedulePost(ctx context.Context, ch models.Channel, id string, at time.Time, loc *time.Location) (*models.Post, error)
	Unpublish(ctx context.Context, ch models.Channel, id string) (*models.Post, error)
}

// Backend is everything the store needs; *api.Client satisfies it
type Backend interface {
	AuthBackend
	AccountsBackend
	PostsBackend
}

var _ Backend = (*api.Client)(nil)
