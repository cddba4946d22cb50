package store

import (
	"context"
	"testing"

	"github.com/bullpost/bullpost-client/internal/api"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discordSet(accounts ...models.DiscordAccount) models.AccountSet {
	return models.AccountSet{Discord: accounts, Telegram: []models.TelegramAccount{}, Twitter: []models.TwitterAccount{}}
}

func TestLoadAccountsReplacesRequestedChannels(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	ctx := context.Background()
	f.backend.On("GetAccounts", mock.Anything, models.AllChannels).Return(models.AccountSet{
		Discord:  []models.DiscordAccount{{ID: "d1", WebhookURL: "w1"}},
		Telegram: []models.TelegramAccount{{ID: "t1", ChatID: "-100"}},
		Twitter:  []models.TwitterAccount{},
	}, nil).Once()
	f.backend.On("GetAccounts", mock.Anything, []models.Channel{models.ChannelTelegram}).
		Return(models.AccountSet{Telegram: []models.TelegramAccount{}}, nil).Once()

	require.NoError(t, f.store.Accounts.LoadAccounts(ctx))
	require.NoError(t, f.store.Accounts.LoadAccounts(ctx, models.ChannelTelegram))

	set := f.store.Accounts.Accounts()
	assert.Equal(t, 1, set.Len(models.ChannelDiscord))
	assert.Equal(t, 0, set.Len(models.ChannelTelegram))
	f.backend.AssertExpectations(t)
}

func TestAddAccount(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	ctx := context.Background()
	f.backend.On("AddDiscordWebhook", mock.Anything, "Main", "https://discord.com/api/webhooks/1").
		Return(models.DiscordAccount{ID: "d1", GroupName: "Main", WebhookURL: "https://discord.com/api/webhooks/1"}, nil)
	f.backend.On("AddTelegramChat", mock.Anything, "News", "-100").
		Return(models.TelegramAccount{ID: "t1", GroupName: "News", ChatID: "-100"}, nil)

	added, err := f.store.Accounts.AddAccount(ctx, models.DiscordAccount{GroupName: " Main ", WebhookURL: "https://discord.com/api/webhooks/1"})
	require.NoError(t, err)
	assert.Equal(t, "d1", added.AccountID())

	_, err = f.store.Accounts.AddAccount(ctx, models.TelegramAccount{GroupName: "News", ChatID: "-100"})
	require.NoError(t, err)

	set := f.store.Accounts.Accounts()
	assert.Equal(t, 1, set.Len(models.ChannelDiscord))
	assert.Equal(t, 1, set.Len(models.ChannelTelegram))
	assert.Equal(t, []models.Level{models.LevelSuccess, models.LevelSuccess}, f.levels())
}

func TestAddAccountRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Accounts.AddAccount(ctx, models.DiscordAccount{GroupName: "Main"})
	assert.IsType(t, &ValidationError{}, err)

	_, err = f.store.Accounts.AddAccount(ctx, models.TelegramAccount{ChatID: "  "})
	assert.IsType(t, &ValidationError{}, err)

	_, err = f.store.Accounts.AddAccount(ctx, models.TwitterAccount{TwitterName: "@bull"})
	assert.ErrorIs(t, err, ErrOAuthOnly)

	_, err = f.store.Accounts.AddAccount(ctx, nil)
	assert.Equal(t, ErrUnknownChannel, err)

	f.backend.AssertNotCalled(t, "AddDiscordWebhook", mock.Anything, mock.Anything, mock.Anything)
	f.backend.AssertNotCalled(t, "AddTelegramChat", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemoveAccountByKeyDuringConcurrentAdd(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	ctx := context.Background()
	f.backend.On("GetAccounts", mock.Anything, models.AllChannels).Return(discordSet(
		models.DiscordAccount{ID: "d1", GroupName: "A", WebhookURL: "w1"},
		models.DiscordAccount{ID: "d2", GroupName: "B", WebhookURL: "w2"},
	), nil)
	require.NoError(t, f.store.Accounts.LoadAccounts(ctx))

	g := newGate()
	f.backend.On("AddDiscordWebhook", mock.Anything, "C", "w3").
		Return(models.DiscordAccount{ID: "d3", GroupName: "C", WebhookURL: "w3"}, nil).Run(g.hold)
	f.backend.On("RemoveAccount", mock.Anything, models.ChannelDiscord, "w1").Return(nil)

	added := make(chan error, 1)
	go func() {
		_, err := f.store.Accounts.AddAccount(ctx, models.DiscordAccount{GroupName: "C", WebhookURL: "w3"})
		added <- err
	}()
	<-g.entered

	require.NoError(t, f.store.Accounts.RemoveAccount(ctx, models.ChannelDiscord, "w1"))
	close(g.release)
	require.NoError(t, <-added)

	var keys []string
	for _, a := range f.store.Accounts.Accounts().List(models.ChannelDiscord) {
		keys = append(keys, a.Key())
	}
	assert.Equal(t, []string{"w2", "w3"}, keys)
}

func TestRemoveAccountClearsActivePreference(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	ctx := context.Background()
	f.backend.On("GetPreferences", mock.Anything).Return(models.Preferences{
		DiscordWebhookURL:       "w1",
		ActiveDiscordServerName: "A",
		DiscordEnabled:          true,
		TelegramChatID:          "-100",
	}, nil)
	f.backend.On("RemoveAccount", mock.Anything, models.ChannelDiscord, "w1").Return(nil)
	f.backend.On("GetAccounts", mock.Anything, models.AllChannels).Return(discordSet(
		models.DiscordAccount{ID: "d1", GroupName: "A", WebhookURL: "w1"},
	), nil)
	require.NoError(t, f.store.Accounts.LoadPreferences(ctx))
	require.NoError(t, f.store.Accounts.LoadAccounts(ctx))

	require.NoError(t, f.store.Accounts.RemoveAccount(ctx, models.ChannelDiscord, "w1"))

	prefs := f.store.Accounts.Preferences()
	assert.Empty(t, prefs.DiscordWebhookURL)
	assert.Empty(t, prefs.ActiveDiscordServerName)
	assert.Equal(t, "-100", prefs.TelegramChatID)
	assert.False(t, prefs.Enabled(models.ChannelDiscord))
}

func TestRemoveAccountFailureKeepsList(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	ctx := context.Background()
	f.backend.On("GetAccounts", mock.Anything, models.AllChannels).Return(discordSet(
		models.DiscordAccount{ID: "d1", WebhookURL: "w1"},
	), nil)
	f.backend.On("RemoveAccount", mock.Anything, models.ChannelDiscord, "w1").
		Return(&api.APIError{Operation: "remove discord account", StatusCode: 500})
	require.NoError(t, f.store.Accounts.LoadAccounts(ctx))

	err := f.store.Accounts.RemoveAccount(ctx, models.ChannelDiscord, "w1")

	require.Error(t, err)
	assert.Equal(t, 1, f.store.Accounts.Accounts().Len(models.ChannelDiscord))
	require.Len(t, f.center.Active(), 1)
	assert.Equal(t, "Something went wrong. Please try again.", f.center.Active()[0].Message)
}

func TestAssignActiveAccount(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	account := models.TelegramAccount{ID: "t1", GroupName: "News", ChatID: "-100"}
	f.backend.On("AssignAccount", mock.Anything, account).Return(nil)

	require.NoError(t, f.store.Accounts.AssignActiveAccount(context.Background(), account))

	prefs := f.store.Accounts.Preferences()
	assert.Equal(t, "-100", prefs.TelegramChatID)
	assert.Equal(t, "News", prefs.ActiveName(models.ChannelTelegram))

	err := f.store.Accounts.AssignActiveAccount(context.Background(), models.TwitterAccount{})
	assert.ErrorIs(t, err, ErrOAuthOnly)
}

func TestSavePreferencesSendsSparsePatch(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	ctx := context.Background()
	f.backend.On("GetPreferences", mock.Anything).Return(models.Preferences{
		PreferredAIProvider: models.ProviderOpenAI,
		OpenAIKey:           "sk-1",
		TelegramChatID:      "-100",
		TelegramEnabled:     true,
	}, nil)
	require.NoError(t, f.store.Accounts.LoadPreferences(ctx))

	webhook := "https://discord.com/api/webhooks/9"
	patch := models.PreferencesPatch{DiscordWebhookURL: &webhook}
	f.backend.On("UpdatePreferences", mock.Anything, mock.MatchedBy(func(p models.PreferencesPatch) bool {
		body := p.Body()
		return len(body) == 1 && body["DISCORD_WEBHOOK_URL"] == webhook
	})).Return(nil, nil)

	require.NoError(t, f.store.Accounts.SavePreferences(ctx, patch))

	prefs := f.store.Accounts.Preferences()
	assert.Equal(t, webhook, prefs.DiscordWebhookURL)
	assert.Equal(t, "sk-1", prefs.OpenAIKey)
	assert.Equal(t, "-100", prefs.TelegramChatID)
	assert.True(t, prefs.TelegramEnabled)
	f.backend.AssertExpectations(t)
}

func TestSavePreferencesMirrorsProvider(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	gemini := models.ProviderGemini
	stored := &models.Preferences{PreferredAIProvider: models.ProviderGemini}
	f.backend.On("UpdatePreferences", mock.Anything, mock.Anything).Return(stored, nil)

	require.NoError(t, f.store.Accounts.SavePreferences(context.Background(), models.PreferencesPatch{PreferredAIProvider: &gemini}))

	assert.Equal(t, models.ProviderGemini, f.store.Accounts.Provider())
	flags, ok := f.cache.ProviderFlags()
	require.True(t, ok)
	assert.Equal(t, models.ProviderFlags{Gemini: true}, flags)
}

func TestSavePreferencesEmptyPatch(t *testing.T) {
	f := newFixture(t)
	blank := " "

	err := f.store.Accounts.SavePreferences(context.Background(), models.PreferencesPatch{OpenAIKey: &blank})

	assert.Equal(t, ErrNothingToSave, err)
	f.backend.AssertNotCalled(t, "UpdatePreferences", mock.Anything, mock.Anything)
}

func TestExpiredSessionAsksForReauth(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	f.backend.On("GetPreferences", mock.Anything).
		Return(models.Preferences{}, &api.APIError{Operation: "get preferences", StatusCode: 401})

	err := f.store.Accounts.LoadPreferences(context.Background())

	assert.ErrorIs(t, err, ErrReauthRequired)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, []models.Level{models.LevelReauth}, f.levels())
	assert.False(t, f.store.Accounts.PreferencesLoaded())
}

func TestAccountsCompletionAfterResetIsDropped(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	g := newGate()
	f.backend.On("GetAccounts", mock.Anything, models.AllChannels).Return(discordSet(
		models.DiscordAccount{ID: "d1", WebhookURL: "w1"},
	), nil).Run(g.hold)

	done := make(chan error, 1)
	go func() { done <- f.store.Accounts.LoadAccounts(context.Background()) }()
	<-g.entered
	f.store.Accounts.Reset()
	close(g.release)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, 0, f.store.Accounts.Accounts().Len(models.ChannelDiscord))
}

func TestAccountsFailureAfterResetRaisesNothing(t *testing.T) {
	f := newFixture(t)
	f.loggedIn(t)
	g := newGate()
	f.backend.On("GetPreferences", mock.Anything).
		Return(models.Preferences{}, api.ErrUnauthorized).Run(g.hold)

	done := make(chan error, 1)
	go func() { done <- f.store.Accounts.LoadPreferences(context.Background()) }()
	<-g.entered
	f.store.Accounts.Reset()
	close(g.release)

	err := <-done
	assert.ErrorIs(t, err, ErrStale)
	assert.NotErrorIs(t, err, ErrReauthRequired)
	assert.Empty(t, f.center.Active())
}
