package store

import (
	"context"
	"strings"
	"sync"

	"github.com/bullpost/bullpost-client/internal/cache"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/notifications"
	"github.com/sirupsen/logrus"
)

// AccountsStore holds the linked channel accounts and the preferences record
type AccountsStore struct {
	backend  AccountsBackend
	cache    *cache.Cache
	notifier notifications.Notifier

	mu          sync.Mutex
	accounts    models.AccountSet
	prefs       models.Preferences
	prefsLoaded bool
	flags       models.ProviderFlags
	gen         uint64
}

// NewAccountsStore creates an empty accounts container
func NewAccountsStore(backend AccountsBackend, c *cache.Cache, n notifications.Notifier) *AccountsStore {
	return &AccountsStore{backend: backend, cache: c, notifier: n}
}

// Accounts returns a snapshot of every linked account
func (s *AccountsStore) Accounts() models.AccountSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts.Clone()
}

// Preferences returns a snapshot of the preferences record
func (s *AccountsStore) Preferences() models.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// PreferencesLoaded reports whether the record came from the backend
func (s *AccountsStore) PreferencesLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefsLoaded
}

// Provider is the AI provider regeneration should use
func (s *AccountsStore) Provider() models.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs.PreferredAIProvider != "" {
		return s.prefs.PreferredAIProvider
	}
	return s.flags.Provider()
}

// seedProvider installs the cached provider flags before the backend answers
func (s *AccountsStore) seedProvider(flags models.ProviderFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = flags
}

// Reset drops everything and invalidates in-flight completions
func (s *AccountsStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = models.AccountSet{}
	s.prefs = models.Preferences{}
	s.prefsLoaded = false
	s.flags = models.ProviderFlags{}
	s.gen++
}

// LoadAccounts fetches the lists of the given channels in one request and
// replaces them. No channels means all of them.
func (s *AccountsStore) LoadAccounts(ctx context.Context, channels ...models.Channel) error {
	if len(channels) == 0 {
		channels = models.AllChannels
	}
	gen := s.generation()

	set, err := s.backend.GetAccounts(ctx, channels)
	if err != nil {
		return s.failed(gen, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return stale("accounts")
	}
	for _, ch := range channels {
		switch ch {
		case models.ChannelDiscord:
			s.accounts.Discord = set.Discord
		case models.ChannelTelegram:
			s.accounts.Telegram = set.Telegram
		case models.ChannelTwitter:
			s.accounts.Twitter = set.Twitter
		}
	}
	logrus.Debugf("Loaded accounts: %d discord, %d telegram, %d twitter",
		len(s.accounts.Discord), len(s.accounts.Telegram), len(s.accounts.Twitter))
	return nil
}

// AddAccount links a Discord webhook or Telegram chat and appends the
// record the backend returns. Twitter accounts are linked through OAuth.
func (s *AccountsStore) AddAccount(ctx context.Context, account models.Account) (models.Account, error) {
	gen := s.generation()

	var added models.Account
	switch a := account.(type) {
	case models.DiscordAccount:
		if strings.TrimSpace(a.WebhookURL) == "" {
			return nil, &ValidationError{Field: "webhookUrl", Message: "Webhook URL is required"}
		}
		rec, err := s.backend.AddDiscordWebhook(ctx, strings.TrimSpace(a.GroupName), strings.TrimSpace(a.WebhookURL))
		if err != nil {
			return nil, s.failed(gen, err)
		}
		added = rec
	case models.TelegramAccount:
		if strings.TrimSpace(a.ChatID) == "" {
			return nil, &ValidationError{Field: "chatId", Message: "Chat ID is required"}
		}
		rec, err := s.backend.AddTelegramChat(ctx, strings.TrimSpace(a.GroupName), strings.TrimSpace(a.ChatID))
		if err != nil {
			return nil, s.failed(gen, err)
		}
		added = rec
	case models.TwitterAccount:
		return nil, ErrOAuthOnly
	default:
		return nil, ErrUnknownChannel
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil, stale("accounts")
	}
	s.insert(added)
	s.mu.Unlock()

	s.notifier.Notify(models.LevelSuccess, added.Channel().Title()+" account added")
	return added, nil
}

// insert appends an account, replacing one with the same id. Caller holds mu.
func (s *AccountsStore) insert(account models.Account) {
	switch a := account.(type) {
	case models.DiscordAccount:
		s.accounts.Discord = upsert(s.accounts.Discord, a)
	case models.TelegramAccount:
		s.accounts.Telegram = upsert(s.accounts.Telegram, a)
	case models.TwitterAccount:
		s.accounts.Twitter = upsert(s.accounts.Twitter, a)
	}
}

func upsert[T models.Account](list []T, account T) []T {
	if id := account.AccountID(); id != "" {
		for i := range list {
			if list[i].AccountID() == id {
				list[i] = account
				return list
			}
		}
	}
	return append(list, account)
}

// without returns list minus the entries whose key matches
func without[T models.Account](list []T, key string) ([]T, bool) {
	out := make([]T, 0, len(list))
	removed := false
	for _, a := range list {
		if a.Key() == key {
			removed = true
			continue
		}
		out = append(out, a)
	}
	return out, removed
}

// RemoveAccount unlinks an account by its channel-specific key. The local
// entry is matched by key after the round trip, so concurrent additions or
// removals never shift the wrong entry out.
func (s *AccountsStore) RemoveAccount(ctx context.Context, ch models.Channel, key string) error {
	if _, ok := models.ParseChannel(string(ch)); !ok {
		return ErrUnknownChannel
	}
	if strings.TrimSpace(key) == "" {
		return &ValidationError{Field: models.IdentifierField(ch), Message: "Account identifier is required"}
	}
	gen := s.generation()

	if err := s.backend.RemoveAccount(ctx, ch, key); err != nil {
		return s.failed(gen, err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return stale("accounts")
	}
	var removed bool
	switch ch {
	case models.ChannelDiscord:
		s.accounts.Discord, removed = without(s.accounts.Discord, key)
		if removed && s.prefs.DiscordWebhookURL == key {
			s.prefs.DiscordWebhookURL = ""
			s.prefs.ActiveDiscordServerName = ""
		}
	case models.ChannelTelegram:
		s.accounts.Telegram, removed = without(s.accounts.Telegram, key)
		if removed && s.prefs.TelegramChatID == key {
			s.prefs.TelegramChatID = ""
			s.prefs.ActiveTelegramGroupName = ""
		}
	case models.ChannelTwitter:
		s.accounts.Twitter, removed = without(s.accounts.Twitter, key)
		if len(s.accounts.Twitter) == 0 {
			s.prefs.TwitterConnected = false
		}
	}
	s.mu.Unlock()

	if !removed {
		logrus.Debugf("Removed %s account was not in the local list", ch)
	}
	s.notifier.Notify(models.LevelSuccess, ch.Title()+" account removed")
	return nil
}

// AssignActiveAccount makes account the target of its channel
func (s *AccountsStore) AssignActiveAccount(ctx context.Context, account models.Account) error {
	switch account.(type) {
	case models.DiscordAccount, models.TelegramAccount:
	case models.TwitterAccount:
		return ErrOAuthOnly
	default:
		return ErrUnknownChannel
	}
	gen := s.generation()

	if err := s.backend.AssignAccount(ctx, account); err != nil {
		return s.failed(gen, err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return stale("accounts")
	}
	switch a := account.(type) {
	case models.DiscordAccount:
		s.prefs.DiscordWebhookURL = a.WebhookURL
		s.prefs.ActiveDiscordServerName = a.GroupName
	case models.TelegramAccount:
		s.prefs.TelegramChatID = a.ChatID
		s.prefs.ActiveTelegramGroupName = a.GroupName
	}
	s.mu.Unlock()

	s.notifier.Notify(models.LevelSuccess, account.DisplayName()+" is now the active "+account.Channel().Title()+" target")
	return nil
}

// LoadPreferences fetches the preferences record and mirrors the provider
// choice to the cache.
func (s *AccountsStore) LoadPreferences(ctx context.Context) error {
	gen := s.generation()

	prefs, err := s.backend.GetPreferences(ctx)
	if err != nil {
		return s.failed(gen, err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return stale("accounts")
	}
	s.prefs = prefs
	s.prefsLoaded = true
	s.mu.Unlock()

	s.mirrorProvider(prefs.PreferredAIProvider)
	return nil
}

// SavePreferences sends only the fields the patch carries and merges the
// result into the local record.
func (s *AccountsStore) SavePreferences(ctx context.Context, patch models.PreferencesPatch) error {
	if patch.Empty() {
		return ErrNothingToSave
	}
	gen := s.generation()

	stored, err := s.backend.UpdatePreferences(ctx, patch)
	if err != nil {
		return s.failed(gen, err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return stale("accounts")
	}
	if stored != nil {
		s.prefs = *stored
	} else {
		s.prefs = patch.Apply(s.prefs)
	}
	provider := s.prefs.PreferredAIProvider
	s.mu.Unlock()

	s.mirrorProvider(provider)
	s.notifier.Notify(models.LevelSuccess, "Preferences saved")
	return nil
}

func (s *AccountsStore) mirrorProvider(p models.Provider) {
	if p == "" {
		return
	}
	flags := models.FlagsFor(p)

	s.mu.Lock()
	s.flags = flags
	s.mu.Unlock()

	if err := s.cache.SaveProviderFlags(flags); err != nil {
		logrus.Warnf("Failed to cache provider preference: %v", err)
	}
}

// failed surfaces err unless the container was reset while the call ran
func (s *AccountsStore) failed(gen uint64, err error) error {
	if s.generation() != gen {
		return stale("accounts")
	}
	return surface(s.notifier, err)
}

func (s *AccountsStore) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
