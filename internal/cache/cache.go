package cache

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/storage"
	"github.com/sirupsen/logrus"
)

// Keys of the durable cold-start mirror
const (
	KeyToken          = "token"
	KeyUser           = "user"
	KeyUserPreference = "userPreference"
	KeyAddAccount     = "addAccount"
)

var allKeys = []string{KeyToken, KeyUser, KeyUserPreference, KeyAddAccount}

// Cache is the typed view over the durable storage that mirrors backend
// state for cold starts. The backend stays the source of truth.
type Cache struct {
	storage storage.StorageInterface
}

func New(s storage.StorageInterface) *Cache {
	return &Cache{storage: s}
}

// Session reads the persisted token and profile. A missing or unreadable
// entry yields an anonymous session, never an error.
func (c *Cache) Session() models.Session {
	var session models.Session

	if data, err := c.storage.Retrieve(KeyToken); err == nil {
		session.Token = string(data)
	} else if !errors.Is(err, storage.ErrNotFound) {
		logrus.Warnf("Failed to read cached token: %v", err)
	}

	if data, err := c.storage.Retrieve(KeyUser); err == nil {
		var user models.UserProfile
		if err := json.Unmarshal(data, &user); err != nil {
			logrus.Warnf("Ignoring malformed cached user: %v", err)
		} else {
			session.User = &user
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		logrus.Warnf("Failed to read cached user: %v", err)
	}

	return session
}

// SaveSession persists the token and profile
func (c *Cache) SaveSession(session models.Session) error {
	if err := c.storage.Store(KeyToken, []byte(session.Token)); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	if session.User == nil {
		return c.storage.Delete(KeyUser)
	}

	data, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := c.storage.Store(KeyUser, data); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

// ProviderFlags reads the mirrored provider choice
func (c *Cache) ProviderFlags() (models.ProviderFlags, bool) {
	data, err := c.storage.Retrieve(KeyUserPreference)
	if err != nil {
		return models.ProviderFlags{}, false
	}

	var flags models.ProviderFlags
	if err := json.Unmarshal(data, &flags); err != nil {
		logrus.Warnf("Ignoring malformed cached provider flags: %v", err)
		return models.ProviderFlags{}, false
	}
	return flags, true
}

// SaveProviderFlags mirrors the provider choice
func (c *Cache) SaveProviderFlags(flags models.ProviderFlags) error {
	data, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	return c.storage.Store(KeyUserPreference, data)
}

// SetAddAccount records that the next OAuth redirect links an account
// instead of logging in.
func (c *Cache) SetAddAccount(pending bool) error {
	if !pending {
		return c.storage.Delete(KeyAddAccount)
	}
	return c.storage.Store(KeyAddAccount, []byte("true"))
}

// AddAccountPending reports whether an account-link OAuth flow is underway
func (c *Cache) AddAccountPending() bool {
	data, err := c.storage.Retrieve(KeyAddAccount)
	return err == nil && string(data) == "true"
}

// Clear removes every mirrored key. All keys are attempted; the first
// failure is returned.
func (c *Cache) Clear() error {
	var first error
	for _, key := range allKeys {
		if err := c.storage.Delete(key); err != nil && first == nil {
			first = fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return first
}
