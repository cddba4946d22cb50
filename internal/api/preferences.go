package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/sirupsen/logrus"
)

// GetAccounts loads the linked accounts of several channels in one request.
// Missing or malformed lists come back empty.
func (c *Client) GetAccounts(ctx context.Context, channels []models.Channel) (models.AccountSet, error) {
	const op = "get accounts"

	types := make([]string, 0, len(channels))
	for _, ch := range channels {
		types = append(types, string(ch))
	}

	var resp struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	err := c.call(ctx, op, http.MethodPost, "preferences/getAcountData", true,
		map[string]interface{}{"types": types}, &resp)
	if err != nil {
		return models.AccountSet{}, err
	}

	var set models.AccountSet
	decodeList(resp.Data, "discord", &set.Discord)
	decodeList(resp.Data, "telegram", &set.Telegram)
	decodeList(resp.Data, "twitter", &set.Twitter)
	return set, nil
}

func decodeList[T any](data map[string]json.RawMessage, key string, out *[]T) {
	*out = []T{}
	raw, ok := data[key]
	if !ok || len(raw) == 0 {
		return
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		logrus.Warnf("Ignoring malformed %s account list: %v", key, err)
		return
	}
	if list != nil {
		*out = list
	}
}

// AddDiscordWebhook links a Discord server by webhook URL
func (c *Client) AddDiscordWebhook(ctx context.Context, groupName, webhookURL string) (models.DiscordAccount, error) {
	var resp struct {
		Data *models.DiscordAccount `json:"data"`
	}
	err := c.call(ctx, "add discord webhook", http.MethodPost, "preferences/addDiscordWebhook", true,
		map[string]string{"groupName": groupName, "webhookUrl": webhookURL}, &resp)
	if err != nil {
		return models.DiscordAccount{}, err
	}
	if resp.Data == nil {
		return models.DiscordAccount{GroupName: groupName, WebhookURL: webhookURL}, nil
	}
	return *resp.Data, nil
}

// AddTelegramChat links a Telegram group by chat id
func (c *Client) AddTelegramChat(ctx context.Context, groupName, chatID string) (models.TelegramAccount, error) {
	var resp struct {
		Data *models.TelegramAccount `json:"data"`
	}
	err := c.call(ctx, "add telegram chat", http.MethodPost, "preferences/addTelegramChatId", true,
		map[string]string{"groupName": groupName, "chatId": chatID}, &resp)
	if err != nil {
		return models.TelegramAccount{}, err
	}
	if resp.Data == nil {
		return models.TelegramAccount{GroupName: groupName, ChatID: chatID}, nil
	}
	return *resp.Data, nil
}

// RemoveAccount unlinks the account identified by its channel-specific key
func (c *Client) RemoveAccount(ctx context.Context, ch models.Channel, key string) error {
	var path string
	switch ch {
	case models.ChannelDiscord:
		path = "preferences/removeDiscordWebhook"
	case models.ChannelTelegram:
		path = "preferences/removeTelegramChatId"
	case models.ChannelTwitter:
		path = "preferences/removeTwitterAccount"
	default:
		return fmt.Errorf("remove account: %w: %s", ErrUnsupported, ch)
	}

	return c.call(ctx, "remove "+string(ch)+" account", http.MethodPost, path, true,
		map[string]string{models.IdentifierField(ch): key}, nil)
}

// AssignAccount makes an account the active target of its channel
func (c *Client) AssignAccount(ctx context.Context, account models.Account) error {
	var path string
	body := map[string]string{"groupName": account.DisplayName()}

	switch a := account.(type) {
	case models.DiscordAccount:
		path = "preferences/assignDiscordWebhook"
		body["webhookUrl"] = a.WebhookURL
	case models.TelegramAccount:
		path = "preferences/assignTelegramChatId"
		body["chatId"] = a.ChatID
	case models.TwitterAccount:
		return fmt.Errorf("assign account: %w: %s", ErrUnsupported, a.Channel())
	}

	return c.call(ctx, "assign "+string(account.Channel())+" account", http.MethodPost, path, true, body, nil)
}

// GetPreferences loads the user's preferences record
func (c *Client) GetPreferences(ctx context.Context) (models.Preferences, error) {
	var resp struct {
		Data *models.Preferences `json:"data"`
	}
	if err := c.call(ctx, "get preferences", http.MethodGet, "preferences/getPreferences", true, nil, &resp); err != nil {
		return models.Preferences{}, err
	}
	if resp.Data == nil {
		return models.Preferences{}, nil
	}
	return *resp.Data, nil
}

// UpdatePreferences sends a sparse update. The returned record is nil when
// the backend does not echo the stored preferences.
func (c *Client) UpdatePreferences(ctx context.Context, patch models.PreferencesPatch) (*models.Preferences, error) {
	var resp struct {
		Data *models.Preferences `json:"data"`
	}
	err := c.call(ctx, "update preferences", http.MethodPut, "preferences/updatePreferences", true,
		patch.Body(), &resp)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}
