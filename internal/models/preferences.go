package models

import "strings"

// Preferences is the per-user settings record
type Preferences struct {
	PreferredAIProvider     Provider `json:"preferredAiProvider,omitempty"`
	OpenAIKey               string   `json:"openAiKey,omitempty"`
	GeminiKey               string   `json:"geminiKey,omitempty"`
	DiscordWebhookURL       string   `json:"discordWebhookUrl,omitempty"`
	TelegramChatID          string   `json:"telegramChatId,omitempty"`
	DiscordEnabled          bool     `json:"discordEnabled"`
	TelegramEnabled         bool     `json:"telegramEnabled"`
	TwitterConnected        bool     `json:"twitterConnected"`
	ActiveDiscordServerName string   `json:"activeDiscordServerName,omitempty"`
	ActiveTelegramGroupName string   `json:"activeTelegramGroupName,omitempty"`
}

// Enabled reports whether posts may be sent to a channel
func (p Preferences) Enabled(ch Channel) bool {
	switch ch {
	case ChannelDiscord:
		return p.DiscordEnabled && p.DiscordWebhookURL != ""
	case ChannelTelegram:
		return p.TelegramEnabled && p.TelegramChatID != ""
	case ChannelTwitter:
		return p.TwitterConnected
	}
	return false
}

// ActiveName returns the display name of the account posts go to
func (p Preferences) ActiveName(ch Channel) string {
	switch ch {
	case ChannelDiscord:
		return p.ActiveDiscordServerName
	case ChannelTelegram:
		return p.ActiveTelegramGroupName
	}
	return ""
}

// PreferencesPatch is a sparse update: nil and blank fields are not sent
type PreferencesPatch struct {
	PreferredAIProvider *Provider
	OpenAIKey           *string
	GeminiKey           *string
	DiscordWebhookURL   *string
	TelegramChatID      *string
	DiscordEnabled      *bool
	TelegramEnabled     *bool
}

// Body builds the request payload holding only the fields that carry a value
func (p PreferencesPatch) Body() map[string]interface{} {
	body := make(map[string]interface{})
	putString := func(key string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			body[key] = strings.TrimSpace(*v)
		}
	}

	if p.PreferredAIProvider != nil && *p.PreferredAIProvider != "" {
		body["PREFERRED_AI_PROVIDER"] = string(*p.PreferredAIProvider)
	}
	putString("OPENAI_API_KEY", p.OpenAIKey)
	putString("GEMINI_API_KEY", p.GeminiKey)
	putString("DISCORD_WEBHOOK_URL", p.DiscordWebhookURL)
	putString("TELEGRAM_CHAT_ID", p.TelegramChatID)
	if p.DiscordEnabled != nil {
		body["DISCORD_ENABLED"] = *p.DiscordEnabled
	}
	if p.TelegramEnabled != nil {
		body["TELEGRAM_ENABLED"] = *p.TelegramEnabled
	}

	return body
}

// Empty reports whether the patch would send nothing
func (p PreferencesPatch) Empty() bool {
	return len(p.Body()) == 0
}

// Apply overwrites the fields of prefs that the patch carries
func (p PreferencesPatch) Apply(prefs Preferences) Preferences {
	body := p.Body()
	if v, ok := body["PREFERRED_AI_PROVIDER"].(string); ok {
		prefs.PreferredAIProvider = Provider(v)
	}
	if v, ok := body["OPENAI_API_KEY"].(string); ok {
		prefs.OpenAIKey = v
	}
	if v, ok := body["GEMINI_API_KEY"].(string); ok {
		prefs.GeminiKey = v
	}
	if v, ok := body["DISCORD_WEBHOOK_URL"].(string); ok {
		prefs.DiscordWebhookURL = v
	}
	if v, ok := body["TELEGRAM_CHAT_ID"].(string); ok {
		prefs.TelegramChatID = v
	}
	if v, ok := body["DISCORD_ENABLED"].(bool); ok {
		prefs.DiscordEnabled = v
	}
	if v, ok := body["TELEGRAM_ENABLED"].(bool); ok {
		prefs.TelegramEnabled = v
	}
	return prefs
}
