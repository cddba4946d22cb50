package models

import (
	"strings"
	"time"
)

// Channel is a destination platform for posts
type Channel string

const (
	ChannelDiscord  Channel = "discord"
	ChannelTelegram Channel = "telegram"
	ChannelTwitter  Channel = "twitter"
)

// AllChannels lists every channel in display order
var AllChannels = []Channel{ChannelDiscord, ChannelTelegram, ChannelTwitter}

// ParseChannel maps a user or backend supplied name onto a Channel
func ParseChannel(s string) (Channel, bool) {
	switch Channel(s) {
	case ChannelDiscord, ChannelTelegram, ChannelTwitter:
		return Channel(s), true
	case "x":
		return ChannelTwitter, true
	}
	return "", false
}

// Title returns the capitalised platform name used in routes and messages
func (c Channel) Title() string {
	switch c {
	case ChannelDiscord:
		return "Discord"
	case ChannelTelegram:
		return "Telegram"
	case ChannelTwitter:
		return "Twitter"
	}
	return string(c)
}

// Provider is the AI backend used for regeneration
type Provider string

const (
	ProviderOpenAI Provider = "OpenAI"
	ProviderGemini Provider = "Gemini"
)

// ParseProvider accepts the canonical names case-insensitively
func ParseProvider(s string) (Provider, bool) {
	switch {
	case strings.EqualFold(s, string(ProviderOpenAI)), strings.EqualFold(s, "openia"):
		return ProviderOpenAI, true
	case strings.EqualFold(s, string(ProviderGemini)):
		return ProviderGemini, true
	}
	return "", false
}

// ProviderFlags mirrors the "userPreference" cache entry
type ProviderFlags struct {
	OpenIA bool `json:"OpenIA"`
	Gemini bool `json:"Gemini"`
}

// Provider resolves the flags to a single provider, OpenAI unless only Gemini is set
func (f ProviderFlags) Provider() Provider {
	if f.Gemini && !f.OpenIA {
		return ProviderGemini
	}
	return ProviderOpenAI
}

// FlagsFor builds the cache mirror for a provider
func FlagsFor(p Provider) ProviderFlags {
	return ProviderFlags{OpenIA: p == ProviderOpenAI, Gemini: p == ProviderGemini}
}

// Level classifies a user-facing notification
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelReauth  Level = "reauth"
)

// Notification is a transient, dismissable message shown to the user
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Report represents a periodic summary of the posting schedule
type Report struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Period      string         `json:"period"` // "daily" or "weekly"
	User        string         `json:"user"`
	Scheduled   []Post         `json:"scheduled"`
	Summary     map[string]int `json:"summary"`
}

// Alert represents an urgent notification forwarded outside the process
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "urgent", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
