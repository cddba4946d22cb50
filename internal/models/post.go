package models

import (
	"io"
	"time"
)

// Status is the lifecycle state of a post
type Status string

const (
	StatusDrafts    Status = "drafts"
	StatusScheduled Status = "scheduled"
	StatusPosted    Status = "posted"
)

// ParseStatus accepts the backend status names
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusDrafts, StatusScheduled, StatusPosted:
		return Status(s), true
	case "draft":
		return StatusDrafts, true
	}
	return "", false
}

// CanSchedule reports whether a post in this state may be (re)scheduled
func (s Status) CanSchedule() bool { return s == StatusDrafts || s == StatusScheduled }

// CanPostNow reports whether a post in this state may be published immediately
func (s Status) CanPostNow() bool { return s == StatusDrafts || s == StatusScheduled }

// CanUnpublish reports whether a post in this state may return to drafts
func (s Status) CanUnpublish() bool { return s == StatusPosted }

// Post is an announcement with per-channel variants
type Post struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
	Status Status `json:"status"`

	Twitter  string `json:"twitter"`
	Discord  string `json:"discord"`
	Telegram string `json:"telegram"`

	TwitterImage  string `json:"twitterImage,omitempty"`
	DiscordImage  string `json:"discordImage,omitempty"`
	TelegramImage string `json:"telegramImage,omitempty"`

	PublishedAtTwitter  *time.Time `json:"publishedAtTwitter,omitempty"`
	PublishedAtDiscord  *time.Time `json:"publishedAtDiscord,omitempty"`
	PublishedAtTelegram *time.Time `json:"publishedAtTelegram,omitempty"`

	ScheduledAtTwitter  *time.Time `json:"scheduledAtTwitter,omitempty"`
	ScheduledAtDiscord  *time.Time `json:"scheduledAtDiscord,omitempty"`
	ScheduledAtTelegram *time.Time `json:"scheduledAtTelegram,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Text returns the body written for a channel
func (p *Post) Text(ch Channel) string {
	switch ch {
	case ChannelTwitter:
		return p.Twitter
	case ChannelTelegram:
		return p.Telegram
	default:
		return p.Discord
	}
}

// SetText replaces the body of exactly one channel
func (p *Post) SetText(ch Channel, text string) {
	switch ch {
	case ChannelTwitter:
		p.Twitter = text
	case ChannelTelegram:
		p.Telegram = text
	default:
		p.Discord = text
	}
}

// Image returns the image reference attached for a channel
func (p *Post) Image(ch Channel) string {
	switch ch {
	case ChannelTwitter:
		return p.TwitterImage
	case ChannelTelegram:
		return p.TelegramImage
	default:
		return p.DiscordImage
	}
}

// PublishedAt returns when the channel variant went out, nil if it has not
func (p *Post) PublishedAt(ch Channel) *time.Time {
	switch ch {
	case ChannelTwitter:
		return p.PublishedAtTwitter
	case ChannelTelegram:
		return p.PublishedAtTelegram
	default:
		return p.PublishedAtDiscord
	}
}

// ScheduledAt returns when the channel variant is due, nil if unscheduled
func (p *Post) ScheduledAt(ch Channel) *time.Time {
	switch ch {
	case ChannelTwitter:
		return p.ScheduledAtTwitter
	case ChannelTelegram:
		return p.ScheduledAtTelegram
	default:
		return p.ScheduledAtDiscord
	}
}

// PostPage is one page of posts for a status
type PostPage struct {
	Posts      []Post `json:"posts"`
	TotalPages int    `json:"totalPages"`
}

// ImageUpload is an image attached to a post update
type ImageUpload struct {
	Filename string
	Reader   io.Reader
}

// PostPatch edits one channel of a post
type PostPatch struct {
	Channel Channel
	Text    *string
	Image   *ImageUpload
}

// Multipart reports whether the patch must be sent as multipart/form-data
func (p PostPatch) Multipart() bool {
	return p.Image != nil
}

// Generated is the backend's answer to a regeneration request
type Generated struct {
	PostID   string `json:"postId"`
	Content  string `json:"content"`
	Platform string `json:"platform"`
}
