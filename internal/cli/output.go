package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bullpost/bullpost-client/internal/models"
)

// printer renders store snapshots as plain text
type printer struct {
	w io.Writer
}

func (p *printer) line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) notifications(items []models.Notification) {
	for _, n := range items {
		switch n.Level {
		case models.LevelError:
			p.line("! %s", n.Message)
		case models.LevelReauth:
			p.line("! %s Run 'bullpost login'.", n.Message)
		default:
			p.line("* %s", n.Message)
		}
	}
}

func (p *printer) accounts(set models.AccountSet, prefs models.Preferences) {
	for _, ch := range models.AllChannels {
		list := set.List(ch)
		p.line("%s (%d)", ch.Title(), len(list))
		for _, a := range list {
			marker := " "
			if active := prefs.ActiveName(ch); active != "" && active == a.DisplayName() {
				marker = ">"
			}
			p.line("  %s %-24s %s", marker, a.DisplayName(), mask(ch, a.Key()))
		}
	}
}

func (p *printer) preferences(prefs models.Preferences) {
	provider := string(prefs.PreferredAIProvider)
	if provider == "" {
		provider = "(default)"
	}
	p.line("AI provider:       %s", provider)
	p.line("OpenAI key:        %s", secret(prefs.OpenAIKey))
	p.line("Gemini key:        %s", secret(prefs.GeminiKey))
	p.line("Discord:           %s (%s)", onOff(prefs.Enabled(models.ChannelDiscord)), prefs.ActiveDiscordServerName)
	p.line("Telegram:          %s (%s)", onOff(prefs.Enabled(models.ChannelTelegram)), prefs.ActiveTelegramGroupName)
	p.line("Twitter connected: %t", prefs.TwitterConnected)
}

func (p *printer) posts(status models.Status, page, total int, posts []models.Post) {
	p.line("%s, page %d of %d", capitalize(string(status)), page, total)
	if len(posts) == 0 {
		p.line("  (no posts)")
		return
	}
	for _, post := range posts {
		title := post.Title
		if title == "" {
			title = truncate(post.Prompt, 40)
		}
		p.line("  %-26s %s", post.ID, title)
	}
}

func (p *printer) post(post models.Post) {
	p.line("%s [%s] %s", post.ID, post.Status, post.Title)
	if post.Prompt != "" {
		p.line("Prompt: %s", post.Prompt)
	}
	for _, ch := range models.AllChannels {
		p.line("")
		p.line("-- %s --", ch.Title())
		p.line("%s", post.Text(ch))
		if img := post.Image(ch); img != "" {
			p.line("Image: %s", img)
		}
		if at := post.ScheduledAt(ch); at != nil {
			p.line("Scheduled: %s", at.Format(time.RFC1123))
		}
		if at := post.PublishedAt(ch); at != nil {
			p.line("Published: %s", at.Format(time.RFC1123))
		}
	}
}

// mask hides all but the tail of identifiers that grant posting rights
func mask(ch models.Channel, key string) string {
	if ch == models.ChannelTelegram || len(key) <= 8 {
		return key
	}
	return "..." + key[len(key)-8:]
}

func secret(s string) string {
	if s == "" {
		return "(not set)"
	}
	return "set"
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
