package models

// Account is a linked destination for one channel. The set of
// implementations is closed: DiscordAccount, TelegramAccount, TwitterAccount.
type Account interface {
	Channel() Channel
	AccountID() string
	// Key is the channel-specific identifier the backend uses for removal.
	Key() string
	DisplayName() string
	sealed()
}

// DiscordAccount is a Discord server reached through a webhook
type DiscordAccount struct {
	ID         string `json:"id"`
	GroupName  string `json:"groupName"`
	WebhookURL string `json:"webhookUrl"`
}

func (a DiscordAccount) Channel() Channel    { return ChannelDiscord }
func (a DiscordAccount) AccountID() string   { return a.ID }
func (a DiscordAccount) Key() string         { return a.WebhookURL }
func (a DiscordAccount) DisplayName() string { return a.GroupName }
func (DiscordAccount) sealed()               {}

// TelegramAccount is a Telegram group or channel reached by chat id
type TelegramAccount struct {
	ID        string `json:"id"`
	GroupName string `json:"groupName"`
	ChatID    string `json:"chatId"`
}

func (a TelegramAccount) Channel() Channel    { return ChannelTelegram }
func (a TelegramAccount) AccountID() string   { return a.ID }
func (a TelegramAccount) Key() string         { return a.ChatID }
func (a TelegramAccount) DisplayName() string { return a.GroupName }
func (TelegramAccount) sealed()               {}

// TwitterAccount is an X/Twitter profile linked through OAuth
type TwitterAccount struct {
	ID           string `json:"id"`
	TwitterName  string `json:"twitter_Name"`
	RefreshToken string `json:"refresh_token"`
}

func (a TwitterAccount) Channel() Channel    { return ChannelTwitter }
func (a TwitterAccount) AccountID() string   { return a.ID }
func (a TwitterAccount) Key() string         { return a.RefreshToken }
func (a TwitterAccount) DisplayName() string { return a.TwitterName }
func (TwitterAccount) sealed()               {}

// IdentifierField names the request field that carries Key() for a channel
func IdentifierField(ch Channel) string {
	switch ch {
	case ChannelDiscord:
		return "webhookUrl"
	case ChannelTelegram:
		return "chatId"
	case ChannelTwitter:
		return "refresh_token"
	}
	return ""
}

// AccountSet is the per-channel collection of linked accounts
type AccountSet struct {
	Discord  []DiscordAccount  `json:"discord"`
	Telegram []TelegramAccount `json:"telegram"`
	Twitter  []TwitterAccount  `json:"twitter"`
}

// Len returns the number of accounts linked for a channel
func (s AccountSet) Len(ch Channel) int {
	switch ch {
	case ChannelDiscord:
		return len(s.Discord)
	case ChannelTelegram:
		return len(s.Telegram)
	case ChannelTwitter:
		return len(s.Twitter)
	}
	return 0
}

// List returns the accounts of one channel behind the Account interface
func (s AccountSet) List(ch Channel) []Account {
	var out []Account
	switch ch {
	case ChannelDiscord:
		for _, a := range s.Discord {
			out = append(out, a)
		}
	case ChannelTelegram:
		for _, a := range s.Telegram {
			out = append(out, a)
		}
	case ChannelTwitter:
		for _, a := range s.Twitter {
			out = append(out, a)
		}
	}
	return out
}

// Clone returns a copy that shares no backing arrays with s
func (s AccountSet) Clone() AccountSet {
	return AccountSet{
		Discord:  append([]DiscordAccount(nil), s.Discord...),
		Telegram: append([]TelegramAccount(nil), s.Telegram...),
		Twitter:  append([]TwitterAccount(nil), s.Twitter...),
	}
}
