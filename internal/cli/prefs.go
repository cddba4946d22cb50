package cli

import (
	"context"
	"fmt"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or change preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the preferences record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if !a.store.Accounts.PreferencesLoaded() {
				if err := a.store.Accounts.LoadPreferences(ctx); err != nil {
					return err
				}
			}
			p.preferences(a.store.Accounts.Preferences())
			return nil
		})
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change only the preferences given as flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := patchFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if err := a.store.Accounts.SavePreferences(ctx, patch); err != nil {
				return err
			}
			p.preferences(a.store.Accounts.Preferences())
			return nil
		})
	},
}

// patchFromFlags builds a sparse patch out of the flags the user set
func patchFromFlags(flags *pflag.FlagSet) (models.PreferencesPatch, error) {
	var patch models.PreferencesPatch

	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	boolean := func(name string) *bool {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetBool(name)
		return &v
	}

	if v := str("provider"); v != nil {
		provider, ok := models.ParseProvider(*v)
		if !ok {
			return patch, fmt.Errorf("unknown AI provider %q (openai or gemini)", *v)
		}
		patch.PreferredAIProvider = &provider
	}
	patch.OpenAIKey = str("openai-key")
	patch.GeminiKey = str("gemini-key")
	patch.DiscordWebhookURL = str("discord-webhook")
	patch.TelegramChatID = str("telegram-chat")
	patch.DiscordEnabled = boolean("discord-enabled")
	patch.TelegramEnabled = boolean("telegram-enabled")
	return patch, nil
}

func registerPrefsFlags(flags *pflag.FlagSet) {
	flags.String("provider", "", "Preferred AI provider: openai or gemini")
	flags.String("openai-key", "", "OpenAI API key")
	flags.String("gemini-key", "", "Gemini API key")
	flags.String("discord-webhook", "", "Active Discord webhook URL")
	flags.String("telegram-chat", "", "Active Telegram chat id")
	flags.Bool("discord-enabled", false, "Send posts to Discord")
	flags.Bool("telegram-enabled", false, "Send posts to Telegram")
}

func init() {
	registerPrefsFlags(prefsSetCmd.Flags())

	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd)
	rootCmd.AddCommand(prefsCmd)
}
