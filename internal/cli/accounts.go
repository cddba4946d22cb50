package cli

import (
	"context"
	"fmt"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/spf13/cobra"
)

var accountName string

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage the accounts announcements are sent to",
}

var accountsListCmd = &cobra.Command{
	Use:   "list [channel...]",
	Short: "List linked accounts; '>' marks the active one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			channels := make([]models.Channel, 0, len(args))
			for _, arg := range args {
				ch, err := channelArg(arg)
				if err != nil {
					return err
				}
				channels = append(channels, ch)
			}
			if err := a.store.Accounts.LoadAccounts(ctx, channels...); err != nil {
				return err
			}
			p.accounts(a.store.Accounts.Accounts(), a.store.Accounts.Preferences())
			return nil
		})
	},
}

var addDiscordCmd = &cobra.Command{
	Use:   "add-discord <webhook-url>",
	Short: "Link a Discord webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addAccount(cmd, models.DiscordAccount{GroupName: accountName, WebhookURL: args[0]})
	},
}

var addTelegramCmd = &cobra.Command{
	Use:   "add-telegram <chat-id>",
	Short: "Link a Telegram chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return addAccount(cmd, models.TelegramAccount{GroupName: accountName, ChatID: args[0]})
	},
}

func addAccount(cmd *cobra.Command, account models.Account) error {
	return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		added, err := a.store.Accounts.AddAccount(ctx, account)
		if err != nil {
			return err
		}
		p.line("Linked %s account %q", added.Channel().Title(), added.DisplayName())
		return nil
	})
}

var removeAccountCmd = &cobra.Command{
	Use:   "remove <channel> <webhook-url|chat-id|refresh-token>",
	Short: "Unlink an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := channelArg(args[0])
		if err != nil {
			return err
		}
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			return a.store.Accounts.RemoveAccount(ctx, ch, args[1])
		})
	},
}

var assignAccountCmd = &cobra.Command{
	Use:   "assign <channel> <webhook-url|chat-id>",
	Short: "Make an account the active target of its channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := channelArg(args[0])
		if err != nil {
			return err
		}
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if err := a.store.Accounts.LoadAccounts(ctx, ch); err != nil {
				return err
			}
			account, ok := findAccount(a.store.Accounts.Accounts(), ch, args[1])
			if !ok {
				return fmt.Errorf("no %s account with identifier %q", ch.Title(), args[1])
			}
			return a.store.Accounts.AssignActiveAccount(ctx, account)
		})
	},
}

func findAccount(set models.AccountSet, ch models.Channel, key string) (models.Account, bool) {
	for _, account := range set.List(ch) {
		if account.Key() == key {
			return account, true
		}
	}
	return nil, false
}

func init() {
	addDiscordCmd.Flags().StringVar(&accountName, "name", "", "Server name shown in account lists")
	addTelegramCmd.Flags().StringVar(&accountName, "name", "", "Group name shown in account lists")

	accountsCmd.AddCommand(accountsListCmd, addDiscordCmd, addTelegramCmd, removeAccountCmd, assignAccountCmd)
	rootCmd.AddCommand(accountsCmd)
}
