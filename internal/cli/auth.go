package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/store"
	"github.com/spf13/cobra"
)

var (
	loginEmail string
	loginCode  string

	oauthToken    string
	oauthUserName string
	oauthEmail    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with a one-time code sent by e-mail",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			in := bufio.NewReader(cmd.InOrStdin())
			email := loginEmail
			if email == "" {
				p.line("E-mail:")
				email = readLine(in)
			}
			code := loginCode
			if code == "" {
				return interactiveLogin(ctx, a, p, in, email)
			}
			if err := a.store.Auth.Login(ctx, email, code); err != nil {
				return err
			}
			p.line("Logged in as %s", email)
			return nil
		})
	},
}

// interactiveLogin requests a code and reads it from in. A blank line asks
// for a new code once the cooldown has run out.
func interactiveLogin(ctx context.Context, a *app, p *printer, in *bufio.Reader, email string) error {
	auth := a.store.Auth
	if err := auth.RequestOTP(ctx, email); err != nil {
		return err
	}

	for {
		p.line("Code (blank line to resend):")
		code := readLine(in)
		if code == "" {
			if auth.Cooldown().Active() {
				p.line("%s before requesting another code", auth.Cooldown().Label())
				continue
			}
			if err := auth.RequestOTP(ctx, email); err != nil {
				return err
			}
			continue
		}

		err := auth.Login(ctx, email, code)
		if err == nil {
			p.line("Logged in as %s", email)
			return nil
		}
		var verr *store.ValidationError
		if errors.As(err, &verr) || errors.Is(err, store.ErrReauthRequired) {
			return err
		}
		p.line("%s", auth.LastError())
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func readLine(in *bufio.Reader) string {
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return ""
	}
	return strings.TrimSpace(line)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session on this machine and on the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			a.store.Auth.Logout(ctx)
			p.line("Logged out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			if !a.store.Auth.IsLoggedIn() {
				p.line("Not logged in")
				return nil
			}
			session := a.store.Auth.Session()
			if session.User == nil {
				p.line("Logged in")
				return nil
			}
			p.line("%s <%s>", session.User.UserName, session.User.Email)
			if session.PromptDismissed(a.cfg.LoginPromptThreshold) {
				p.line("Login prompt dismissed %d times", session.User.TrafficCounter)
			}
			p.line("AI provider: %s", a.store.Accounts.Provider())
			return nil
		})
	},
}

var connectTwitterCmd = &cobra.Command{
	Use:   "connect-twitter",
	Short: "Print the URL that links a Twitter account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			addAccount := a.store.Auth.IsLoggedIn()
			u, err := a.store.Auth.BeginOAuth(ctx, addAccount)
			if err != nil {
				return err
			}
			p.line("Open this URL in a browser:")
			p.line("%s", u)
			p.line("Then run 'bullpost oauth-complete' with the values from the redirect.")
			return nil
		})
	},
}

var oauthCompleteCmd = &cobra.Command{
	Use:   "oauth-complete",
	Short: "Finish a Twitter authorisation redirect",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			var user *models.UserProfile
			if oauthUserName != "" || oauthEmail != "" {
				user = &models.UserProfile{UserName: oauthUserName, Email: oauthEmail}
			}
			linked, err := a.store.Auth.CompleteOAuth(ctx, oauthToken, user)
			if err != nil {
				return err
			}
			if linked {
				p.line("Twitter account linked (%d connected)", a.store.Accounts.Accounts().Len(models.ChannelTwitter))
				return nil
			}
			p.line("Logged in through Twitter")
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account e-mail address")
	loginCmd.Flags().StringVar(&loginCode, "code", "", "One-time code already received; skips requesting a new one")

	oauthCompleteCmd.Flags().StringVar(&oauthToken, "token", "", "Session token from the redirect")
	oauthCompleteCmd.Flags().StringVar(&oauthUserName, "user-name", "", "User name from the redirect")
	oauthCompleteCmd.Flags().StringVar(&oauthEmail, "user-email", "", "E-mail from the redirect")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, connectTwitterCmd, oauthCompleteCmd)
}

func channelArg(s string) (models.Channel, error) {
	ch, ok := models.ParseChannel(strings.ToLower(strings.TrimSpace(s)))
	if !ok {
		return "", fmt.Errorf("unknown channel %q (discord, telegram or twitter)", s)
	}
	return ch, nil
}
