package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bullpost/bullpost-client/internal/api"
	"github.com/bullpost/bullpost-client/internal/cache"
	"github.com/bullpost/bullpost-client/internal/config"
	"github.com/bullpost/bullpost-client/internal/notifications"
	"github.com/bullpost/bullpost-client/internal/scheduler"
	"github.com/bullpost/bullpost-client/internal/storage"
	"github.com/bullpost/bullpost-client/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in, run 'bullpost login' first")

// app is everything one command invocation needs
type app struct {
	cfg    *config.Config
	client *api.Client
	center *notifications.Center
	store  *store.Store
	ticker *scheduler.SecondTicker
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	backend, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("error opening storage: %w", err)
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		client: api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout),
		center: notifications.NewCenter(50, nil),
		ticker: scheduler.NewSecondTicker(),
	}
	a.store = store.New(a.client, cache.New(backend), a.center, store.Options{
		CooldownSeconds: cfg.OTPCooldownSeconds,
		PageSize:        cfg.PageSize,
		CookieName:      cfg.SessionCookieName,
		Location:        loc,
		Ticker:          a.ticker,
	})

	if err := a.store.Hydrate(ctx); err != nil {
		logrus.Warnf("Could not refresh preferences: %v", err)
	}
	return a, nil
}

func (a *app) close() {
	a.ticker.Close()
}

func (a *app) requireLogin() error {
	if !a.store.Auth.IsLoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

// runWithApp builds the app for a command and tears it down afterwards.
// Notifications raised while the command ran are printed last.
func runWithApp(cmd *cobra.Command, fn func(ctx context.Context, a *app, p *printer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	p := &printer{w: cmd.OutOrStdout()}
	err = fn(ctx, a, p)
	p.notifications(a.center.Active())
	return err
}
