package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bullpost/bullpost-client/internal/api"
	"github.com/bullpost/bullpost-client/internal/cache"
	"github.com/bullpost/bullpost-client/internal/config"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("BullPost - API Connectivity Check")
	fmt.Println("=================================")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)

	fmt.Printf("\nBackend: %s\n", client.BaseURL())
	fmt.Println(strings.Repeat("-", 40))

	check("OAuth URL", func() (string, error) {
		u, err := client.OAuthURL(ctx)
		return u, err
	})

	backend, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	session := cache.New(backend).Session()
	if session.Anonymous() {
		fmt.Println("\nNo cached session; run 'bullpost login' to check authenticated routes.")
		return
	}
	client.SetToken(session.Token)

	check("Preferences", func() (string, error) {
		prefs, err := client.GetPreferences(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("provider %q", prefs.PreferredAIProvider), nil
	})
	check("Accounts", func() (string, error) {
		set, err := client.GetAccounts(ctx, models.AllChannels)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d discord, %d telegram, %d twitter",
			len(set.Discord), len(set.Telegram), len(set.Twitter)), nil
	})
	for _, status := range []models.Status{models.StatusDrafts, models.StatusScheduled, models.StatusPosted} {
		check("Posts ("+string(status)+")", func() (string, error) {
			page, err := client.PostsByStatus(ctx, status, 1, cfg.PageSize)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d on page 1 of %d", len(page.Posts), page.TotalPages), nil
		})
	}

	fmt.Println("\nConnectivity check completed.")
}

func check(name string, probe func() (string, error)) {
	fmt.Printf("- %s... ", name)

	detail, err := probe()
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return
	}
	fmt.Printf("OK (%s)\n", detail)
}
