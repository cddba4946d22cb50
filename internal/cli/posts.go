package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/store"
	"github.com/spf13/cobra"
)

// scheduleInputLayout is how --at is written on the command line
const scheduleInputLayout = "2006-01-02 15:04"

var (
	postsStatus  string
	postsPage    int
	postChannel  string
	postText     string
	postImage    string
	scheduleAt   string
	scheduleZone string
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Browse and act on announcements",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show one page of posts for a status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := statusArg(postsStatus)
		if err != nil {
			return err
		}
		return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			posts := a.store.Posts
			posts.SwitchStatus(status)
			if err := posts.FetchByStatus(ctx, status, postsPage, a.cfg.PageSize); err != nil {
				if errors.Is(err, store.ErrNoMorePages) {
					total, _ := posts.TotalPages(status)
					return fmt.Errorf("page %d is past the last page (%d)", postsPage, total)
				}
				return err
			}
			total, _ := posts.TotalPages(status)
			p.posts(status, posts.Page(), total, posts.Posts())
			return nil
		})
	},
}

var postsShowCmd = &cobra.Command{
	Use:   "show <post-id>",
	Short: "Show every channel variant of a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPost(cmd, args[0], func(ctx context.Context, a *app, p *printer, post models.Post) error {
			p.post(post)
			return nil
		})
	},
}

var postsEditCmd = &cobra.Command{
	Use:   "edit <post-id>",
	Short: "Replace the text or image of one channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := channelArg(postChannel)
		if err != nil {
			return err
		}
		patch := models.PostPatch{Channel: ch}
		if cmd.Flags().Changed("text") {
			patch.Text = &postText
		}
		if postImage != "" {
			f, err := os.Open(postImage)
			if err != nil {
				return fmt.Errorf("failed to open image: %w", err)
			}
			defer f.Close()
			patch.Image = &models.ImageUpload{Filename: filepath.Base(postImage), Reader: f}
		}

		return withPost(cmd, args[0], func(ctx context.Context, a *app, p *printer, post models.Post) error {
			updated, err := a.store.Posts.UpdatePost(ctx, post.ID, patch)
			if err != nil {
				return err
			}
			p.post(updated)
			return nil
		})
	},
}

var postsRegenerateCmd = &cobra.Command{
	Use:   "regenerate <post-id>",
	Short: "Rewrite one channel with the preferred AI provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch := store.PlatformField(postChannel)
		return withPost(cmd, args[0], func(ctx context.Context, a *app, p *printer, post models.Post) error {
			result, err := a.store.Posts.RegeneratePost(ctx, ch, post.ID)
			if err != nil {
				return err
			}
			p.line("New %s text (%s):", ch.Title(), a.store.Accounts.Provider())
			p.line("%s", result.Content)
			return nil
		})
	},
}

var postsPublishCmd = &cobra.Command{
	Use:   "publish <post-id>",
	Short: "Post one channel variant now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := channelArg(postChannel)
		if err != nil {
			return err
		}
		return withPost(cmd, args[0], func(ctx context.Context, a *app, p *printer, post models.Post) error {
			_, err := a.store.Posts.PostNow(ctx, ch, post.ID)
			return err
		})
	},
}

var postsScheduleCmd = &cobra.Command{
	Use:   "schedule <post-id>",
	Short: "Queue one channel variant for later",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := channelArg(postChannel)
		if err != nil {
			return err
		}
		return withPost(cmd, args[0], func(ctx context.Context, a *app, p *printer, post models.Post) error {
			at, err := parseScheduleTime(scheduleAt, scheduleZone, a.cfg.TimeZone)
			if err != nil {
				return err
			}
			_, err = a.store.Posts.SchedulePost(ctx, ch, post.ID, at, scheduleZone)
			return err
		})
	},
}

var postsUnpublishCmd = &cobra.Command{
	Use:   "unpublish <post-id>",
	Short: "Return a posted channel variant to drafts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := channelArg(postChannel)
		if err != nil {
			return err
		}
		return withPost(cmd, args[0], func(ctx context.Context, a *app, p *printer, post models.Post) error {
			_, err := a.store.Posts.Unpublish(ctx, ch, post.ID)
			return err
		})
	},
}

// withPost pages through the --status list until it finds id and loads it
// into the composer before running fn.
func withPost(cmd *cobra.Command, id string, fn func(ctx context.Context, a *app, p *printer, post models.Post) error) error {
	status, err := statusArg(postsStatus)
	if err != nil {
		return err
	}
	return runWithApp(cmd, func(ctx context.Context, a *app, p *printer) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		posts := a.store.Posts
		posts.SwitchStatus(status)

		for page := 1; ; page++ {
			err := posts.FetchByStatus(ctx, status, page, a.cfg.PageSize)
			if errors.Is(err, store.ErrNoMorePages) {
				return fmt.Errorf("post %s not found among %s posts", id, status)
			}
			if err != nil {
				return err
			}
			if post, ok := posts.Find(id); ok {
				posts.Select(post)
				return fn(ctx, a, p, post)
			}
		}
	})
}

func statusArg(s string) (models.Status, error) {
	status, ok := models.ParseStatus(s)
	if !ok {
		return "", fmt.Errorf("unknown status %q (drafts, scheduled or posted)", s)
	}
	return status, nil
}

// parseScheduleTime reads --at as wall-clock time in zone, or in fallback
// when no zone was given.
func parseScheduleTime(at, zone, fallback string) (time.Time, error) {
	if at == "" {
		return time.Time{}, &store.ValidationError{Field: "dateTime", Message: "A date and time is required"}
	}
	if zone == "" {
		zone = fallback
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, &store.ValidationError{Field: "timeZone", Message: "Unknown time zone " + zone}
	}
	t, err := time.ParseInLocation(scheduleInputLayout, at, loc)
	if err != nil {
		return time.Time{}, &store.ValidationError{Field: "dateTime", Message: "Use the format YYYY-MM-DD HH:MM"}
	}
	return t, nil
}

func init() {
	postsCmd.PersistentFlags().StringVar(&postsStatus, "status", string(models.StatusDrafts), "Status list to look in: drafts, scheduled or posted")
	postsListCmd.Flags().IntVar(&postsPage, "page", 1, "Page number")

	for _, c := range []*cobra.Command{postsEditCmd, postsRegenerateCmd, postsPublishCmd, postsScheduleCmd, postsUnpublishCmd} {
		c.Flags().StringVar(&postChannel, "channel", string(models.ChannelDiscord), "Channel variant: discord, telegram or twitter")
	}
	postsEditCmd.Flags().StringVar(&postText, "text", "", "New text for the channel")
	postsEditCmd.Flags().StringVar(&postImage, "image", "", "Path of an image to attach")
	postsScheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "When to post, as YYYY-MM-DD HH:MM")
	postsScheduleCmd.Flags().StringVar(&scheduleZone, "tz", "", "IANA time zone of --at, defaults to the configured zone")

	postsCmd.AddCommand(postsListCmd, postsShowCmd, postsEditCmd, postsRegenerateCmd, postsPublishCmd, postsScheduleCmd, postsUnpublishCmd)
	rootCmd.AddCommand(postsCmd)
}
