package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bullpost/bullpost-client/internal/models"
)

// ScheduleLayout is the wall-clock format sent with schedule requests;
// the zone travels separately in timeZone.
const ScheduleLayout = "2006-01-02T15:04"

type postEnvelope struct {
	Post *models.Post `json:"post"`
	Data *models.Post `json:"data"`
}

func (e postEnvelope) post() *models.Post {
	if e.Post != nil {
		return e.Post
	}
	return e.Data
}

// PostsByStatus loads one page of posts in a lifecycle state
func (c *Client) PostsByStatus(ctx context.Context, status models.Status, page, limit int) (models.PostPage, error) {
	var resp models.PostPage
	err := c.call(ctx, "posts by status", http.MethodPost, "posts/postsByStatus", true,
		map[string]interface{}{"status": status, "page": page, "limit": limit}, &resp)
	if err != nil {
		return models.PostPage{}, err
	}
	if resp.Posts == nil {
		resp.Posts = []models.Post{}
	}
	return resp, nil
}

// UpdatePost edits one channel of a post. Patches carrying an image are
// sent as multipart/form-data, everything else as JSON.
func (c *Client) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	const op = "update post"

	req, err := c.newRequest(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if patch.Multipart() {
		fields := map[string]string{"platform": string(patch.Channel)}
		if patch.Text != nil {
			fields[string(patch.Channel)] = *patch.Text
		}
		req.SetMultipartFormData(fields).
			SetFileReader("image", patch.Image.Filename, patch.Image.Reader)
	} else {
		body := map[string]interface{}{"platform": patch.Channel}
		if patch.Text != nil {
			body[string(patch.Channel)] = *patch.Text
		}
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	var resp postEnvelope
	if err := c.execute(op, http.MethodPut, "posts/updatePost/"+id, req, &resp); err != nil {
		return nil, err
	}
	return resp.post(), nil
}

// Regenerate asks the provider's generation endpoint to rewrite one channel
func (c *Client) Regenerate(ctx context.Context, provider models.Provider, ch models.Channel, postID string) (models.Generated, error) {
	path := "generationOpenIA/regenerate"
	if provider == models.ProviderGemini {
		path = "generationGemini/regenerate"
	}

	var resp models.Generated
	err := c.call(ctx, "regenerate "+string(provider), http.MethodPut, path, true,
		map[string]string{"platform": string(ch), "postId": postID}, &resp)
	if err != nil {
		return models.Generated{}, err
	}
	if resp.PostID == "" {
		resp.PostID = postID
	}
	return resp, nil
}

// PostNow publishes a post to one channel immediately
func (c *Client) PostNow(ctx context.Context, ch models.Channel, id string) (*models.Post, error) {
	var resp postEnvelope
	if err := c.call(ctx, "post now "+string(ch), http.MethodPost, publishPath(ch, "postNow", id), true, nil, &resp); err != nil {
		return nil, err
	}
	return resp.post(), nil
}

// SchedulePost queues a post for one channel at a wall-clock time in loc
func (c *Client) SchedulePost(ctx context.Context, ch models.Channel, id string, at time.Time, loc *time.Location) (*models.Post, error) {
	body := map[string]string{
		"dateTime": at.In(loc).Format(ScheduleLayout),
		"timeZone": loc.String(),
	}

	var resp postEnvelope
	if err := c.call(ctx, "schedule "+string(ch), http.MethodPost, publishPath(ch, "schedulePost", id), true, body, &resp); err != nil {
		return nil, err
	}
	return resp.post(), nil
}

// Unpublish returns a posted channel variant to drafts
func (c *Client) Unpublish(ctx context.Context, ch models.Channel, id string) (*models.Post, error) {
	var resp postEnvelope
	if err := c.call(ctx, "unpublish "+string(ch), http.MethodPost, publishPath(ch, "unpublish", id), true, nil, &resp); err != nil {
		return nil, err
	}
	return resp.post(), nil
}

func publishPath(ch models.Channel, action, id string) string {
	return fmt.Sprintf("post%s/%s/%s", ch.Title(), action, id)
}
