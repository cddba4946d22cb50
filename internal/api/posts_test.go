package api

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostsByStatus(t *testing.T) {
	client, seen := newBackend(t, respond(http.StatusOK, `{"posts":[{"id":"p1","title":"Launch","status":"drafts","discord":"hello"}],"totalPages":3}`))
	client.SetToken("abc")

	page, err := client.PostsByStatus(context.Background(), models.StatusDrafts, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, "hello", page.Posts[0].Text(models.ChannelDiscord))

	body := decodeBody(t, (*seen)[0])
	assert.Equal(t, "/posts/postsByStatus", (*seen)[0].Path)
	assert.Equal(t, "drafts", body["status"])
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, float64(10), body["limit"])
}

func TestPostsByStatusEmptyAnswer(t *testing.T) {
	client, _ := newBackend(t, respond(http.StatusOK, `{}`))
	client.SetToken("abc")

	page, err := client.PostsByStatus(context.Background(), models.StatusPosted, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
}

func TestUpdatePostJSON(t *testing.T) {
	client, seen := newBackend(t, respond(http.StatusOK, `{"post":{"id":"p1","telegram":"new text"}}`))
	client.SetToken("abc")

	text := "new text"
	post, err := client.UpdatePost(context.Background(), "p1", models.PostPatch{Channel: models.ChannelTelegram, Text: &text})
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "new text", post.Telegram)

	req := (*seen)[0]
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/posts/updatePost/p1", req.Path)
	assert.Contains(t, req.ContentType, "application/json")
	assert.Equal(t, map[string]interface{}{"platform": "telegram", "telegram": "new text"}, decodeBody(t, req))
}

func TestUpdatePostWithImageIsMultipart(t *testing.T) {
	var fields map[string]string
	var fileName, fileBody string

	client, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		assert.NoError(t, err)
		reader := multipart.NewReader(r.Body, params["boundary"])
		fields = map[string]string{}
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			buf := new(strings.Builder)
			_, _ = io.Copy(buf, part)
			if part.FileName() != "" {
				fileName, fileBody = part.FileName(), buf.String()
				continue
			}
			fields[part.FormName()] = buf.String()
		}
		respond(http.StatusOK, `{"data":{"id":"p1","discordImage":"https://cdn/x.png"}}`)(w, r)
	})
	client.SetToken("abc")

	text := "with picture"
	post, err := client.UpdatePost(context.Background(), "p1", models.PostPatch{
		Channel: models.ChannelDiscord,
		Text:    &text,
		Image:   &models.ImageUpload{Filename: "x.png", Reader: strings.NewReader("PNGDATA")},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/x.png", post.Image(models.ChannelDiscord))

	assert.Equal(t, "discord", fields["platform"])
	assert.Equal(t, "with picture", fields["discord"])
	assert.Equal(t, "x.png", fileName)
	assert.Equal(t, "PNGDATA", fileBody)
}

func TestRegenerateEndpointFollowsProvider(t *testing.T) {
	tests := []struct {
		provider models.Provider
		path     string
	}{
		{models.ProviderOpenAI, "/generationOpenIA/regenerate"},
		{models.ProviderGemini, "/generationGemini/regenerate"},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			client, seen := newBackend(t, respond(http.StatusOK, `{"content":"fresh","platform":"twitter"}`))
			client.SetToken("abc")

			result, err := client.Regenerate(context.Background(), tt.provider, models.ChannelTwitter, "p1")
			require.NoError(t, err)
			assert.Equal(t, models.Generated{PostID: "p1", Content: "fresh", Platform: "twitter"}, result)

			req := (*seen)[0]
			assert.Equal(t, http.MethodPut, req.Method)
			assert.Equal(t, tt.path, req.Path)
			assert.Equal(t, map[string]interface{}{"platform": "twitter", "postId": "p1"}, decodeBody(t, req))
		})
	}
}

func TestPublishRoutes(t *testing.T) {
	client, seen := newBackend(t, respond(http.StatusOK, `{"post":{"id":"p1","status":"posted"}}`))
	client.SetToken("abc")
	ctx := context.Background()

	post, err := client.PostNow(ctx, models.ChannelTelegram, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPosted, post.Status)

	_, err = client.Unpublish(ctx, models.ChannelDiscord, "p1")
	require.NoError(t, err)

	assert.Equal(t, "/postTelegram/postNow/p1", (*seen)[0].Path)
	assert.Equal(t, "/postDiscord/unpublish/p1", (*seen)[1].Path)
}

func TestSchedulePostSendsWallClockAndZone(t *testing.T) {
	client, seen := newBackend(t, respond(http.StatusOK, `{}`))
	client.SetToken("abc")

	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	at := time.Date(2030, 5, 1, 16, 30, 0, 0, time.UTC)

	post, err := client.SchedulePost(context.Background(), models.ChannelTwitter, "p1", at, loc)
	require.NoError(t, err)
	assert.Nil(t, post)

	req := (*seen)[0]
	assert.Equal(t, "/postTwitter/schedulePost/p1", req.Path)
	assert.Equal(t, map[string]interface{}{
		"dateTime": "2030-05-01T18:30",
		"timeZone": "Europe/Madrid",
	}, decodeBody(t, req))
}
