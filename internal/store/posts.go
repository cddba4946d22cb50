package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/notifications"
	"github.com/sirupsen/logrus"
)

// PlatformField maps a free-form platform name to the text field it
// regenerates. Unrecognised platforms land in the Discord field.
func PlatformField(platform string) models.Channel {
	if ch, ok := models.ParseChannel(strings.ToLower(strings.TrimSpace(platform))); ok {
		return ch
	}
	return models.ChannelDiscord
}

// PostsStore holds one page of posts for a status and the post loaded
// into the composer.
type PostsStore struct {
	backend  PostsBackend
	notifier notifications.Notifier
	provider func() models.Provider
	location *time.Location
	pageSize int
	nowFunc  func() time.Time

	mu         sync.Mutex
	status     models.Status
	page       int
	posts      []models.Post
	totalPages map[models.Status]int
	inFlight   bool
	selected   *models.Post
	gen        uint64
}

// NewPostsStore creates an empty posts container showing drafts
func NewPostsStore(backend PostsBackend, n notifications.Notifier, provider func() models.Provider, loc *time.Location, pageSize int) *PostsStore {
	if loc == nil {
		loc = time.UTC
	}
	return &PostsStore{
		backend:    backend,
		notifier:   n,
		provider:   provider,
		location:   loc,
		pageSize:   pageSize,
		nowFunc:    time.Now,
		status:     models.StatusDrafts,
		totalPages: make(map[models.Status]int),
	}
}

// Posts returns a copy of the visible page
func (s *PostsStore) Posts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Post(nil), s.posts...)
}

// Status is the lifecycle state the visible page is filtered by
func (s *PostsStore) Status() models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Page is the number of the visible page, 0 before the first fetch
func (s *PostsStore) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// TotalPages returns the page count last reported for status
func (s *PostsStore) TotalPages(status models.Status) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.totalPages[status]
	return n, ok
}

// InFlight reports whether a page fetch is outstanding
func (s *PostsStore) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Selected returns a copy of the selected announcement, nil if none
func (s *PostsStore) Selected() *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	p := *s.selected
	return &p
}

// Select loads a post into the composer
func (s *PostsStore) Select(post models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = &post
}

// ClearSelection empties the composer for a new post
func (s *PostsStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}

// Find returns a copy of a post on the visible page or in the selection
func (s *PostsStore) Find(id string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.lookup(id); p != nil {
		return *p, true
	}
	return models.Post{}, false
}

// lookup returns the freshest local copy of a post. Caller holds mu.
func (s *PostsStore) lookup(id string) *models.Post {
	if s.selected != nil && s.selected.ID == id {
		return s.selected
	}
	for i := range s.posts {
		if s.posts[i].ID == id {
			return &s.posts[i]
		}
	}
	return nil
}

// Reset drops everything and invalidates in-flight completions
func (s *PostsStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = models.StatusDrafts
	s.page = 0
	s.posts = nil
	s.totalPages = make(map[models.Status]int)
	s.inFlight = false
	s.selected = nil
	s.gen++
}

// SwitchStatus changes the status filter. A fetch still running for the
// previous status is abandoned: its completion will be discarded.
func (s *PostsStore) SwitchStatus(status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == s.status {
		return
	}
	s.status = status
	s.page = 0
	s.posts = nil
	s.inFlight = false
	s.gen++
}

// FetchByStatus loads one page and makes it the visible list. It refuses
// to overlap an outstanding fetch and to go past the last known page.
func (s *PostsStore) FetchByStatus(ctx context.Context, status models.Status, page, pageSize int) error {
	if _, ok := models.ParseStatus(string(status)); !ok {
		return &ValidationError{Field: "status", Message: "Unknown status"}
	}
	if page < 1 {
		return ErrInvalidPage
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrInFlight
	}
	if total, ok := s.totalPages[status]; ok && page > total {
		s.mu.Unlock()
		return ErrNoMorePages
	}
	s.inFlight = true
	gen := s.gen
	s.mu.Unlock()

	result, err := s.backend.PostsByStatus(ctx, status, page, pageSize)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return stale("posts")
	}
	s.inFlight = false
	if err != nil {
		s.mu.Unlock()
		return surface(s.notifier, err)
	}
	defer s.mu.Unlock()

	// An empty status still has one (empty) page.
	total := result.TotalPages
	if total < 1 {
		total = 1
	}
	s.status = status
	s.page = page
	s.posts = result.Posts
	s.totalPages[status] = total
	logrus.Debugf("Loaded %d %s posts (page %d/%d)", len(result.Posts), status, page, total)
	return nil
}

// PeekByStatus loads one page without touching the visible list, the
// filter or the page counters.
func (s *PostsStore) PeekByStatus(ctx context.Context, status models.Status, page, pageSize int) ([]models.Post, error) {
	if _, ok := models.ParseStatus(string(status)); !ok {
		return nil, &ValidationError{Field: "status", Message: "Unknown status"}
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	gen := s.generation()

	result, err := s.backend.PostsByStatus(ctx, status, page, pageSize)
	if err != nil {
		return nil, s.failed(gen, err)
	}
	return result.Posts, nil
}

// NextPage fetches the page after the visible one; it replaces the list
func (s *PostsStore) NextPage(ctx context.Context) error {
	s.mu.Lock()
	status, page := s.status, s.page
	s.mu.Unlock()
	return s.FetchByStatus(ctx, status, page+1, s.pageSize)
}

// Refresh fetches the visible page again, or the first page if none is shown
func (s *PostsStore) Refresh(ctx context.Context) error {
	s.mu.Lock()
	status, page := s.status, s.page
	s.mu.Unlock()
	if page < 1 {
		page = 1
	}
	return s.FetchByStatus(ctx, status, page, s.pageSize)
}

// UpdatePost edits one channel of a post. On success the returned post
// replaces the list entry and the selection; on failure neither changes.
func (s *PostsStore) UpdatePost(ctx context.Context, id string, patch models.PostPatch) (models.Post, error) {
	if _, ok := models.ParseChannel(string(patch.Channel)); !ok {
		return models.Post{}, ErrUnknownChannel
	}
	if patch.Image == nil && (patch.Text == nil || strings.TrimSpace(*patch.Text) == "") {
		return models.Post{}, ErrEmptyPost
	}
	gen := s.generation()

	updated, err := s.backend.UpdatePost(ctx, id, patch)
	if err != nil {
		return models.Post{}, s.failed(gen, err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return models.Post{}, stale("posts")
	}
	if updated == nil {
		local := s.lookup(id)
		if local == nil {
			s.mu.Unlock()
			return models.Post{}, fmt.Errorf("update post %s: %w", id, ErrMismatchedResponse)
		}
		p := *local
		if patch.Text != nil {
			p.SetText(patch.Channel, *patch.Text)
		}
		updated = &p
	}
	if err := s.replace(id, updated); err != nil {
		s.mu.Unlock()
		return models.Post{}, surface(s.notifier, err)
	}
	s.mu.Unlock()

	s.notifier.Notify(models.LevelSuccess, "Post updated")
	return *updated, nil
}

// replace swaps the post in the list and the selection. A post whose
// status no longer matches the filter leaves the visible list. Caller holds mu.
func (s *PostsStore) replace(id string, post *models.Post) error {
	if post.ID == "" {
		post.ID = id
	}
	if post.ID != id {
		return fmt.Errorf("expected post %s, got %s: %w", id, post.ID, ErrMismatchedResponse)
	}

	for i := 0; i < len(s.posts); i++ {
		if s.posts[i].ID != id {
			continue
		}
		if post.Status != "" && post.Status != s.status {
			s.posts = append(s.posts[:i:i], s.posts[i+1:]...)
			i--
			continue
		}
		s.posts[i] = *post
	}
	if s.selected != nil && s.selected.ID == id {
		p := *post
		s.selected = &p
	}
	return nil
}

// RegeneratePost asks the preferred AI provider to rewrite one channel of a
// post. Only that channel's text changes locally.
func (s *PostsStore) RegeneratePost(ctx context.Context, ch models.Channel, postID string) (models.Generated, error) {
	if _, ok := models.ParseChannel(string(ch)); !ok {
		return models.Generated{}, ErrUnknownChannel
	}
	provider := models.ProviderOpenAI
	if s.provider != nil {
		provider = s.provider()
	}
	gen := s.generation()

	result, err := s.backend.Regenerate(ctx, provider, ch, postID)
	if err != nil {
		return models.Generated{}, s.failed(gen, err)
	}
	if result.PostID != "" && result.PostID != postID {
		logrus.Debugf("Regenerate for post %s answered with post id %s", postID, result.PostID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return models.Generated{}, stale("posts")
	}
	for i := range s.posts {
		if s.posts[i].ID == postID {
			s.posts[i].SetText(ch, result.Content)
		}
	}
	if s.selected != nil && s.selected.ID == postID {
		s.selected.SetText(ch, result.Content)
	}
	logrus.Debugf("Regenerated %s text of post %s with %s", ch, postID, provider)
	return result, nil
}

// PostNow publishes one channel of a post immediately
func (s *PostsStore) PostNow(ctx context.Context, ch models.Channel, id string) (*models.Post, error) {
	if err := s.guard(ch, id, models.Status.CanPostNow); err != nil {
		return nil, err
	}
	return s.transition(id, "Posted to "+ch.Title(), func() (*models.Post, error) {
		return s.backend.PostNow(ctx, ch, id)
	})
}

// SchedulePost queues one channel of a post. An empty timeZone uses the
// configured default.
func (s *PostsStore) SchedulePost(ctx context.Context, ch models.Channel, id string, at time.Time, timeZone string) (*models.Post, error) {
	if err := s.guard(ch, id, models.Status.CanSchedule); err != nil {
		return nil, err
	}

	loc := s.location
	if timeZone != "" {
		l, err := time.LoadLocation(timeZone)
		if err != nil {
			return nil, &ValidationError{Field: "timeZone", Message: "Unknown time zone " + timeZone}
		}
		loc = l
	}
	if !at.After(s.nowFunc()) {
		return nil, ErrScheduleInPast
	}

	msg := fmt.Sprintf("Scheduled for %s at %s", ch.Title(), at.In(loc).Format("Jan 2 15:04 MST"))
	return s.transition(id, msg, func() (*models.Post, error) {
		return s.backend.SchedulePost(ctx, ch, id, at, loc)
	})
}

// Unpublish returns a posted channel variant to drafts
func (s *PostsStore) Unpublish(ctx context.Context, ch models.Channel, id string) (*models.Post, error) {
	if err := s.guard(ch, id, models.Status.CanUnpublish); err != nil {
		return nil, err
	}
	return s.transition(id, "Unpublished from "+ch.Title(), func() (*models.Post, error) {
		return s.backend.Unpublish(ctx, ch, id)
	})
}

// guard rejects actions the locally known status forbids. Posts not held
// locally are left for the backend to judge.
func (s *PostsStore) guard(ch models.Channel, id string, allowed func(models.Status) bool) error {
	if _, ok := models.ParseChannel(string(ch)); !ok {
		return ErrUnknownChannel
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.lookup(id); p != nil && p.Status != "" && !allowed(p.Status) {
		return fmt.Errorf("post %s is %s: %w", id, p.Status, ErrInvalidTransition)
	}
	return nil
}

func (s *PostsStore) transition(id, success string, call func() (*models.Post, error)) (*models.Post, error) {
	gen := s.generation()

	post, err := call()
	if err != nil {
		return nil, s.failed(gen, err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil, stale("posts")
	}
	if post != nil {
		if err := s.replace(id, post); err != nil {
			s.mu.Unlock()
			return nil, surface(s.notifier, err)
		}
	}
	s.mu.Unlock()

	s.notifier.Notify(models.LevelSuccess, success)
	return post, nil
}

// failed surfaces err unless the container moved on while the call ran
func (s *PostsStore) failed(gen uint64, err error) error {
	if s.generation() != gen {
		return stale("posts")
	}
	return surface(s.notifier, err)
}

func (s *PostsStore) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}
