package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bullpost/bullpost-client/internal/config"
	"github.com/bullpost/bullpost-client/internal/metrics"
	"github.com/bullpost/bullpost-client/internal/models"
	"github.com/bullpost/bullpost-client/internal/notifications"
	"github.com/bullpost/bullpost-client/internal/store"
	"github.com/sirupsen/logrus"
)

// Service keeps a Store in step with the backend: it hydrates from the
// cache once, then reloads preferences, accounts and posts on every run.
type Service struct {
	config              *config.Config
	store               *store.Store
	notificationService notifications.NotificationInterface
	metrics             *Metrics
	mu                  sync.RWMutex
	running             sync.Mutex
}

// Metrics describes the last reconcile run
type Metrics struct {
	Runs            int            `json:"runs"`
	LastRun         time.Time      `json:"last_run"`
	LastRunDuration string         `json:"last_run_duration"`
	LoggedIn        bool           `json:"logged_in"`
	User            string         `json:"user,omitempty"`
	Accounts        map[string]int `json:"accounts"`
	Status          string         `json:"status"`
	VisiblePosts    int            `json:"visible_posts"`
	ErrorCount      int            `json:"error_count"`
}

// NewService creates a reconcile service. notificationService may be nil.
func NewService(cfg *config.Config, st *store.Store, notificationService notifications.NotificationInterface) *Service {
	return &Service{
		config:              cfg,
		store:               st,
		notificationService: notificationService,
		metrics:             &Metrics{Accounts: make(map[string]int)},
	}
}

// Run performs one reconcile. Runs never overlap; a run requested while
// another is active waits for it.
func (s *Service) Run() error {
	s.running.Lock()
	defer s.running.Unlock()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if !s.store.Auth.Hydrated() {
		if err := s.store.Hydrate(ctx); err != nil {
			logrus.Errorf("Hydration reconcile failed: %v", err)
		}
	}

	if !s.store.Auth.IsLoggedIn() {
		logrus.Info("Skipping reconcile, no session")
		s.updateMetrics(time.Since(start), 0)
		metrics.ReconcileRunsTotal.WithLabelValues("anonymous").Inc()
		return nil
	}

	var wg sync.WaitGroup
	errorsChan := make(chan error, 2)

	// Preferences and accounts are independent resources
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.store.Accounts.LoadPreferences(ctx); err != nil {
			errorsChan <- fmt.Errorf("preferences: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.store.Accounts.LoadAccounts(ctx); err != nil {
			errorsChan <- fmt.Errorf("accounts: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errorsChan)
	}()

	var errs []error
	for err := range errorsChan {
		if !errors.Is(err, store.ErrStale) {
			errs = append(errs, err)
		}
	}

	if err := s.store.Posts.Refresh(ctx); err != nil && !errors.Is(err, store.ErrStale) && !errors.Is(err, store.ErrInFlight) {
		errs = append(errs, fmt.Errorf("posts: %w", err))
	}

	s.updateMetrics(time.Since(start), len(errs))

	if len(errs) > 0 {
		metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		logrus.Errorf("Reconcile finished with %d errors in %v", len(errs), time.Since(start))
		return errors.Join(errs...)
	}

	metrics.ReconcileRunsTotal.WithLabelValues("ok").Inc()
	logrus.Infof("Reconcile completed in %v", time.Since(start))
	return nil
}

// SendScheduleReport loads the first page of scheduled posts and forwards
// a report of them.
func (s *Service) SendScheduleReport() error {
	if s.notificationService == nil {
		logrus.Debug("No notification forwarding configured, skipping report")
		return nil
	}
	if !s.store.Auth.IsLoggedIn() {
		return store.ErrReauthRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	scheduled, err := s.store.Posts.PeekByStatus(ctx, models.StatusScheduled, 1, s.config.PageSize)
	if err != nil {
		return fmt.Errorf("failed to load scheduled posts: %w", err)
	}

	report := s.GenerateReport(scheduled)
	if err := s.notificationService.SendReport(report); err != nil {
		return fmt.Errorf("failed to send schedule report: %w", err)
	}
	return nil
}

// GenerateReport builds a schedule report, earliest post first
func (s *Service) GenerateReport(scheduled []models.Post) *models.Report {
	posts := append([]models.Post(nil), scheduled...)
	sort.SliceStable(posts, func(i, j int) bool {
		return earliest(&posts[i]).Before(earliest(&posts[j]))
	})

	summary := make(map[string]int)
	for i := range posts {
		for _, ch := range models.AllChannels {
			if posts[i].ScheduledAt(ch) != nil {
				summary[ch.Title()]++
			}
		}
	}

	user := ""
	if u := s.store.Auth.Session().User; u != nil {
		user = u.UserName
	}

	return &models.Report{
		GeneratedAt: time.Now(),
		Period:      s.config.ReportSchedule,
		User:        user,
		Scheduled:   posts,
		Summary:     summary,
	}
}

// earliest returns the first scheduled time across channels; unscheduled
// posts sort last.
func earliest(p *models.Post) time.Time {
	var first time.Time
	for _, ch := range models.AllChannels {
		if at := p.ScheduledAt(ch); at != nil && (first.IsZero() || at.Before(first)) {
			first = *at
		}
	}
	if first.IsZero() {
		return time.Unix(1<<62, 0)
	}
	return first
}

func (s *Service) updateMetrics(duration time.Duration, errorCount int) {
	session := s.store.Auth.Session()
	accounts := s.store.Accounts.Accounts()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Runs++
	s.metrics.LastRun = time.Now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.ErrorCount = errorCount
	s.metrics.LoggedIn = s.store.Auth.IsLoggedIn()
	s.metrics.User = ""
	if session.User != nil {
		s.metrics.User = session.User.UserName
	}

	s.metrics.Accounts = make(map[string]int)
	for _, ch := range models.AllChannels {
		s.metrics.Accounts[string(ch)] = accounts.Len(ch)
	}
	s.metrics.Status = string(s.store.Posts.Status())
	s.metrics.VisiblePosts = len(s.store.Posts.Posts())
}

// GetMetrics returns the last run's metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}
