package scheduler

import (
	"github.com/bullpost/bullpost-client/internal/config"
	"github.com/bullpost/bullpost-client/internal/reconcile"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service schedules the periodic reconcile and schedule report
type Service struct {
	config           *config.Config
	reconcileService *reconcile.Service
	cron             *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, reconcileService *reconcile.Service) *Service {
	return &Service{
		config:           cfg,
		reconcileService: reconcileService,
		cron:             cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled jobs
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.SyncSchedule, func() {
		logrus.Info("Starting scheduled reconcile")
		if err := s.reconcileService.Run(); err != nil {
			logrus.Errorf("Scheduled reconcile failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	var reportExpression string
	switch s.config.ReportSchedule {
	case "daily":
		// Every day at 9 AM
		reportExpression = "0 0 9 * * *"
	case "weekly":
		// Mondays at 9 AM
		reportExpression = "0 0 9 * * MON"
	}

	if reportExpression != "" {
		_, err = s.cron.AddFunc(reportExpression, func() {
			logrus.Info("Sending schedule report")
			if err := s.reconcileService.SendScheduleReport(); err != nil {
				logrus.Errorf("Schedule report failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
	}

	s.cron.Start()
	logrus.Infof("Scheduler started (reconcile %q, report %s)", s.config.SyncSchedule, s.config.ReportSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
