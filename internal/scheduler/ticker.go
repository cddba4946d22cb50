package scheduler

import (
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SecondTicker runs callbacks once per second on a cron runner. It drives
// countdowns such as the OTP cooldown.
type SecondTicker struct {
	cron *cron.Cron
}

// NewSecondTicker starts a dedicated cron runner
func NewSecondTicker() *SecondTicker {
	c := cron.New(cron.WithSeconds())
	c.Start()
	return &SecondTicker{cron: c}
}

// Start calls fn every second until the returned func is called
func (t *SecondTicker) Start(fn func()) func() {
	id, err := t.cron.AddFunc("@every 1s", fn)
	if err != nil {
		logrus.Errorf("Failed to start ticker: %v", err)
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() { t.cron.Remove(id) })
	}
}

// Close stops the runner
func (t *SecondTicker) Close() {
	t.cron.Stop()
}
