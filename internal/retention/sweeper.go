// Package retention removes sessions that have passed their retention window,
// cascading captions, memory entries, answers, and resume text.
package retention

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ethanbaker/copilot/internal/copilot"
	"github.com/robfig/cron/v3"
)

// Defaults for the sweep cadence and retention window
const (
	DefaultSchedule      = "0 3 * * *"
	DefaultRetentionDays = 30
)

// Sweeper periodically deletes expired sessions
type Sweeper struct {
	service   *copilot.Service
	cron      *cron.Cron
	retention time.Duration
	schedule  string
}

// NewSweeper creates a sweeper for the given retention window in days
func NewSweeper(service *copilot.Service, retentionDays int, schedule string) *Sweeper {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	if schedule == "" {
		schedule = DefaultSchedule
	}

	return &Sweeper{
		service:   service,
		cron:      cron.New(),
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		schedule:  schedule,
	}
}

// Start schedules the sweep on its cron cadence
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		removed, err := s.Sweep(ctx)
		if err != nil {
			log.Printf("[SWEEPER]: Sweep failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("[SWEEPER]: Removed %d expired sessions", removed)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop cancels the scheduled sweep
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep removes every session whose last activity predates the retention
// window, returning how many were removed. A failure on one session does not
// stop the others.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.retention)

	expired, err := s.service.Sessions().ExpiredSessions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired sessions: %w", err)
	}

	removed := 0
	for _, sess := range expired {
		if err := s.service.RemoveSession(ctx, sess.ID); err != nil {
			log.Printf("[SWEEPER]: Failed to remove session %s: %v", sess.ID, err)
			continue
		}
		removed++
	}

	return removed, nil
}
