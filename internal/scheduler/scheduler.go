package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ResetService is the slice of the leaderboard service the scheduler drives.
type ResetService interface {
	ResetWeekly(ctx context.Context) error
	ResetMonthly(ctx context.Context) error
}

// Scheduler fires two independent calendar triggers: weekly scores reset
// every Monday at 00:00 and monthly scores on the 1st at 00:00, both in the
// configured location. Triggers only fire while the process is up; a
// boundary crossed during downtime is not backfilled, the next future
// boundary fires as usual.
type Scheduler struct {
	service ResetService
	loc     *time.Location
	stop    chan struct{}
	wg      sync.WaitGroup
}

func New(service ResetService, loc *time.Location) *Scheduler {
	return &Scheduler{
		service: service,
		loc:     loc,
		stop:    make(chan struct{}),
	}
}

// Start launches both trigger loops. Call once at process start.
func (s *Scheduler) Start() {
	s.wg.Add(2)
	go s.runTrigger("weekly", nextWeeklyReset, s.service.ResetWeekly)
	go s.runTrigger("monthly", nextMonthlyReset, s.service.ResetMonthly)
	slog.Info("Reset scheduler started", "timezone", s.loc.String())
}

// Stop halts both triggers and waits for an in-flight reset to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
	slog.Info("Reset scheduler stopped")
}

func (s *Scheduler) runTrigger(name string, next func(time.Time) time.Time, reset func(context.Context) error) {
	defer s.wg.Done()

	for {
		fireAt := next(time.Now().In(s.loc))
		timer := time.NewTimer(time.Until(fireAt))

		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		slog.Info("Reset trigger fired", "trigger", name, "scheduled_for", fireAt)
		if err := reset(context.Background()); err != nil {
			// Best effort: log and wait for the next boundary.
			slog.Error("Scheduled reset failed", "trigger", name, "error", err)
		}
	}
}

// nextWeeklyReset returns the first Monday 00:00 strictly after now, in
// now's location.
func nextWeeklyReset(now time.Time) time.Time {
	daysAhead := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).
		AddDate(0, 0, daysAhead)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// nextMonthlyReset returns the first "1st of the month, 00:00" strictly
// after now, in now's location.
func nextMonthlyReset(now time.Time) time.Time {
	candidate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	}
	return candidate
}
