// Package reminder runs the periodic due-date reminder sweep: once per
// configured interval it finds every incomplete task due tomorrow
// (UTC calendar date) and emails the owner. There is no delivery
// marker; a task still matching the predicate on the next sweep is
// notified again.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/akovalyov/go-taskboard/internal/mailer"
	"github.com/akovalyov/go-taskboard/internal/models"
	"github.com/akovalyov/go-taskboard/internal/services"
)

const subject = "Task Due Tomorrow"

// Source feeds the sweep. services.TaskService satisfies it.
type Source interface {
	TasksDueOn(ctx context.Context, due time.Time) ([]services.ReminderTask, error)
}

type Sweeper struct {
	logger zerolog.Logger
	source Source
	mailer mailer.Mailer
	cron   *cron.Cron
	now    func() time.Time
}

func NewSweeper(
	logger zerolog.Logger,
	source Source,
	mailer mailer.Mailer,
) *Sweeper {
	return &Sweeper{
		logger: logger,
		source: source,
		mailer: mailer,
		now:    time.Now,
	}
}

// Start schedules Sweep to run once per interval. The first pass runs
// after one full interval, not immediately.
func (s *Sweeper) Start(interval time.Duration) error {
	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		s.Sweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info().
		Dur("interval", interval).
		Msg("started reminder sweep")
	return nil
}

// Stop cancels the schedule and waits for a running pass to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("stopped reminder sweep")
}

// Sweep runs a single pass. A failed delivery is logged and skipped;
// it never aborts the pass.
func (s *Sweeper) Sweep(ctx context.Context) {
	tomorrow := s.tomorrow()

	tasks, err := s.source.TasksDueOn(ctx, tomorrow)
	if err != nil {
		s.logger.Error().
			Err(err).
			Time("due", tomorrow).
			Msg("failed to fetch due tasks")
		return
	}

	sent := 0
	for _, t := range tasks {
		err = s.mailer.Send(t.Email, subject, reminderBody(t))
		if err != nil {
			s.logger.Error().
				Err(err).
				Int64("task_id", t.TaskID).
				Str("email", t.Email).
				Msg("failed to send reminder")
			continue
		}
		sent++
	}

	s.logger.Info().
		Time("due", tomorrow).
		Int("matched", len(tasks)).
		Int("sent", sent).
		Msg("finished reminder sweep")
}

// tomorrow is the next UTC calendar date relative to the sweep's run
// time, at midnight.
func (s *Sweeper) tomorrow() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

func reminderBody(t services.ReminderTask) string {
	description := t.Description
	if description == "" {
		description = "No description"
	}
	return fmt.Sprintf("Reminder: Your task '%s' is due on %s. Description: %s.",
		t.Title, t.DueDate.Format(models.DueDateLayout), description)
}
