// internal/scheduler/scheduler.go
//
// Background worker that pre-generates daily answers. Runs once at startup
// and then every midnight UTC, ensuring today's and tomorrow's answers exist
// so the first player of the day never pays the selection cost.

package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/answer"
)

// Worker wraps the gocron scheduler around the answer selector.
type Worker struct {
	selector *answer.Selector
	sched    gocron.Scheduler
}

func New(selector *answer.Selector) (*Worker, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	return &Worker{selector: selector, sched: sched}, nil
}

// Start registers the midnight job and kicks off an immediate run.
func (w *Worker) Start(ctx context.Context) error {
	_, err := w.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 0, 30))),
		gocron.NewTask(func() { w.ensure(ctx) }),
	)
	if err != nil {
		return err
	}
	w.sched.Start()
	go w.ensure(ctx)
	return nil
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (w *Worker) Stop() {
	if err := w.sched.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("scheduler shutdown")
	}
}

func (w *Worker) ensure(ctx context.Context) {
	results := w.selector.EnsureUpcoming(ctx, time.Now())
	for date, err := range results {
		if err == nil {
			log.Info().Str("date", date).Msg("daily answer ensured")
		}
	}
}
