package digest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc is called when the digest job fires.
type JobFunc func(ctx context.Context)

// Scheduler runs the digest job on a cron schedule in the bot's timezone.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	job      JobFunc
	entryID  cron.EntryID
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewScheduler creates a scheduler for the given standard 5-field cron
// expression. The expression is validated up front.
func NewScheduler(schedule string, loc *time.Location, job JobFunc) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		job:      job,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start schedules the job and starts the cron loop.
func (s *Scheduler) Start() error {
	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.run()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule digest job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()

	entry := s.cron.Entry(entryID)
	log.Printf("[Digest] Scheduled %q - next run: %v", s.schedule, entry.Next)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Printf("[Digest] Scheduler stopped")
}

// RunNow executes the digest job immediately, outside the schedule.
func (s *Scheduler) RunNow() {
	go s.run()
}

// NextRun returns the next scheduled run time.
func (s *Scheduler) NextRun() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) run() {
	log.Printf("[Digest] Running digest job")
	start := time.Now()

	s.job(s.ctx)

	log.Printf("[Digest] Digest job completed in %v", time.Since(start))
}
