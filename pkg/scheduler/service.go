package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Refresher rebuilds the served model when its source changed. It reports
// whether a new model was swapped in.
type Refresher interface {
	Refresh(ctx context.Context) (bool, error)
}

// Status describes the refresh job
type Status struct {
	Schedule  string     `json:"schedule"`
	Enabled   bool       `json:"enabled"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Runs      int        `json:"runs"`
	Rebuilds  int        `json:"rebuilds"`
}

// Service runs the refresh job on a cron schedule. An empty schedule
// disables periodic runs; RunNow still works.
type Service struct {
	refresher Refresher
	schedule  string
	timeout   time.Duration
	cron      *cron.Cron
	entryID   cron.EntryID

	run    sync.Mutex // one refresh at a time
	mu     sync.Mutex
	status Status
}

// NewService creates a new scheduler service
func NewService(refresher Refresher, schedule string, timeout time.Duration) (*Service, error) {
	s := &Service{
		refresher: refresher,
		schedule:  schedule,
		timeout:   timeout,
		cron:      cron.New(cron.WithLogger(cronLogger{})),
		status:    Status{Schedule: schedule, Enabled: schedule != ""},
	}
	if schedule == "" {
		return s, nil
	}

	parsed, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	s.entryID = s.cron.Schedule(parsed, cron.NewChain(cron.SkipIfStillRunning(cronLogger{})).Then(cron.FuncJob(s.execute)))
	return s, nil
}

// Start starts the scheduler
func (s *Service) Start() {
	if !s.status.Enabled {
		log.Info().Msg("Model refresh schedule not set, periodic refresh disabled")
		return
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("Model refresh scheduler started")
}

// Stop stops the scheduler and waits for a running refresh to finish
func (s *Service) Stop() {
	if !s.status.Enabled {
		return
	}
	<-s.cron.Stop().Done()
	log.Info().Msg("Model refresh scheduler stopped")
}

// RunNow refreshes immediately and records the outcome
func (s *Service) RunNow(ctx context.Context) (bool, error) {
	s.run.Lock()
	defer s.run.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now().UTC()
	rebuilt, err := s.refresher.Refresh(ctx)

	s.mu.Lock()
	s.status.LastRun = &started
	s.status.Runs++
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	if rebuilt {
		s.status.Rebuilds++
	}
	s.mu.Unlock()

	return rebuilt, err
}

// Status returns a snapshot of the job state
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.status
	if st.Enabled {
		if entry := s.cron.Entry(s.entryID); !entry.Next.IsZero() {
			next := entry.Next
			st.NextRun = &next
		}
	}
	return st
}

func (s *Service) execute() {
	log.Debug().Msg("Executing scheduled model refresh")
	rebuilt, err := s.RunNow(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("Scheduled model refresh failed, keeping current model")
		return
	}
	log.Info().Bool("rebuilt", rebuilt).Msg("Scheduled model refresh completed")
}

// cronLogger routes cron's own messages to zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
