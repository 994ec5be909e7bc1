package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"Buffetology/internal/model"
	"Buffetology/internal/notifier"
	"Buffetology/internal/recorder"
	"Buffetology/internal/screener"
)

// DefaultScreenCron runs a screening pass at 07:00 on weekdays.
const DefaultScreenCron = "0 0 7 * * 1-5"

// ErrRunInProgress is returned when a screening pass is requested while another is running.
var ErrRunInProgress = errors.New("screening run already in progress")

// Notifier delivers reports.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Universe selects the tickers of each run.
type Universe struct {
	Custom []string
	TopN   int
}

// Scheduler runs periodic screening passes and answers bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Screener  *screener.Screener
	Notifier  Notifier
	Recorder  recorder.Recorder
	Universe  Universe
	ReportTop int
	Ctx       context.Context

	log     zerolog.Logger
	running sync.Mutex
}

// NewScheduler creates a new Scheduler. A nil notifier disables delivery.
func NewScheduler(ctx context.Context, sc *screener.Screener, n Notifier, rec recorder.Recorder, u Universe, reportTop int, log zerolog.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Screener:  sc,
		Notifier:  n,
		Recorder:  rec,
		Universe:  u,
		ReportTop: reportTop,
		Ctx:       ctx,
		log:       log.With().Str("component", "scheduler").Logger(),
	}
}

// Register schedules the screening task. An empty expression selects DefaultScreenCron.
func (s *Scheduler) Register(screenCron string) error {
	if screenCron == "" {
		screenCron = DefaultScreenCron
	}
	if _, err := s.Cron.AddFunc(screenCron, s.screenTask); err != nil {
		return fmt.Errorf("register screen task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) screenTask() {
	if _, err := s.RunNow(s.Ctx, model.TriggerScheduled); err != nil {
		s.log.Error().Err(err).Msg("scheduled screen failed")
	}
}

// RunNow executes one screening pass: resolve universe, analyze, record, notify.
func (s *Scheduler) RunNow(ctx context.Context, trigger model.TriggerType) (*recorder.Run, error) {
	if !s.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.running.Unlock()

	run := recorder.NewRun(trigger, s.Screener.Provider())
	s.log.Info().Str("run_id", run.ID).Str("trigger", string(trigger)).Msg("screening run started")

	tickers := s.Screener.ResolveUniverse(ctx, s.Universe.Custom, s.Universe.TopN)
	run.Finish(s.Screener.AnalyzeTickers(ctx, tickers))

	if err := s.Recorder.RecordRun(run); err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("record run")
	}
	s.trySend(ctx, notifier.FormatRankedReport(run, s.ReportTop))

	s.log.Info().
		Str("run_id", run.ID).
		Int("tickers", len(run.Results)).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("screening run finished")
	return run, nil
}

// HandleCommand processes a bot command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	var cmd string
	if fields := strings.Fields(command); len(fields) > 0 {
		cmd = strings.ToLower(fields[0])
	}
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i] // "/screen@BuffetologyBot"
	}
	switch cmd {
	case "/screen":
		if _, err := s.RunNow(ctx, model.TriggerManual); err != nil {
			return fmt.Sprintf("❌ screening failed: %v", err)
		}
		// The report was already delivered by RunNow.
		return ""
	case "/last":
		run, err := s.Recorder.LatestRun()
		if errors.Is(err, recorder.ErrNoRuns) {
			return "No screening runs recorded yet."
		}
		if err != nil {
			return fmt.Sprintf("❌ load latest run: %v", err)
		}
		return notifier.FormatRankedReport(run, s.ReportTop)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification")
	}
}
