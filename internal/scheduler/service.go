package scheduler

import (
	"context"
	"time"

	"agencydesk_backend/internal/settings"
	"agencydesk_backend/platform/config"
	"agencydesk_backend/platform/logger"
)

// SettingsSource provides the current automation configuration.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// jobSpec is one schedulable job: its enable toggle, its due decision and
// its body.
type jobSpec struct {
	name    string
	enabled func(settings.Settings) bool
	due     func(conf settings.Settings, now time.Time, lastPeriod string) (string, bool, error)
	run     func(ctx context.Context, conf settings.Settings, now time.Time) error
}

// Service drives the job loop. Each tick it reloads the settings, checks
// which jobs are due and runs them; a job's marker only advances when its
// run succeeds, so a failed job retries on the next tick of the same window.
type Service struct {
	settings SettingsSource
	markers  MarkerStore
	jobs     []jobSpec
	tick     time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// Job names used for markers and logs.
const (
	JobColdLeadDigest   = "cold_lead_digest"
	JobOverdueDigest    = "overdue_action_digest"
	JobProposalReminder = "proposal_reminders"
	JobEscalationSweep  = "escalation_sweep"
	JobWeeklyReport     = "weekly_report"
)

// NewService assembles the scheduler around the job bodies.
func NewService(cfg config.SchedulerConfig, settingsSource SettingsSource, markers MarkerStore, jobs *Jobs, log *logger.Logger) *Service {
	daily := func(conf settings.Settings, now time.Time, lastPeriod string) (string, bool, error) {
		return DailyDue(now, conf.DailyRunAt, lastPeriod)
	}
	weekly := func(conf settings.Settings, now time.Time, lastPeriod string) (string, bool, error) {
		return WeeklyDue(now, conf.WeeklyRunAt, conf.WeeklyRunDay, lastPeriod)
	}

	return &Service{
		settings: settingsSource,
		markers:  markers,
		tick:     cfg.GetSchedulerTick(),
		log:      log,
		now:      time.Now,
		jobs: []jobSpec{
			{
				name:    JobColdLeadDigest,
				enabled: func(c settings.Settings) bool { return c.ColdLeadAlertEnabled },
				due:     daily,
				run:     jobs.ColdLeadDigest,
			},
			{
				name:    JobOverdueDigest,
				enabled: func(c settings.Settings) bool { return c.OverdueActionAlertEnabled },
				due:     daily,
				run:     jobs.OverdueActionDigest,
			},
			{
				name:    JobProposalReminder,
				enabled: func(c settings.Settings) bool { return c.ProposalReminderEnabled },
				due:     daily,
				run:     jobs.ProposalReminders,
			},
			{
				name:    JobEscalationSweep,
				enabled: func(c settings.Settings) bool { return c.EscalationEnabled },
				due:     daily,
				run:     jobs.EscalationSweep,
			},
			{
				name:    JobWeeklyReport,
				enabled: func(c settings.Settings) bool { return c.WeeklyReportEnabled },
				due:     weekly,
				run:     jobs.WeeklyReport,
			},
		},
	}
}

// Run ticks until the context is canceled. The first pass happens after one
// tick, not immediately, so a crash-looping process does not hammer the jobs.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.log.Info("scheduler started", "tick", s.tick.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling pass. Exported so the composition root can force
// a pass and tests can drive the loop directly.
func (s *Service) Tick(ctx context.Context) {
	conf, err := s.settings.Get(ctx)
	if err != nil {
		s.log.Error("scheduler settings load failed", "error", err.Error())
		return
	}

	now := s.now()
	for _, job := range s.jobs {
		if !job.enabled(conf) {
			continue
		}
		s.runIfDue(ctx, job, conf, now)
	}
}

func (s *Service) runIfDue(ctx context.Context, job jobSpec, conf settings.Settings, now time.Time) {
	lastPeriod, err := s.markers.LastRun(ctx, job.name)
	if err != nil {
		s.log.Error("job marker read failed", "job", job.name, "error", err.Error())
		return
	}

	period, due, err := job.due(conf, now, lastPeriod)
	if err != nil {
		s.log.Error("job schedule misconfigured", "job", job.name, "error", err.Error())
		return
	}
	if !due {
		return
	}

	start := time.Now()
	runErr := job.run(ctx, conf, now)
	s.log.JobRun(job.name, period, float64(time.Since(start).Milliseconds()), runErr)
	if runErr != nil {
		return
	}

	if err := s.markers.MarkRun(ctx, job.name, period); err != nil {
		s.log.Error("job marker write failed", "job", job.name, "error", err.Error())
	}
}
