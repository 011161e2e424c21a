// Package autopilot runs the per-tenant automation state machine deciding
// when unattended blog generation fires, and orchestrates the
// generate-publish-record-reschedule sequence.
//
// Scheduling is request-triggered: external callers poll CheckAutomation and
// invoke GenerateAutomatedBlog; nothing here blocks waiting for a target
// instant. Mutual exclusion per tenant is a conditional status claim at the
// storage layer, surfaced as ErrGenerationInFlight when lost.
package autopilot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veltaire/plume/keywords"
	"github.com/veltaire/plume/observability"
	"github.com/veltaire/plume/publish"
	"github.com/veltaire/plume/textgen"
	"github.com/veltaire/plume/topic"
)

// Defaults are the deployment-level schedule parameters applied when a
// tenant enables automation without overrides.
type Defaults struct {
	// Timezone is the IANA reference civil timezone. Default: Asia/Jerusalem.
	Timezone string
	// TargetDay defaults to Sunday.
	TargetDay time.Weekday
	// TargetHour defaults to 10 (local to Timezone).
	TargetHour int
	// Frequency defaults to weekly.
	Frequency Frequency
}

func (d *Defaults) defaults() {
	if d.Timezone == "" {
		d.Timezone = "Asia/Jerusalem"
	}
	if d.TargetHour == 0 {
		d.TargetHour = 10
	}
	if d.Frequency == "" {
		d.Frequency = FrequencyWeekly
	}
	// TargetDay zero value is Sunday, which is also the default.
}

// Config configures the Service.
type Config struct {
	Defaults Defaults
	// StoreURL is passed to the text generator for link-backs.
	StoreURL string
	// MinKeywords gates on-demand generation hints; automation only requires
	// a non-empty corpus. Default: 1.
	MinKeywords int
}

func (c *Config) defaults() {
	c.Defaults.defaults()
	if c.MinKeywords <= 0 {
		c.MinKeywords = 1
	}
}

// Service is the automation orchestrator.
type Service struct {
	schedules ScheduleStore
	posts     PostStore
	keywords  *keywords.Aggregator
	topics    *topic.Generator
	gen       textgen.Generator
	publisher publish.Publisher
	events    *observability.EventLogger
	config    Config
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEventLogger wires the operator event trail.
func WithEventLogger(l *observability.EventLogger) Option {
	return func(s *Service) { s.events = l }
}

// WithClock overrides the time source. Test use.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the automation Service.
func New(schedules ScheduleStore, posts PostStore, kw *keywords.Aggregator,
	topics *topic.Generator, gen textgen.Generator, publisher publish.Publisher,
	cfg Config, logger *slog.Logger, opts ...Option) *Service {

	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		schedules: schedules,
		posts:     posts,
		keywords:  kw,
		topics:    topics,
		gen:       gen,
		publisher: publisher,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnableParams override the deployment defaults when enabling automation.
// Nil fields keep the default (or the tenant's existing setting).
type EnableParams struct {
	Frequency  Frequency
	Timezone   string
	TargetDay  *time.Weekday
	TargetHour *int
}

// EnableAutomation creates or re-arms the tenant's schedule. Re-enabling
// from completed or error resets the row to idle with the new parameters.
// Enabling mid-generation is rejected.
func (s *Service) EnableAutomation(ctx context.Context, tenant string, params EnableParams) (*Schedule, error) {
	existing, err := s.schedules.GetSchedule(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("autopilot: load schedule: %w", err)
	}
	if existing != nil && existing.Status == StatusGenerating {
		return nil, ErrGenerationInFlight
	}

	now := s.now()
	sched := existing
	if sched == nil {
		sched = &Schedule{
			Tenant:     tenant,
			Frequency:  s.config.Defaults.Frequency,
			Timezone:   s.config.Defaults.Timezone,
			TargetDay:  s.config.Defaults.TargetDay,
			TargetHour: s.config.Defaults.TargetHour,
			CreatedAt:  now,
		}
	}
	if params.Frequency != "" {
		sched.Frequency = params.Frequency
	}
	if params.Timezone != "" {
		sched.Timezone = params.Timezone
	}
	if params.TargetDay != nil {
		sched.TargetDay = *params.TargetDay
	}
	if params.TargetHour != nil {
		sched.TargetHour = *params.TargetHour
	}
	if err := validateSchedule(sched); err != nil {
		return nil, err
	}

	sched.Enabled = true
	sched.Status = StatusIdle
	sched.LastError = ""
	sched.UpdatedAt = now
	next, err := NextTarget(now, sched)
	if err != nil {
		return nil, err
	}
	sched.NextTargetAt = &next

	if err := s.schedules.UpsertSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("autopilot: save schedule: %w", err)
	}
	s.logger.Info("autopilot: automation enabled",
		"tenant", tenant, "day", sched.TargetDay.String(), "hour", sched.TargetHour,
		"tz", sched.Timezone, "frequency", sched.Frequency)
	s.events.LogEvent(ctx, observability.Event{
		EventType: "automation", Tenant: tenant, EntityType: "schedule",
		Action: "enable", Success: true,
	})
	return sched, nil
}

// DisableAutomation clears the enabled flag. The row is retained so history
// and parameters survive a re-enable.
func (s *Service) DisableAutomation(ctx context.Context, tenant string) (*Schedule, error) {
	sched, err := s.schedules.GetSchedule(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("autopilot: load schedule: %w", err)
	}
	if sched == nil {
		return nil, ErrNoSchedule
	}

	sched.Enabled = false
	sched.Status = StatusIdle
	sched.NextTargetAt = nil
	sched.UpdatedAt = s.now()
	if err := s.schedules.UpdateSchedule(ctx, sched); err != nil {
		return nil, fmt.Errorf("autopilot: save schedule: %w", err)
	}
	s.logger.Info("autopilot: automation disabled", "tenant", tenant)
	s.events.LogEvent(ctx, observability.Event{
		EventType: "automation", Tenant: tenant, EntityType: "schedule",
		Action: "disable", Success: true,
	})
	return sched, nil
}

// GetSchedule returns the tenant's schedule row, or ErrNoSchedule.
func (s *Service) GetSchedule(ctx context.Context, tenant string) (*Schedule, error) {
	sched, err := s.schedules.GetSchedule(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("autopilot: load schedule: %w", err)
	}
	if sched == nil {
		return nil, ErrNoSchedule
	}
	return sched, nil
}

func validateSchedule(sched *Schedule) error {
	if !sched.Frequency.Valid() {
		return fmt.Errorf("%w: frequency %q", ErrInvalidParams, sched.Frequency)
	}
	if sched.TargetHour < 0 || sched.TargetHour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidParams, sched.TargetHour)
	}
	if sched.TargetDay < time.Sunday || sched.TargetDay > time.Saturday {
		return fmt.Errorf("%w: day %d", ErrInvalidParams, sched.TargetDay)
	}
	if _, err := time.LoadLocation(sched.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q", ErrInvalidParams, sched.Timezone)
	}
	return nil
}
