package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"playlist-digest/shared/config"
	"playlist-digest/shared/monitoring"

	"github.com/robfig/cron/v3"
)

const shutdownTimeout = 5 * time.Second

// Metrics defines the common interface for agent metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents lets an agent report outcomes that do not fail the run
// outright, such as skipped videos or a digest that could not be generated.
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent is a unit of work the scheduler can initialize once and run repeatedly.
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// parser accepts the six-field form used by the schedule setting.
var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule validates a schedule expression such as "0 0 9 * * 1".
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return schedule, nil
}

// Scheduler runs one agent on a cron schedule and records every outcome in a
// Monitor served over the health endpoint.
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	agent   Agent
	cron    *cron.Cron
}

func New(cfg *config.Config, agent Agent) *Scheduler {
	return &Scheduler{
		config:  cfg,
		monitor: monitoring.NewMonitor(),
		agent:   agent,
		// A slow run makes the next tick skip rather than overlap
		cron: cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

func (s *Scheduler) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Start initializes the agent, then blocks running it on schedule until ctx
// is cancelled. The health server, when enabled, lives as long as Start.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	schedule, err := ParseSchedule(s.config.Schedule)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cron.Schedule(schedule, cron.FuncJob(func() {
		s.runScheduled(ctx, schedule)
	}))

	if port := s.config.Monitoring.HealthPort; port >= 0 {
		health := monitoring.NewHealthServer(s.monitor, strconv.Itoa(port))
		if err := health.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := health.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Health server shutdown: %v", err)
			}
		}()
	}

	s.cron.Start()
	log.Printf("Scheduler started for %s with schedule %q, next run at %s",
		s.agent.Name(), s.config.Schedule, schedule.Next(time.Now()).Format(time.RFC1123))

	<-ctx.Done()
	log.Printf("Stopping scheduler for %s, waiting for any running job...", s.agent.Name())
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) runScheduled(ctx context.Context, schedule cron.Schedule) {
	if err := s.RunOnce(ctx); err != nil {
		log.Printf("Error running scheduled job for %s: %v", s.agent.Name(), err)
	}
	log.Printf("Next %s run at %s", s.agent.Name(), schedule.Next(time.Now()).Format(time.RFC1123))
}

// RunOnce runs the agent a single time. Events the agent emits go to the
// monitor; a returned error is recorded as a critical failure and returned.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	agentName := s.agent.Name()

	log.Printf("Starting %s run...", agentName)

	if err := s.agent.RunOnce(ctx, s.events()); err != nil {
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), time.Since(startTime))
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	log.Printf("%s run finished in %s", agentName, time.Since(startTime).Round(time.Millisecond))
	return nil
}

func (s *Scheduler) events() *AgentEvents {
	agentName := s.agent.Name()
	return &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}
}
