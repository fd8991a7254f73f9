package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dnldd/nysetime/exchange"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// unknownSession marks a monitor that has not evaluated a session yet.
	unknownSession = -1
)

// SessionEvaluator defines the requirements for evaluating exchange sessions.
type SessionEvaluator interface {
	// SessionAt classifies the provided timestamp.
	SessionAt(t time.Time) exchange.Session
	// NextOpen returns the next instant the exchange opens.
	NextOpen() time.Time
	// IsWinterTime checks whether the provided timestamp falls in winter time.
	IsWinterTime(t time.Time) bool
}

// Transition represents a change of the current exchange session.
type Transition struct {
	ID       string
	From     exchange.Session
	To       exchange.Session
	At       time.Time
	Winter   bool
	NextOpen time.Time
}

// MonitorConfig represents the configuration for the session monitor.
type MonitorConfig struct {
	// Windows evaluates the exchange sessions.
	Windows SessionEvaluator
	// Interval is the period between session evaluations.
	Interval time.Duration
	// Location is the observer location used by the job scheduler.
	Location *time.Location
	// Now returns the current wall-clock time, defaults to time.Now.
	Now func() time.Time
	// Notify relays session transitions.
	Notify func(transition Transition)
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *MonitorConfig) Validate() error {
	var errs error

	if cfg.Windows == nil {
		errs = errors.Join(errs, fmt.Errorf("session evaluator cannot be nil"))
	}
	if cfg.Interval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("evaluation interval must be positive"))
	}
	if cfg.Location == nil {
		errs = errors.Join(errs, fmt.Errorf("location cannot be nil"))
	}
	if cfg.Notify == nil {
		errs = errors.Join(errs, fmt.Errorf("notify function cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Monitor periodically evaluates the current exchange session and relays
// session transitions.
type Monitor struct {
	cfg          *MonitorConfig
	session      *atomic.Int32
	jobScheduler *gocron.Scheduler
}

// NewMonitor initializes a new session monitor.
func NewMonitor(cfg *MonitorConfig) (*Monitor, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating monitor config: %w", err)
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Monitor{
		cfg:          cfg,
		session:      atomic.NewInt32(unknownSession),
		jobScheduler: gocron.NewScheduler(cfg.Location),
	}, nil
}

// CurrentSession returns the last evaluated session and whether one has
// been evaluated.
func (m *Monitor) CurrentSession() (exchange.Session, bool) {
	current := m.session.Load()
	if current == unknownSession {
		return exchange.Closed, false
	}

	return exchange.Session(current), true
}

// Evaluate classifies the provided time and relays a transition if the
// session changed since the last evaluation.
func (m *Monitor) Evaluate(now time.Time) bool {
	next := m.cfg.Windows.SessionAt(now)
	prev := m.session.Swap(int32(next))
	if prev == int32(next) {
		return false
	}

	transition := Transition{
		ID:       uuid.New().String(),
		From:     exchange.Session(prev),
		To:       next,
		At:       now,
		Winter:   m.cfg.Windows.IsWinterTime(now),
		NextOpen: m.cfg.Windows.NextOpen(),
	}

	m.cfg.Logger.Info().Str("id", transition.ID).Msgf("session changed from %s to %s, next open at %s",
		transition.From, transition.To, transition.NextOpen.Format(time.RFC3339))

	m.cfg.Notify(transition)

	return true
}

// evaluateJob is the scheduled session evaluation job.
func (m *Monitor) evaluateJob() {
	m.Evaluate(m.cfg.Now())
}

// Run manages the lifecycle processes of the session monitor.
func (m *Monitor) Run(ctx context.Context) error {
	_, err := m.jobScheduler.Every(m.cfg.Interval).Do(m.evaluateJob)
	if err != nil {
		return fmt.Errorf("scheduling session evaluation job: %w", err)
	}

	m.jobScheduler.StartAsync()
	m.cfg.Logger.Info().Msgf("monitoring exchange sessions every %s", m.cfg.Interval)

	<-ctx.Done()

	m.jobScheduler.Stop()
	return nil
}
