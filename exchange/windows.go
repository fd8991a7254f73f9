package exchange

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// WindowsConfig represents the session windows configuration.
type WindowsConfig struct {
	// Boundaries represents the parsed session boundaries.
	Boundaries *BoundaryTable
	// Season provides the cached winter time verdict.
	Season *SeasonCalculator
	// Now returns the current wall-clock time, defaults to time.Now.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *WindowsConfig) Validate() error {
	var errs error

	if cfg.Boundaries == nil {
		errs = errors.Join(errs, fmt.Errorf("boundary table cannot be nil"))
	}
	if cfg.Season == nil {
		errs = errors.Join(errs, fmt.Errorf("season calculator cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Windows evaluates session membership for timestamps.
type Windows struct {
	cfg *WindowsConfig
}

// NewWindows initializes new session windows.
func NewWindows(cfg *WindowsConfig) (*Windows, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating windows config: %w", err)
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Windows{cfg: cfg}, nil
}

// boundary returns the time of day of the provided boundary.
func (w *Windows) boundary(b Boundary) time.Duration {
	return w.cfg.Boundaries.Get(b)
}

// seasonal picks the winter or summer variant of a boundary.
func seasonal(winter bool, summer Boundary, standard Boundary) Boundary {
	if winter {
		return standard
	}
	return summer
}

// IsWinterTime checks whether the provided timestamp falls in winter time.
func (w *Windows) IsWinterTime(t time.Time) bool {
	return w.cfg.Season.IsWinterTime(t)
}

// IsExchangeOpen checks whether the general exchange window is open. The
// window wraps around midnight.
func (w *Windows) IsExchangeOpen(t time.Time) bool {
	tod := TimeOfDay(t)
	return tod >= w.boundary(GeneralOpen) || tod <= w.boundary(GeneralClose)
}

// IsPreMarketUsa checks whether the provided timestamp falls in the usa pre
// market session.
func (w *Windows) IsPreMarketUsa(t time.Time) bool {
	winter := w.cfg.Season.CurrentlyWinter(t)
	preMarket := w.boundary(seasonal(winter, PreMarket, PreMarketWinter))
	open := w.boundary(seasonal(winter, RegularOpen, RegularOpenWinter))

	tod := TimeOfDay(t)
	return tod >= preMarket && tod <= open
}

// IsUsaOpen checks whether the provided timestamp falls in the usa regular
// session.
func (w *Windows) IsUsaOpen(t time.Time) bool {
	winter := w.cfg.Season.CurrentlyWinter(t)
	open := w.boundary(seasonal(winter, RegularOpen, RegularOpenWinter))
	postMarket := w.boundary(seasonal(winter, PostMarket, PostMarketWinter))

	tod := TimeOfDay(t)
	return tod >= open && tod <= postMarket
}

// IsPostMarketUsa checks whether the provided timestamp falls in the usa post
// market session, which runs past midnight into the general close.
func (w *Windows) IsPostMarketUsa(t time.Time) bool {
	winter := w.cfg.Season.CurrentlyWinter(t)
	postMarket := w.boundary(seasonal(winter, PostMarket, PostMarketWinter))

	tod := TimeOfDay(t)
	return tod >= postMarket || tod <= w.boundary(GeneralClose)
}

// SessionAt classifies the provided timestamp.
func (w *Windows) SessionAt(t time.Time) Session {
	switch {
	case !w.IsExchangeOpen(t):
		return Closed
	case w.IsPreMarketUsa(t):
		return PreMarketSession
	case w.IsUsaOpen(t):
		return RegularSession
	case w.IsPostMarketUsa(t):
		return PostMarketSession
	default:
		return ExchangeOpenSession
	}
}

// NextOpen returns the next instant the general exchange window opens,
// relative to the current wall-clock time. Weekends are skipped, an open
// exchange returns the current time unchanged.
func (w *Windows) NextOpen() time.Time {
	now := w.cfg.Now()
	tod := TimeOfDay(now)
	open := w.boundary(GeneralOpen)

	var delay time.Duration
	weekday := now.Weekday()
	switch {
	case weekday == time.Saturday && tod > w.boundary(GeneralClose),
		weekday == time.Sunday,
		weekday == time.Monday && tod < open:
		var days int
		switch weekday {
		case time.Saturday:
			days = 2
		case time.Sunday:
			days = 1
		}

		y, m, d := now.Date()
		target := time.Date(y, m, d+days, 0, 0, 0, 0, now.Location()).Add(open)
		delay = target.Sub(now) + time.Second

	case !w.IsExchangeOpen(now):
		delay = open - tod
	}

	next := now.Add(delay)
	w.cfg.Logger.Debug().Msgf("next open at %s (delay %s)", next.Format(time.RFC3339), delay)

	return next
}
