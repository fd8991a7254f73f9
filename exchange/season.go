package exchange

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FirstMondayOfNovember returns midnight (UTC) of the first monday in
// november of the provided year.
func FirstMondayOfNovember(year int) time.Time {
	first := time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Monday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset)
}

// SecondSundayOfMarch returns midnight (UTC) of the second sunday in march
// of the provided year.
func SecondSundayOfMarch(year int) time.Time {
	first := time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Sunday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7)
}

// IsWinterTime checks whether the usa exchange observes its standard time
// offset at the provided timestamp. Both anchors are exclusive.
func IsWinterTime(t time.Time) bool {
	year := t.Year()
	summerStart := time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
	summerEnd := time.Date(year, time.November, 1, 0, 0, 0, 0, time.UTC)
	if t.After(summerStart) && t.Before(summerEnd) {
		return false
	}

	// Months after march belong to the winter starting this november,
	// earlier months to the one that started last november.
	novemberYear, marchYear := year-1, year
	if t.Month() > time.March {
		novemberYear, marchYear = year, year+1
	}

	return t.After(FirstMondayOfNovember(novemberYear)) && t.Before(SecondSundayOfMarch(marchYear))
}

// SeasonConfig represents the season calculator configuration.
type SeasonConfig struct {
	// Now returns the current wall-clock time, defaults to time.Now.
	Now func() time.Time
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// SeasonCalculator caches the winter time verdict until the start of the
// next calendar day.
type SeasonCalculator struct {
	cfg    *SeasonConfig
	mtx    sync.Mutex
	winter bool
	expiry time.Time
}

// NewSeasonCalculator initializes a new season calculator.
func NewSeasonCalculator(cfg *SeasonConfig) *SeasonCalculator {
	if cfg == nil {
		cfg = &SeasonConfig{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}

	return &SeasonCalculator{cfg: cfg}
}

// IsWinterTime checks whether the provided timestamp falls in winter time.
// The result is never cached.
func (s *SeasonCalculator) IsWinterTime(t time.Time) bool {
	return IsWinterTime(t)
}

// CurrentlyWinter returns the cached winter time verdict.
//
// The verdict is keyed off the wall clock and not the provided timestamp:
// every query made before the cache expires receives the verdict computed
// for the moment of the last recomputation.
func (s *SeasonCalculator) CurrentlyWinter(_ time.Time) bool {
	now := s.cfg.Now()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if !s.expiry.IsZero() && s.expiry.After(now) {
		return s.winter
	}

	s.winter = IsWinterTime(now)
	y, m, d := now.Date()
	s.expiry = time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())

	s.cfg.Logger.Debug().Msgf("recomputed winter time verdict: %v, next check at %s",
		s.winter, s.expiry.Format(time.RFC3339))

	return s.winter
}

// Expiry returns the instant after which the cached verdict is recomputed.
// A zero time indicates nothing has been cached yet.
func (s *SeasonCalculator) Expiry() time.Time {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.expiry
}
