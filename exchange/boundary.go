package exchange

import (
	"fmt"
	"time"
)

const (
	// TimeOfDayLayout is the format layout for parsing session boundaries.
	TimeOfDayLayout = "15:04:05"
	// shortTimeOfDayLayout is accepted for boundaries without seconds.
	shortTimeOfDayLayout = "15:04"

	// Documented boundary defaults, in observer local time.
	DefaultOpen                = "07:00:00"
	DefaultPreMarketUsa        = "14:00:00"
	DefaultPreMarketUsaWinter  = "15:00:00"
	DefaultOpenUsa             = "16:30:00"
	DefaultOpenUsaWinter       = "17:30:00"
	DefaultPostMarketUsa       = "23:00:00"
	DefaultPostMarketUsaWinter = "00:00:00"
	DefaultClose               = "01:45:00"
)

// Boundary represents a named session boundary.
type Boundary int

const (
	GeneralOpen Boundary = iota
	PreMarket
	PreMarketWinter
	RegularOpen
	RegularOpenWinter
	PostMarket
	PostMarketWinter
	GeneralClose

	boundaryCount
)

// String stringifies the provided boundary.
func (b Boundary) String() string {
	switch b {
	case GeneralOpen:
		return "open"
	case PreMarket:
		return "pre market usa"
	case PreMarketWinter:
		return "pre market usa winter"
	case RegularOpen:
		return "open usa"
	case RegularOpenWinter:
		return "open usa winter"
	case PostMarket:
		return "post market usa"
	case PostMarketWinter:
		return "post market usa winter"
	case GeneralClose:
		return "close"
	default:
		return "unknown"
	}
}

// Options represents the raw boundary configuration. Empty fields fall back
// to their documented defaults.
type Options struct {
	Open                string
	PreMarketUsa        string
	PreMarketUsaWinter  string
	OpenUsa             string
	OpenUsaWinter       string
	PostMarketUsa       string
	PostMarketUsaWinter string
	Close               string
}

// DefaultOptions returns the documented boundary defaults.
func DefaultOptions() *Options {
	return &Options{
		Open:                DefaultOpen,
		PreMarketUsa:        DefaultPreMarketUsa,
		PreMarketUsaWinter:  DefaultPreMarketUsaWinter,
		OpenUsa:             DefaultOpenUsa,
		OpenUsaWinter:       DefaultOpenUsaWinter,
		PostMarketUsa:       DefaultPostMarketUsa,
		PostMarketUsaWinter: DefaultPostMarketUsaWinter,
		Close:               DefaultClose,
	}
}

// values returns the option strings indexed by boundary.
func (o *Options) values() [boundaryCount]string {
	defaults := DefaultOptions()
	pick := func(value string, def string) string {
		if value == "" {
			return def
		}
		return value
	}

	return [boundaryCount]string{
		GeneralOpen:       pick(o.Open, defaults.Open),
		PreMarket:         pick(o.PreMarketUsa, defaults.PreMarketUsa),
		PreMarketWinter:   pick(o.PreMarketUsaWinter, defaults.PreMarketUsaWinter),
		RegularOpen:       pick(o.OpenUsa, defaults.OpenUsa),
		RegularOpenWinter: pick(o.OpenUsaWinter, defaults.OpenUsaWinter),
		PostMarket:        pick(o.PostMarketUsa, defaults.PostMarketUsa),
		PostMarketWinter:  pick(o.PostMarketUsaWinter, defaults.PostMarketUsaWinter),
		GeneralClose:      pick(o.Close, defaults.Close),
	}
}

// ParseTimeOfDay parses the provided time of day into the duration elapsed
// since midnight.
func ParseTimeOfDay(value string) (time.Duration, error) {
	parsed, err := time.Parse(TimeOfDayLayout, value)
	if err != nil {
		var shortErr error
		parsed, shortErr = time.Parse(shortTimeOfDayLayout, value)
		if shortErr != nil {
			return 0, err
		}
	}

	return time.Duration(parsed.Hour())*time.Hour +
		time.Duration(parsed.Minute())*time.Minute +
		time.Duration(parsed.Second())*time.Second, nil
}

// TimeOfDay returns the time elapsed since midnight for the provided
// timestamp, relative to its own location.
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

// BoundaryTable maps every session boundary to its time of day. It is
// immutable once built.
type BoundaryTable struct {
	times [boundaryCount]time.Duration
}

// NewBoundaryTable parses the provided options into a boundary table. Nil
// options yield the documented defaults.
func NewBoundaryTable(opts *Options) (*BoundaryTable, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	table := &BoundaryTable{}
	values := opts.values()
	for idx := range values {
		b := Boundary(idx)
		tod, err := ParseTimeOfDay(values[idx])
		if err != nil {
			return nil, fmt.Errorf("parsing %s boundary: %w", b, err)
		}

		table.times[b] = tod
	}

	return table, nil
}

// Get returns the time of day for the provided boundary.
func (t *BoundaryTable) Get(b Boundary) time.Duration {
	if b < 0 || b >= boundaryCount {
		return 0
	}

	return t.times[b]
}
