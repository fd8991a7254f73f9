package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/dnldd/nysetime/exchange"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// boundariesSection is the json object holding boundaries in a settings file.
	boundariesSection = "ExchangeTimeOptions"
	// defaultLogLevel is the default application log level.
	defaultLogLevel = "info"
	// defaultInterval is the default monitor evaluation interval in seconds.
	defaultInterval = 60
	// localLocation selects the system timezone as the observer location.
	localLocation = "Local"
)

// Config is the configuration struct for the service.
type Config struct {
	// Open is the general exchange open.
	Open string
	// PreMarketUsa is the usa pre market open in summer time.
	PreMarketUsa string
	// PreMarketUsaWinter is the usa pre market open in winter time.
	PreMarketUsaWinter string
	// OpenUsa is the usa regular session open in summer time.
	OpenUsa string
	// OpenUsaWinter is the usa regular session open in winter time.
	OpenUsaWinter string
	// PostMarketUsa is the usa post market open in summer time.
	PostMarketUsa string
	// PostMarketUsaWinter is the usa post market open in winter time.
	PostMarketUsaWinter string
	// Close is the general exchange close.
	Close string
	// BoundariesFile is the filepath to a json settings file with boundaries.
	BoundariesFile string
	// Location is the observer timezone.
	Location string
	// LogLevel is the application log level.
	LogLevel string
	// Watch is the session monitor flag.
	Watch bool
	// Interval is the session monitor evaluation interval in seconds.
	Interval int

	registeredFlags map[string]bool
}

// Options returns the boundary options of the config.
func (cfg *Config) Options() *exchange.Options {
	return &exchange.Options{
		Open:                cfg.Open,
		PreMarketUsa:        cfg.PreMarketUsa,
		PreMarketUsaWinter:  cfg.PreMarketUsaWinter,
		OpenUsa:             cfg.OpenUsa,
		OpenUsaWinter:       cfg.OpenUsaWinter,
		PostMarketUsa:       cfg.PostMarketUsa,
		PostMarketUsaWinter: cfg.PostMarketUsaWinter,
		Close:               cfg.Close,
	}
}

// boundaryFields returns the boundary config fields keyed by their settings
// file name.
func (cfg *Config) boundaryFields() []struct {
	key   string
	value *string
} {
	return []struct {
		key   string
		value *string
	}{
		{"Open", &cfg.Open},
		{"PreMarketUsa", &cfg.PreMarketUsa},
		{"PreMarketUsaWinter", &cfg.PreMarketUsaWinter},
		{"OpenUsa", &cfg.OpenUsa},
		{"OpenUsaWinter", &cfg.OpenUsaWinter},
		{"PostMarketUsa", &cfg.PostMarketUsa},
		{"PostMarketUsaWinter", &cfg.PostMarketUsaWinter},
		{"Close", &cfg.Close},
	}
}

// LoadLocation resolves the observer timezone.
func (cfg *Config) LoadLocation() (*time.Location, error) {
	if cfg.Location == "" || cfg.Location == localLocation {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("loading %s timezone: %w", cfg.Location, err)
	}

	return loc, nil
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	for _, field := range cfg.boundaryFields() {
		if *field.value == "" {
			continue
		}
		_, err := exchange.ParseTimeOfDay(*field.value)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("invalid %s boundary %q: %w", strings.ToLower(field.key), *field.value, err))
		}
	}

	_, err := cfg.LoadLocation()
	if err != nil {
		errs = errors.Join(errs, err)
	}

	_, err = zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		errs = errors.Join(errs, fmt.Errorf("invalid log level: %w", err))
	}

	if cfg.Watch && cfg.Interval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("monitor interval must be positive"))
	}

	return errs
}

// applyDefaults sets unset fields to their defaults.
func (cfg *Config) applyDefaults() {
	if cfg.Location == "" {
		cfg.Location = localLocation
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.Interval == 0 {
		cfg.Interval = defaultInterval
	}
}

// loadBoundariesFile fills unset boundaries from the provided json settings file.
func (cfg *Config) loadBoundariesFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading boundaries file: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return fmt.Errorf("boundaries file %s is not valid json", path)
	}

	section := gjson.GetBytes(data, boundariesSection)
	if !section.Exists() {
		return fmt.Errorf("boundaries file %s has no %s section", path, boundariesSection)
	}

	for _, field := range cfg.boundaryFields() {
		if *field.value != "" {
			continue
		}

		value := section.Get(field.key)
		if value.Exists() {
			*field.value = value.String()
		}
	}

	return nil
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables, command line flags
// and an optional boundaries file.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"open", &cfg.Open, "the general exchange open (HH:MM:SS)"},
		{"premarketusa", &cfg.PreMarketUsa, "the usa pre market open in summer time"},
		{"premarketusawinter", &cfg.PreMarketUsaWinter, "the usa pre market open in winter time"},
		{"openusa", &cfg.OpenUsa, "the usa regular session open in summer time"},
		{"openusawinter", &cfg.OpenUsaWinter, "the usa regular session open in winter time"},
		{"postmarketusa", &cfg.PostMarketUsa, "the usa post market open in summer time"},
		{"postmarketusawinter", &cfg.PostMarketUsaWinter, "the usa post market open in winter time"},
		{"close", &cfg.Close, "the general exchange close (HH:MM:SS)"},
		{"boundariesfile", &cfg.BoundariesFile, "the json settings file with session boundaries"},
		{"location", &cfg.Location, "the observer timezone"},
		{"loglevel", &cfg.LogLevel, "the log level"},
		{"watch", &cfg.Watch, "the session monitor flag"},
		{"interval", &cfg.Interval, "the session monitor interval in seconds"},
	}
	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	if cfg.BoundariesFile != "" {
		err = cfg.loadBoundariesFile(cfg.BoundariesFile)
		if err != nil {
			return err
		}
	}

	cfg.applyDefaults()

	return cfg.Validate()
}
