package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/mr1hm/go-aurora-alerts/internal/models"
	"github.com/mr1hm/go-aurora-alerts/internal/pushover"
)

const (
	DefaultFeedURL = "https://aurorawatch-api.lancs.ac.uk/0.2.5/status/all-site-status.xml"
	DefaultReferer = "https://github.com/mr1hm/go-aurora-alerts"

	// AuroraWatch UK ask clients to leave at least three minutes between requests.
	MinCheckInterval = 3 * time.Minute
	MaxTTL           = pushover.MaxTTL * time.Second
)

type Config struct {
	Pushover PushoverConfig
	Alert    AlertConfig
	Feed     FeedConfig
	Server   ServerConfig
	Logging  LoggingConfig

	ShowVersion bool
}

type PushoverConfig struct {
	Token   string
	UserKey string
	URL     string
}

type AlertConfig struct {
	Threshold          models.Level
	Interval           time.Duration
	TTL                time.Duration
	ReducedSensitivity bool
}

type FeedConfig struct {
	URL           string
	Referer       string
	CheckInterval time.Duration
	Jitter        time.Duration // random extra delay, up to this much, before each poll
}

type ServerConfig struct {
	Enabled   bool
	Host      string
	Port      int
	RateLimit int // requests per second across all clients, 0 disables
}

type LoggingConfig struct {
	Level string
}

// Load builds the configuration from the environment, applies command-line
// overrides from args (without the program name) and validates the result.
// When -version is given validation is skipped.
func Load(args []string) (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromEnv() (*Config, error) {
	threshold, errThreshold := getEnvInt("ALERT_THRESHOLD", int(models.LevelYellow))
	interval, errInterval := getEnvDuration("ALERT_INTERVAL", time.Hour)
	ttl, errTTL := getEnvDuration("ALERT_TTL", 4*time.Hour)
	reduced, errReduced := getEnvBool("REDUCED_SENSITIVITY", false)
	checkInterval, errCheck := getEnvDuration("CHECK_INTERVAL", 5*time.Minute)
	jitter, errJitter := getEnvDuration("CHECK_JITTER", 0)
	serverEnabled, errServer := getEnvBool("SERVER_ENABLED", false)
	port, errPort := getEnvInt("SERVER_PORT", 8080)
	rateLimit, errRate := getEnvInt("SERVER_RATE_LIMIT", 5)

	if err := errors.Join(errThreshold, errInterval, errTTL, errReduced, errCheck, errJitter, errServer, errPort, errRate); err != nil {
		return nil, err
	}

	return &Config{
		Pushover: PushoverConfig{
			Token:   os.Getenv("PUSHOVER_APP_TOKEN"),
			UserKey: os.Getenv("PUSHOVER_USER_KEY"),
			URL:     getEnv("PUSHOVER_URL", pushover.DefaultURL),
		},
		Alert: AlertConfig{
			Threshold:          models.Level(threshold),
			Interval:           interval,
			TTL:                ttl,
			ReducedSensitivity: reduced,
		},
		Feed: FeedConfig{
			URL:           getEnv("AWUK_URL", DefaultFeedURL),
			Referer:       getEnv("AWUK_REFERER", DefaultReferer),
			CheckInterval: checkInterval,
			Jitter:        jitter,
		},
		Server: ServerConfig{
			Enabled:   serverEnabled,
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      port,
			RateLimit: rateLimit,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("aurora-alert", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	threshold := int(c.Alert.Threshold)
	fs.IntVar(&threshold, "threshold", threshold, "alert threshold: 1=yellow, 2=amber, 3=red")
	fs.Var((*seconds)(&c.Alert.Interval), "alert-interval", "minimum time between alerts at the same level (e.g. 1h or 3600)")
	fs.Var((*seconds)(&c.Feed.CheckInterval), "check-interval", "time between feed checks, at least 3m")
	fs.Var((*seconds)(&c.Feed.Jitter), "jitter", "random extra delay of up to this much before each check")
	fs.Var((*seconds)(&c.Alert.TTL), "ttl", "notification lifetime on the device")
	fs.BoolVar(&c.Alert.ReducedSensitivity, "reduced-sensitivity", c.Alert.ReducedSensitivity, "consider every site instead of only the alerting site")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.BoolVar(&c.ShowVersion, "version", false, "print version and exit")

	// flag stops at the first positional argument, so keep parsing after it
	// to allow "aurora-alert 3 -debug".
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("invalid arguments: %w", err)
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	// The threshold may also be given positionally.
	switch len(positional) {
	case 0:
	case 1:
		n, err := strconv.Atoi(positional[0])
		if err != nil {
			return fmt.Errorf("threshold must be an integer: %q", positional[0])
		}
		threshold = n
	default:
		return fmt.Errorf("unexpected arguments: %v", positional[1:])
	}

	c.Alert.Threshold = models.Level(threshold)
	if *debug {
		c.Logging.Level = "debug"
	}
	return nil
}

func (c *Config) validate() error {
	if err := pushover.CheckCredential("token", c.Pushover.Token); err != nil {
		return fmt.Errorf("PUSHOVER_APP_TOKEN: %w", err)
	}
	if err := pushover.CheckCredential("user", c.Pushover.UserKey); err != nil {
		return fmt.Errorf("PUSHOVER_USER_KEY: %w", err)
	}

	if c.Alert.Threshold < models.LevelYellow || c.Alert.Threshold > models.LevelRed {
		return fmt.Errorf("threshold must be between 1 and 3, got %d", c.Alert.Threshold)
	}
	if c.Alert.Interval <= 0 {
		return fmt.Errorf("alert interval must be > 0")
	}
	if c.Alert.TTL < time.Second || c.Alert.TTL > MaxTTL {
		return fmt.Errorf("ttl must be between 1s and %s, got %s", MaxTTL, c.Alert.TTL)
	}
	if c.Alert.TTL%time.Second != 0 {
		return fmt.Errorf("ttl must be a whole number of seconds, got %s", c.Alert.TTL)
	}

	if c.Feed.CheckInterval < MinCheckInterval {
		return fmt.Errorf("check interval must be at least %s", MinCheckInterval)
	}
	if c.Feed.Jitter < 0 {
		return fmt.Errorf("jitter must not be negative")
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed url is required")
	}

	if c.Server.Enabled && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server rate limit must not be negative: %d", c.Server.RateLimit)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %q", key, val)
	}
	return i, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %q", key, val)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := parseSeconds(val)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// parseSeconds accepts a Go duration ("90m") or a bare number of seconds.
func parseSeconds(s string) (time.Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 || n > math.MaxInt64/int64(time.Second) {
			return 0, fmt.Errorf("duration %q out of range", s)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// seconds is a flag.Value over time.Duration that also accepts plain seconds.
type seconds time.Duration

func (s *seconds) String() string {
	return time.Duration(*s).String()
}

func (s *seconds) Set(v string) error {
	d, err := parseSeconds(v)
	if err != nil {
		return err
	}
	*s = seconds(d)
	return nil
}
