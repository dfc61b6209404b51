package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/face-verify/internal/quality"
	"gopkg.in/yaml.v3"
)

//go:embed quality.yaml
var qualityYAML []byte

type Config struct {
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Matching  MatchingConfig
	Quality   QualityConfig
	Voting    VotingConfig
	Storage   StorageConfig
	Web       WebConfig
	Log       LogConfig
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type EmbeddingConfig struct {
	URL     string        // defaults to http://localhost:8000
	Dim     int           // defaults to 512
	Timeout time.Duration // defaults to 30s
}

type MatchingConfig struct {
	Threshold          float64       // minimum similarity to accept (default 0.55)
	TopK               int           // candidates kept after ranking (default 5)
	ParallelMin        int           // snapshot size at which matching is sharded (default 4096)
	Shards             int           // worker count for sharded matching (default GOMAXPROCS)
	SnapshotTTL        time.Duration // how long an enrollment snapshot is reused (default 30s)
	LookalikeThreshold float64       // similarity at which a new enrollment warns about a look-alike (default 0.80)
}

type QualityConfig struct {
	Enabled     bool
	ProfilePath string // optional YAML file overriding the embedded profiles
	Profiles    quality.Profiles
}

type VotingConfig struct {
	Window     int           // decisions kept per session (default 5)
	MinVotes   int           // votes needed for a stable result (default 2)
	SessionTTL time.Duration // idle session lifetime (default 10m)
}

type StorageConfig struct {
	PhotosDir string // where enrollment photos are written (default ./data/photos)
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimitRPS   float64 // per client requests per second, 0 disables limiting
	RateLimitBurst int
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	File   string // optional rotating log file
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a non-negative float, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envBool reads a boolean such as "true", "0" or "FALSE", falling back to defaultVal.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envDuration reads a Go duration such as "30s", falling back to defaultVal.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Embedding: EmbeddingConfig{
			URL:     envString("EMBEDDING_URL", "http://localhost:8000"),
			Dim:     envInt("EMBEDDING_DIM", 512),
			Timeout: envDuration("EMBEDDING_TIMEOUT", 30*time.Second),
		},
		Matching: MatchingConfig{
			Threshold:          envFloat("MATCH_THRESHOLD", 0.55),
			TopK:               envInt("MATCH_TOP_K", 5),
			ParallelMin:        envInt("MATCH_PARALLEL_MIN", 4096),
			Shards:             envInt("MATCH_SHARDS", runtime.GOMAXPROCS(0)),
			SnapshotTTL:        envDuration("SNAPSHOT_TTL", 30*time.Second),
			LookalikeThreshold: envFloat("LOOKALIKE_THRESHOLD", 0.80),
		},
		Quality: QualityConfig{
			Enabled:     envBool("QC_ENABLED", true),
			ProfilePath: os.Getenv("QC_PROFILE_PATH"),
		},
		Voting: VotingConfig{
			Window:     envInt("VOTING_WINDOW", 5),
			MinVotes:   envInt("VOTING_MIN_VOTES", 2),
			SessionTTL: envDuration("VOTING_SESSION_TTL", 10*time.Minute),
		},
		Storage: StorageConfig{
			PhotosDir: envString("PHOTOS_DIR", "./data/photos"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRPS:   envFloat("RATE_LIMIT_RPS", 2),
			RateLimitBurst: envInt("RATE_LIMIT_BURST", 5),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
			File:   os.Getenv("LOG_FILE"),
		},
	}

	profiles, err := loadProfiles(cfg.Quality.ProfilePath)
	if err != nil {
		return nil, err
	}
	cfg.Quality.Profiles = profiles

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadProfiles parses the embedded quality profiles and applies an optional override file.
func loadProfiles(path string) (quality.Profiles, error) {
	var profiles quality.Profiles
	if err := yaml.Unmarshal(qualityYAML, &profiles); err != nil {
		// embedded file, only fails on a broken build
		panic("failed to unmarshal embedded quality.yaml: " + err.Error())
	}
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profiles, fmt.Errorf("reading quality profiles: %w", err)
	}
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return profiles, fmt.Errorf("parsing quality profiles %s: %w", path, err)
	}
	return profiles, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if t := c.Matching.Threshold; !(t >= 0 && t <= 1) {
		errs = append(errs, fmt.Errorf("MATCH_THRESHOLD must be within [0, 1], got %v", c.Matching.Threshold))
	}
	if t := c.Matching.LookalikeThreshold; !(t >= 0 && t <= 1) {
		errs = append(errs, fmt.Errorf("LOOKALIKE_THRESHOLD must be within [0, 1], got %v", c.Matching.LookalikeThreshold))
	}
	if c.Voting.MinVotes > c.Voting.Window {
		errs = append(errs, fmt.Errorf("VOTING_MIN_VOTES (%d) cannot exceed VOTING_WINDOW (%d)", c.Voting.MinVotes, c.Voting.Window))
	}
	for name, p := range map[string]quality.Profile{"strict": c.Quality.Profiles.Strict, "lenient": c.Quality.Profiles.Lenient} {
		if p.MinDetScore < 0 || p.MinDetScore > 1 {
			errs = append(errs, fmt.Errorf("quality profile %s: min_det_score must be within [0, 1]", name))
		}
		if p.MinFaceRatio < 0 || p.MaxYawPx < 0 || p.MinBlurVariance < 0 {
			errs = append(errs, fmt.Errorf("quality profile %s: thresholds must not be negative", name))
		}
	}
	return errors.Join(errs...)
}

// Addr returns the host:port the web server listens on.
func (c *WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
