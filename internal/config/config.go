// Package config loads service configuration from an optional TOML file
// and environment variables. Environment variables always win.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	Calendar      CalendarConfig
	Host          HostConfig
	Recording     RecordingConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the process.
type ServiceConfig struct {
	Name string `toml:"name"`
}

// CalendarConfig controls meeting discovery.
type CalendarConfig struct {
	Provider        string        `toml:"provider"` // "google" or "none"
	CredentialsFile string        `toml:"credentials_file"`
	TokenFile       string        `toml:"token_file"`
	CalendarID      string        `toml:"calendar_id"`
	PollInterval    time.Duration `toml:"poll_interval"`
	WindowMinutes   int           `toml:"window_minutes"`
}

// HostConfig controls the meeting host adapter.
type HostConfig struct {
	Adapter     string        `toml:"adapter"`      // "chrome" or "mock"
	DevToolsURL string        `toml:"devtools_url"` // e.g. http://127.0.0.1:9222
	LinkPattern string        `toml:"link_pattern"` // substring a valid join link must contain
	JoinTimeout time.Duration `toml:"join_timeout"`
}

// RecordingConfig controls the capture pipeline.
type RecordingConfig struct {
	Dir              string        `toml:"dir"`
	JoinLead         time.Duration `toml:"join_lead"`         // join this long before scheduled start
	MaxDuration      time.Duration `toml:"max_duration"`      // hard session cap
	WatchdogInterval time.Duration `toml:"watchdog_interval"` // end-of-meeting / timeout poll
	WorkerJoinWait   time.Duration `toml:"worker_join_wait"`  // bounded wait per worker on stop
	FrameInterval    time.Duration `toml:"frame_interval"`    // screen sampling period (50ms = 20 fps)
	CaptionInterval  time.Duration `toml:"caption_interval"`  // caption poll period
	AudioSampleRate  int           `toml:"audio_sample_rate"`
	AudioChannels    int           `toml:"audio_channels"`
	AudioChunkFrames int           `toml:"audio_chunk_frames"`
	SessionDBPath    string        `toml:"session_db"`
}

// KafkaConfig controls event publishing. Disabled by default; the
// publisher falls back to log-only mode.
type KafkaConfig struct {
	Enabled        bool     `toml:"enabled"`
	Brokers        []string `toml:"brokers"`
	TopicLifecycle string   `toml:"topic_lifecycle"`
	TopicCaptions  string   `toml:"topic_captions"`
	Principal      string   `toml:"principal"`
}

// ObservabilityConfig controls logging and the metrics HTTP server.
type ObservabilityConfig struct {
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
	HTTPAddr string `toml:"http_addr"`
}

// Load builds the configuration from defaults, then the TOML file (if one
// exists), then environment overrides.
func Load() *Configuration {
	cfg := defaults()
	if path := configFilePath(); path != "" {
		// A malformed file falls through to defaults + env; the caller
		// logs the effective configuration at startup.
		_, _ = toml.DecodeFile(path, cfg)
	}
	applyEnvOverrides(cfg)
	return cfg
}

func defaults() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Name: "meet-notes-recorder",
		},
		Calendar: CalendarConfig{
			Provider:        "google",
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			CalendarID:      "primary",
			PollInterval:    60 * time.Second,
			WindowMinutes:   60,
		},
		Host: HostConfig{
			Adapter:     "chrome",
			DevToolsURL: "http://127.0.0.1:9222",
			LinkPattern: "meet.google.com",
			JoinTimeout: 30 * time.Second,
		},
		Recording: RecordingConfig{
			Dir:              "recordings",
			JoinLead:         5 * time.Minute,
			MaxDuration:      3 * time.Hour,
			WatchdogInterval: time.Second,
			WorkerJoinWait:   5 * time.Second,
			FrameInterval:    50 * time.Millisecond,
			CaptionInterval:  500 * time.Millisecond,
			AudioSampleRate:  44100,
			AudioChannels:    2,
			AudioChunkFrames: 1024,
			SessionDBPath:    "sessions.db",
		},
		Kafka: KafkaConfig{
			Enabled:        false,
			TopicLifecycle: "meetnotes.lifecycle",
			TopicCaptions:  "meetnotes.captions",
			Principal:      "svc-meet-notes",
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			LogFile:  "meet_notes.log",
			HTTPAddr: ":9090",
		},
	}
}

func applyEnvOverrides(cfg *Configuration) {
	cfg.Service.Name = envOrDefault("SERVICE_NAME", cfg.Service.Name)

	cfg.Calendar.Provider = envOrDefault("CALENDAR_PROVIDER", cfg.Calendar.Provider)
	cfg.Calendar.CredentialsFile = envOrDefault("CALENDAR_CREDENTIALS_FILE", cfg.Calendar.CredentialsFile)
	cfg.Calendar.TokenFile = envOrDefault("CALENDAR_TOKEN_FILE", cfg.Calendar.TokenFile)
	cfg.Calendar.CalendarID = envOrDefault("CALENDAR_ID", cfg.Calendar.CalendarID)
	cfg.Calendar.PollInterval = envOrDefaultDuration("CALENDAR_POLL_INTERVAL", cfg.Calendar.PollInterval)
	cfg.Calendar.WindowMinutes = envOrDefaultInt("CALENDAR_WINDOW_MINUTES", cfg.Calendar.WindowMinutes)

	cfg.Host.Adapter = envOrDefault("HOST_ADAPTER", cfg.Host.Adapter)
	cfg.Host.DevToolsURL = envOrDefault("HOST_DEVTOOLS_URL", cfg.Host.DevToolsURL)
	cfg.Host.LinkPattern = envOrDefault("HOST_LINK_PATTERN", cfg.Host.LinkPattern)
	cfg.Host.JoinTimeout = envOrDefaultDuration("HOST_JOIN_TIMEOUT", cfg.Host.JoinTimeout)

	cfg.Recording.Dir = envOrDefault("RECORDING_DIR", cfg.Recording.Dir)
	cfg.Recording.JoinLead = envOrDefaultDuration("RECORDING_JOIN_LEAD", cfg.Recording.JoinLead)
	cfg.Recording.MaxDuration = envOrDefaultDuration("RECORDING_MAX_DURATION", cfg.Recording.MaxDuration)
	cfg.Recording.WatchdogInterval = envOrDefaultDuration("RECORDING_WATCHDOG_INTERVAL", cfg.Recording.WatchdogInterval)
	cfg.Recording.WorkerJoinWait = envOrDefaultDuration("RECORDING_WORKER_JOIN_WAIT", cfg.Recording.WorkerJoinWait)
	cfg.Recording.FrameInterval = envOrDefaultDuration("RECORDING_FRAME_INTERVAL", cfg.Recording.FrameInterval)
	cfg.Recording.CaptionInterval = envOrDefaultDuration("RECORDING_CAPTION_INTERVAL", cfg.Recording.CaptionInterval)
	cfg.Recording.AudioSampleRate = envOrDefaultInt("RECORDING_AUDIO_SAMPLE_RATE", cfg.Recording.AudioSampleRate)
	cfg.Recording.AudioChannels = envOrDefaultInt("RECORDING_AUDIO_CHANNELS", cfg.Recording.AudioChannels)
	cfg.Recording.AudioChunkFrames = envOrDefaultInt("RECORDING_AUDIO_CHUNK_FRAMES", cfg.Recording.AudioChunkFrames)
	cfg.Recording.SessionDBPath = envOrDefault("RECORDING_SESSION_DB", cfg.Recording.SessionDBPath)

	cfg.Kafka.Enabled = envOrDefaultBool("KAFKA_ENABLED", cfg.Kafka.Enabled)
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitAndTrim(v)
	}
	cfg.Kafka.TopicLifecycle = envOrDefault("KAFKA_TOPIC_LIFECYCLE", cfg.Kafka.TopicLifecycle)
	cfg.Kafka.TopicCaptions = envOrDefault("KAFKA_TOPIC_CAPTIONS", cfg.Kafka.TopicCaptions)
	cfg.Kafka.Principal = envOrDefault("KAFKA_PRINCIPAL", cfg.Kafka.Principal)

	cfg.Observability.LogLevel = envOrDefault("LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.LogFile = envOrDefault("LOG_FILE", cfg.Observability.LogFile)
	cfg.Observability.HTTPAddr = envOrDefault("OBSERVABILITY_HTTP_ADDR", cfg.Observability.HTTPAddr)
}

// configFilePath returns the TOML file to load, or "" when none exists.
// MEETNOTES_CONFIG overrides the XDG lookup.
func configFilePath() string {
	if p := os.Getenv("MEETNOTES_CONFIG"); p != "" {
		return p
	}
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "meetnotes")
	} else if home, err := os.UserHomeDir(); err == nil {
		configDir = filepath.Join(home, ".config", "meetnotes")
	} else {
		return ""
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
