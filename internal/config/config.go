package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"stopline-worker-go/internal/models"
)

// Retry modes for crossings whose plate could not be read
const (
	RetryModeRecross   = "recross"
	RetryModeWhilePast = "while-past"
)

type Config struct {
	// Application
	Version     string `validate:"required"`
	Environment string
	WorkerID    string `validate:"required"`
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int `validate:"min=0,max=65535"`

	// Session input
	VideoPath     string `validate:"required"`
	SessionConfig string
	StopLine      models.StopLine
	ClassID       int    `validate:"min=0"`
	RetryMode     string `validate:"oneof=recross while-past"`
	ProgressEvery int    `validate:"min=1"`

	// Detector / tracker
	TrackerMode    string `validate:"oneof=grpc replay"`
	TrackerGRPCURL string
	ReplayPath     string
	TrackerTimeout time.Duration

	// Plate recognition
	RecognizerMode     string `validate:"oneof=grpc nats"`
	RecognizerGRPCURL  string
	RecognitionTimeout time.Duration
	LPRSubject         string

	// Event sinks
	EventLogPath     string `validate:"required"`
	EventLogAppend   bool
	SQLiteEnabled    bool
	SQLitePath       string
	NatsEventsEnable bool
	CrossingsSubject string
	SnapshotEnabled  bool
	SnapshotQuality  int `validate:"min=1,max=100"`
	SnapshotMaxWidth int `validate:"min=1"`

	// NATS (for plate requests and crossing events)
	NatsURL            string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int

	// Annotated output video
	OutputVideoPath string
	OverlayColor    string

	// HTTP API
	APIEnabled      bool
	Port            int `validate:"min=1,max=65535"`
	RecentEvents    int `validate:"min=1"`
	ShutdownTimeout time.Duration
}

// sessionFile is the optional YAML file describing one processing session
type sessionFile struct {
	StopLine  *models.StopLine `yaml:"stop_line"`
	ClassID   *int             `yaml:"class_id"`
	RetryMode string           `yaml:"retry_mode"`
	Video     string           `yaml:"video"`
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	stopLine, err := ParseStopLine(getEnv("STOP_LINE", "83,168,357,160"))
	if err != nil {
		log.Warn().Err(err).Msg("Invalid STOP_LINE, using default")
		stopLine, _ = ParseStopLine("83,168,357,160")
	}

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		WorkerID:    getEnv("WORKER_ID", "worker-1"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Session input
		VideoPath:     getEnv("VIDEO_PATH", "images/testP.mp4"),
		SessionConfig: getEnv("SESSION_CONFIG", ""),
		StopLine:      stopLine,
		ClassID:       getEnvInt("CLASS_ID", models.ClassCar),
		RetryMode:     getEnv("RETRY_MODE", RetryModeRecross),
		ProgressEvery: getEnvInt("PROGRESS_EVERY", 100),

		// Detector / tracker
		TrackerMode:    getEnv("TRACKER_MODE", "grpc"),
		TrackerGRPCURL: getEnv("TRACKER_GRPC_URL", "localhost:50051"),
		ReplayPath:     getEnv("REPLAY_PATH", ""),
		TrackerTimeout: getEnvDuration("TRACKER_TIMEOUT", 5*time.Second),

		// Plate recognition
		RecognizerMode:     getEnv("RECOGNIZER_MODE", "grpc"),
		RecognizerGRPCURL:  getEnv("RECOGNIZER_GRPC_URL", "localhost:50052"),
		RecognitionTimeout: getEnvDuration("RECOGNITION_TIMEOUT", 3*time.Second),
		LPRSubject:         getEnv("LPR_SUBJECT", "lpr.recognize"),

		// Event sinks
		EventLogPath:     getEnv("EVENT_LOG_PATH", "output.txt"),
		EventLogAppend:   getEnvBool("EVENT_LOG_APPEND", false),
		SQLiteEnabled:    getEnvBool("SQLITE_ENABLED", false),
		SQLitePath:       getEnv("SQLITE_PATH", "crossings.db"),
		NatsEventsEnable: getEnvBool("NATS_EVENTS_ENABLED", false),
		CrossingsSubject: getEnv("CROSSINGS_SUBJECT", "crossings"),
		SnapshotEnabled:  getEnvBool("SNAPSHOT_ENABLED", false),
		SnapshotQuality:  getEnvInt("SNAPSHOT_QUALITY", 85),
		SnapshotMaxWidth: getEnvInt("SNAPSHOT_MAX_WIDTH", 640),

		// NATS
		NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited

		// Annotated output video
		OutputVideoPath: getEnv("OUTPUT_VIDEO_PATH", ""),
		OverlayColor:    getEnv("OVERLAY_COLOR", "#FF0000"),

		// HTTP API
		APIEnabled:      getEnvBool("API_ENABLED", false),
		Port:            getEnvInt("PORT", 8000),
		RecentEvents:    getEnvInt("RECENT_EVENTS", 100),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// ApplySessionFile overlays the YAML session file on top of env values
func (c *Config) ApplySessionFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read session config %s: %w", path, err)
	}

	var sf sessionFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("failed to parse session config %s: %w", path, err)
	}

	if sf.StopLine != nil {
		c.StopLine = *sf.StopLine
	}
	if sf.ClassID != nil {
		c.ClassID = *sf.ClassID
	}
	if sf.RetryMode != "" {
		c.RetryMode = sf.RetryMode
	}
	if sf.Video != "" {
		c.VideoPath = sf.Video
	}
	c.SessionConfig = path
	return nil
}

// Validate checks struct constraints and the stop line geometry
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.StopLine.Degenerate() {
		return fmt.Errorf("invalid configuration: stop line endpoints coincide at (%.0f,%.0f)", c.StopLine.P1.X, c.StopLine.P1.Y)
	}
	if c.TrackerMode == "replay" && c.ReplayPath == "" {
		return fmt.Errorf("invalid configuration: REPLAY_PATH is required when TRACKER_MODE=replay")
	}
	return nil
}

// ParseStopLine parses "x1,y1,x2,y2" into a stop line
func ParseStopLine(s string) (models.StopLine, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.StopLine{}, fmt.Errorf("stop line needs 4 comma separated values, got %d", len(parts))
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.StopLine{}, fmt.Errorf("invalid stop line value %q: %w", p, err)
		}
		v[i] = f
	}

	return models.StopLine{
		P1: models.Point{X: v[0], Y: v[1]},
		P2: models.Point{X: v[2], Y: v[3]},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
