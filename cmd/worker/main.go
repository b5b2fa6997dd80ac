package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stopline-worker-go/internal/api"
	"stopline-worker-go/internal/api/handlers"
	"stopline-worker-go/internal/config"
	"stopline-worker-go/internal/logging"
	"stopline-worker-go/internal/metrics"
	"stopline-worker-go/internal/services/detection"
	"stopline-worker-go/internal/services/eventlog"
	"stopline-worker-go/internal/services/grpcclient"
	"stopline-worker-go/internal/services/messaging"
	"stopline-worker-go/internal/services/overlay"
	"stopline-worker-go/internal/services/recognition"
	"stopline-worker-go/internal/services/streamcapture"
	"stopline-worker-go/internal/worker"
)

func main() {
	videoFlag := flag.String("video", "", "input video path (overrides VIDEO_PATH)")
	logFlag := flag.String("log", "", "event log path (overrides EVENT_LOG_PATH)")
	configFlag := flag.String("config", "", "YAML session file (overrides SESSION_CONFIG)")
	flag.Parse()

	// Setup structured logging
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if *configFlag != "" {
		cfg.SessionConfig = *configFlag
	}
	if cfg.SessionConfig != "" {
		if err := cfg.ApplySessionFile(cfg.SessionConfig); err != nil {
			log.Fatal().Err(err).Msg("Failed to load session config")
		}
	}
	if *videoFlag != "" {
		cfg.VideoPath = *videoFlag
	}
	if *logFlag != "" {
		cfg.EventLogPath = *logFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Logger = log.Output(logging.TeeLogdy(cfg, zerolog.ConsoleWriter{Out: os.Stderr}))

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Str("video", cfg.VideoPath).
		Str("event_log", cfg.EventLogPath).
		Str("stop_line", cfg.StopLine.String()).
		Msg("Starting stop-line worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Stop-line worker failed")
	}
}

// run wires one session and blocks until it ends. Components opened before
// the session exists are closed here on error; afterwards the session owns
// them.
func run(ctx context.Context, cfg *config.Config) (err error) {
	checks := map[string]handlers.HealthCheckFunc{}

	var owned []io.Closer
	defer func() {
		if err != nil {
			for i := len(owned) - 1; i >= 0; i-- {
				owned[i].Close()
			}
		}
	}()

	source, err := streamcapture.Open(cfg.VideoPath)
	if err != nil {
		return fmt.Errorf("open video source: %w", err)
	}
	owned = append(owned, source)

	var msgSvc *messaging.Service
	if cfg.RecognizerMode == "nats" || cfg.NatsEventsEnable {
		msgSvc, err = messaging.NewService(cfg)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := msgSvc.Shutdown(sctx); err != nil {
				log.Warn().Err(err).Msg("NATS drain did not finish")
			}
		}()
		checks["nats"] = func(context.Context) error {
			if !msgSvc.IsConnected() {
				return messaging.ErrNotConnected
			}
			return nil
		}
	}

	tracker, err := newTracker(cfg, checks)
	if err != nil {
		return fmt.Errorf("create tracker: %w", err)
	}
	owned = append(owned, tracker)

	engine, closeEngine := newEngine(cfg, msgSvc, checks)
	defer closeEngine()

	ring := eventlog.NewRing(cfg.RecentEvents)
	var events eventlog.RecentLister = ring

	fileSink, err := eventlog.OpenFile(cfg.EventLogPath, cfg.EventLogAppend)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	owned = append(owned, fileSink)
	secondary := []eventlog.Sink{ring}

	if cfg.SQLiteEnabled {
		store, err := eventlog.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("open SQLite event store: %w", err)
		}
		owned = append(owned, store)
		secondary = append(secondary, store)
		events = store
	}
	if cfg.NatsEventsEnable {
		secondary = append(secondary, eventlog.NewNATSSink(msgSvc, cfg.CrossingsSubject, cfg.WorkerID, cfg.StopLine))
	}

	deps := worker.Deps{
		Source:  source,
		Tracker: tracker,
		Reader:  recognition.NewRecognizer(engine, cfg.RecognitionTimeout),
		Sink:    eventlog.NewMultiSink(fileSink, secondary...),
		Metrics: metrics.New(),
	}

	if cfg.OutputVideoPath != "" {
		rec, err := overlay.NewRecorder(cfg.OutputVideoPath, source.Info(), cfg.OverlayColor)
		if err != nil {
			log.Warn().Err(err).Msg("Annotated output disabled")
		} else {
			deps.Writer = rec
			owned = append(owned, rec)
		}
	}

	session := worker.NewSession(cfg, deps)

	var server *api.Server
	if cfg.APIEnabled {
		server, err = api.NewServer(cfg, api.Deps{
			Session: session,
			Events:  events,
			Metrics: deps.Metrics,
			Checks:  checks,
		})
		if err != nil {
			return fmt.Errorf("create api server: %w", err)
		}
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error().Interface("panic", r).Msg("API server panicked")
				}
			}()
			if err := server.Start(); err != nil {
				log.Error().Err(err).Msg("API server failed")
			}
		}()
	}

	// From here the session closes every owned component itself
	owned = nil
	stats, runErr := session.Run(ctx)

	if server != nil {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("API server forced to shutdown")
		}
	}

	fmt.Fprintf(os.Stdout, "frames=%d crossings=%d logged=%d unread=%d tracks=%d recorded=%d\n",
		stats.Frames, stats.Crossings, stats.Events, stats.RecognitionFailures, stats.Tracks, stats.RecordedTracks)

	if runErr != nil {
		return fmt.Errorf("session %s: %w", session.ID(), runErr)
	}
	return nil
}

func newTracker(cfg *config.Config, checks map[string]handlers.HealthCheckFunc) (detection.Tracker, error) {
	if cfg.TrackerMode == "replay" {
		r, err := detection.NewReplayTracker(cfg.ReplayPath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.ReplayPath).Int("frames", r.Frames()).Msg("Replaying recorded detections")
		return r, nil
	}

	client := grpcclient.New("tracker", cfg.TrackerGRPCURL)
	if err := client.Connect(); err != nil {
		log.Warn().Err(err).Str("endpoint", cfg.TrackerGRPCURL).Msg("Tracker not reachable yet, will retry per frame")
	}
	tracker := detection.NewGRPCTracker(client, cfg.TrackerTimeout)
	checks["tracker"] = tracker.HealthCheck
	return tracker, nil
}

func newEngine(cfg *config.Config, msgSvc *messaging.Service, checks map[string]handlers.HealthCheckFunc) (recognition.Engine, func()) {
	if cfg.RecognizerMode == "nats" {
		return recognition.NewNATSEngine(msgSvc, cfg.LPRSubject), func() {}
	}

	client := grpcclient.New("lpr", cfg.RecognizerGRPCURL)
	if err := client.Connect(); err != nil {
		log.Warn().Err(err).Str("endpoint", cfg.RecognizerGRPCURL).Msg("Plate engine not reachable yet, will retry on crossings")
	}
	engine := recognition.NewGRPCEngine(client)
	checks["recognizer"] = engine.HealthCheck
	return engine, func() {
		if err := engine.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close plate engine client")
		}
	}
}
