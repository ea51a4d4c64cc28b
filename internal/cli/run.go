package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"meet-notes-recorder/internal/calendar"
	googlecal "meet-notes-recorder/internal/calendar/google"
	"meet-notes-recorder/internal/capture"
	"meet-notes-recorder/internal/config"
	"meet-notes-recorder/internal/events"
	"meet-notes-recorder/internal/gate"
	"meet-notes-recorder/internal/host"
	"meet-notes-recorder/internal/host/chrome"
	"meet-notes-recorder/internal/host/mock"
	httpapi "meet-notes-recorder/internal/http"
	"meet-notes-recorder/internal/observability"
	"meet-notes-recorder/internal/observability/logging"
	"meet-notes-recorder/internal/observability/metrics"
	"meet-notes-recorder/internal/orchestrator"
	"meet-notes-recorder/internal/recorder"
	"meet-notes-recorder/internal/store"
	"meet-notes-recorder/internal/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the calendar and record meetings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	cfg := config.Load()
	logging.Init(logging.Config{
		Level:   cfg.Observability.LogLevel,
		File:    cfg.Observability.LogFile,
		Service: cfg.Service.Name,
	})
	log := logging.WithComponent("main")
	log.Info().
		Str("version", version.Version).
		Str("calendar", cfg.Calendar.Provider).
		Str("host", cfg.Host.Adapter).
		Msg("Starting meet-notes-recorder")

	publisher := events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicLifecycle: cfg.Kafka.TopicLifecycle,
		TopicCaptions:  cfg.Kafka.TopicCaptions,
		Principal:      cfg.Kafka.Principal,
	})
	defer publisher.Close()

	hostAdapter, err := buildHost(cfg)
	if err != nil {
		return err
	}
	source, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}

	grabber, err := capture.NewDisplayGrabber()
	if err != nil {
		return fmt.Errorf("binding display: %w", err)
	}
	audioSrc := capture.NewMalgoSource(
		cfg.Recording.AudioSampleRate,
		cfg.Recording.AudioChannels,
		cfg.Recording.AudioChunkFrames,
	)
	defer audioSrc.Close()

	coordinator := recorder.NewCoordinator(
		hostAdapter,
		grabber,
		audioSrc,
		capture.Sinks{},
		cfg.Recording,
		metrics.DefaultMetrics,
		publisher,
	)

	var sessions *store.Store
	if cfg.Recording.SessionDBPath != "" {
		sessions, err = store.Open(cfg.Recording.SessionDBPath)
		if err != nil {
			return err
		}
		defer sessions.Close()
		coordinator.OnStop = func(sum recorder.SessionSummary) {
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sessions.Save(saveCtx, store.Session{
				SessionID:  sum.SessionID,
				MeetingID:  sum.MeetingID,
				Title:      sum.Title,
				Dir:        sum.Dir,
				StartedAt:  sum.StartedAt,
				EndedAt:    sum.EndedAt,
				StopReason: sum.StopReason,
			}); err != nil {
				log.Error().Err(err).Str("sessionId", sum.SessionID).Msg("Persisting session failed")
			}
		}
	}

	srv := observability.NewServer(cfg.Observability.HTTPAddr, httpapi.NewRouter(coordinator, sessions))
	srv.Start()

	orch := orchestrator.New(
		source,
		hostAdapter,
		gate.New(cfg.Recording.JoinLead, cfg.Host.LinkPattern),
		coordinator,
		orchestrator.Options{
			PollInterval: cfg.Calendar.PollInterval,
			Window:       time.Duration(cfg.Calendar.WindowMinutes) * time.Minute,
			JoinTimeout:  cfg.Host.JoinTimeout,
		},
	)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	orch.Run(runCtx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	log.Info().Msg("Shutdown complete")
	return nil
}

func buildHost(cfg *config.Configuration) (host.Adapter, error) {
	switch cfg.Host.Adapter {
	case "chrome":
		return chrome.New(cfg.Host.DevToolsURL, cfg.Host.JoinTimeout), nil
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown host adapter %q", cfg.Host.Adapter)
	}
}

func buildSource(ctx context.Context, cfg *config.Configuration) (calendar.Source, error) {
	switch cfg.Calendar.Provider {
	case "google":
		return googlecal.New(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile, cfg.Calendar.CalendarID)
	case "none":
		return calendar.None{}, nil
	default:
		return nil, fmt.Errorf("unknown calendar provider %q", cfg.Calendar.Provider)
	}
}
