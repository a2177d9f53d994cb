package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/facegate/internal/api"
	"github.com/your-org/facegate/internal/api/ws"
	"github.com/your-org/facegate/internal/auth"
	"github.com/your-org/facegate/internal/config"
	"github.com/your-org/facegate/internal/crypto"
	"github.com/your-org/facegate/internal/embedder"
	"github.com/your-org/facegate/internal/models"
	"github.com/your-org/facegate/internal/observability"
	"github.com/your-org/facegate/internal/queue"
	"github.com/your-org/facegate/internal/recognition"
	"github.com/your-org/facegate/internal/storage"
	"github.com/your-org/facegate/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting facegate API service", "port", cfg.Server.Port)

	// Credential vault: the PII key and signing secret are loaded once
	// here and shared read-only for the life of the process.
	piiKey, err := cfg.Auth.PIIKeyBytes()
	if err != nil {
		slog.Error("load pii key", "error", err)
		os.Exit(1)
	}
	vault, err := crypto.NewVault(piiKey, cfg.Auth.BcryptCost)
	if err != nil {
		slog.Error("create vault", "error", err)
		os.Exit(1)
	}

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database, vault)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	evidence, err := storage.NewEvidenceStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := evidence.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	sessions := auth.NewSessions(db, vault, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	engine := recognition.NewEngine(db)
	embedClient := embedder.NewClient(cfg.Embedder)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Consume access decisions: persist audit events and broadcast to
	// connected dashboards.
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create access event consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeDecisions(ctx, "api-decisions", func(ctx context.Context, msg jetstream.Msg) error {
		var ev models.AccessEvent
		if err := json.Unmarshal(msg.Data(), &ev); err != nil {
			return err
		}

		// Audit rows require a camera; decisions from ad-hoc uploads are
		// broadcast only.
		if ev.CameraID != nil {
			confidence := ev.Confidence
			record := &models.Event{
				PersonID:   ev.PersonID,
				CameraID:   *ev.CameraID,
				Category:   ev.Action,
				Timestamp:  ev.Timestamp,
				Confidence: &confidence,
				ImagePath:  ev.SnapshotKey,
			}
			if err := db.CreateEvent(ctx, record); err != nil {
				slog.Error("store access event", "error", err)
			}
		}

		// The queued payload carries no PII; resolve the display name
		// through the repository so decryption happens here, in memory.
		name := "Unknown"
		if ev.PersonID != nil {
			person, err := db.GetPerson(ctx, *ev.PersonID)
			if err != nil {
				slog.Warn("resolve person for broadcast", "person_id", ev.PersonID, "error", err)
			} else if person != nil {
				name = person.Name
			}
		}

		hub.BroadcastDecision(&dto.WSEvent{
			Type:       "access_decision",
			Name:       name,
			Action:     ev.Action,
			Confidence: ev.Confidence,
			PersonID:   ev.PersonID,
			CameraID:   ev.CameraID,
			Timestamp:  ev.Timestamp.Format(time.RFC3339),
		})

		return nil
	})
	if err != nil {
		slog.Warn("start access event consumer", "error", err)
	}

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		Sessions:        sessions,
		DB:              db,
		Evidence:        evidence,
		Engine:          engine,
		Embedder:        embedClient,
		Producer:        producer,
		Hub:             hub,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ViewerListLimit: cfg.Recognition.ViewerListLimit,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
