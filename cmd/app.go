package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/face-verify/internal/config"
	"github.com/kozaktomas/face-verify/internal/database"
	"github.com/kozaktomas/face-verify/internal/database/postgres"
	"github.com/kozaktomas/face-verify/internal/embedding"
	"github.com/kozaktomas/face-verify/internal/quality"
	"github.com/kozaktomas/face-verify/internal/recognition"
	"github.com/kozaktomas/face-verify/internal/voting"
	"go.uber.org/zap"
)

// app holds everything a command needs, wired once from the configuration.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	pool        *postgres.Pool
	extractor   *embedding.Client
	enrollments *postgres.EnrollmentRepository
	audit       *postgres.AuditRepository
	svc         *recognition.Service
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.InitLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	logger.Debug("connecting to PostgreSQL")
	pool, err := postgres.Open(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	a := &app{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		extractor:   embedding.NewClient(cfg.Embedding.URL, cfg.Embedding.Timeout),
		enrollments: postgres.NewEnrollmentRepository(pool),
		audit:       postgres.NewAuditRepository(pool),
	}

	a.svc = recognition.NewService(recognition.Deps{
		Extractor: a.extractor,
		Gate:      quality.NewGate(cfg.Quality.Profiles, cfg.Quality.Enabled),
		Store:     a.enrollments,
		Audit:     a.audit,
		Stats:     a.audit,
		Votes:     voting.NewStore(cfg.Voting.Window, cfg.Voting.MinVotes, cfg.Voting.SessionTTL),
		Index:     database.NewHNSWIndex(),
		Photos:    recognition.NewPhotoStore(cfg.Storage.PhotosDir),
		Logger:    logger,
	}, recognition.Options{
		Threshold:          cfg.Matching.Threshold,
		TopK:               cfg.Matching.TopK,
		EmbeddingDim:       cfg.Embedding.Dim,
		ParallelMin:        cfg.Matching.ParallelMin,
		Shards:             cfg.Matching.Shards,
		SnapshotTTL:        cfg.Matching.SnapshotTTL,
		LookalikeThreshold: cfg.Matching.LookalikeThreshold,
	})

	return a, nil
}

func (a *app) Close() {
	if err := a.pool.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
