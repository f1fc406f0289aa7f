package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/benderprog/analiz-svodok/internal/analysis/compare"
	"github.com/benderprog/analiz-svodok/internal/analysis/extract"
	"github.com/benderprog/analiz-svodok/internal/analysis/handler"
	"github.com/benderprog/analiz-svodok/internal/analysis/semantic"
	"github.com/benderprog/analiz-svodok/internal/analysis/service"
	"github.com/benderprog/analiz-svodok/internal/embedding"
	httpapi "github.com/benderprog/analiz-svodok/internal/http"
	"github.com/benderprog/analiz-svodok/internal/jobs"
	jwttoken "github.com/benderprog/analiz-svodok/internal/jwt_token"
	"github.com/benderprog/analiz-svodok/internal/platform/config"
	"github.com/benderprog/analiz-svodok/internal/platform/httpserver"
	"github.com/benderprog/analiz-svodok/internal/platform/logger"
	platformredis "github.com/benderprog/analiz-svodok/internal/platform/redis"
	"github.com/benderprog/analiz-svodok/internal/portal"
	"github.com/benderprog/analiz-svodok/internal/reference"
)

// main wires configuration, stores and services, then runs the HTTP server
// until a shutdown signal arrives. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	appDB, err := sql.Open("pgx", cfg.AppDatabaseDSN)
	if err != nil {
		return err
	}
	defer appDB.Close()

	refStore := reference.NewPostgres(appDB)
	if err := refStore.Migrate(ctx); err != nil {
		return err
	}
	entities, err := seedReference(ctx, cfg, refStore)
	if err != nil {
		return err
	}
	eventTypes, err := refStore.ListEventTypes(ctx)
	if err != nil {
		return err
	}

	embClient := embedding.NewClient(cfg.EmbeddingURL, cfg.EmbeddingTimeout)
	refctx, err := semantic.BuildContext(ctx, entities, embClient)
	if err != nil {
		return err
	}
	resolver, err := semantic.NewResolver(refctx, embClient, semantic.WithLogger(log))
	if err != nil {
		return err
	}

	extractor := extract.New(extract.WithStoplist(reference.Stoplist(entities)))

	candidates, portalDB, err := candidateSource(cfg, log)
	if err != nil {
		return err
	}
	if portalDB != nil {
		defer portalDB.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var jobStore jobs.Store
	if redisClient != nil {
		defer redisClient.Close()
		jobStore = jobs.NewRedisStore(redisClient.Client, cfg.ResultTTL)
	} else {
		log.Warn("redis not configured, job state is process-local")
		jobStore = jobs.NewMemoryStore()
	}

	defaults := compare.Options{
		Threshold:           cfg.SubdivisionThreshold,
		WindowMinutes:       cfg.TimeWindowMinutes,
		OffendersMinOverlap: cfg.OffendersMinOverlap,
	}
	opts := []service.Option{service.WithLogger(log)}
	if len(eventTypes) > 0 {
		classifier, err := semantic.NewTypeClassifier(ctx, eventTypes, embClient, cfg.SubdivisionThreshold)
		if err != nil {
			return err
		}
		opts = append(opts, service.WithTypeClassifier(classifier))
	}
	svc, err := service.New(extractor, resolver, candidates, jobStore, defaults, opts...)
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "analiz-svodok", "analysis-api")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	checks := map[string]httpapi.HealthCheck{
		"database":  appDB.PingContext,
		"embedding": embClient.Health,
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}

	router := httpapi.NewRouter(handler.New(svc, jobStore, log), validator, log, checks)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting analysis service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// seedReference loads the directory, importing the bundled YAML once when the
// database is still empty.
func seedReference(ctx context.Context, cfg config.Config, store *reference.PostgresStore) ([]reference.Subdivision, error) {
	entities, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(entities) > 0 || cfg.ReferenceYAMLPath == "" {
		return entities, nil
	}

	f, err := os.Open(cfg.ReferenceYAMLPath)
	if err != nil {
		if os.IsNotExist(err) {
			return entities, nil
		}
		return nil, err
	}
	defer f.Close()

	report, err := reference.Sync(ctx, store, f)
	if err != nil {
		return nil, err
	}
	slog.Info("reference directory seeded",
		"created", report.Created, "updated", report.Updated, "aliases", report.Aliases)
	return store.List(ctx)
}

// candidateSource picks the registry connection, degrading to an empty
// in-memory source when no portal DSN is configured.
func candidateSource(cfg config.Config, log *slog.Logger) (service.CandidateSource, *sql.DB, error) {
	if cfg.PortalDatabaseDSN == "" {
		log.Warn("portal DSN not configured, using empty candidate source")
		return portal.NewMemoryStore(), nil, nil
	}
	queries, err := portal.LoadQueriesFile(cfg.PortalQueryConfigPath)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open("pgx", cfg.PortalDatabaseDSN)
	if err != nil {
		return nil, nil, err
	}
	return portal.NewPostgres(db, queries), db, nil
}
