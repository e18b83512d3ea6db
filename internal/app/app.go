// Package app wires the survey API from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatform/internal/cache"
	"chatform/internal/config"
	"chatform/internal/repository"
	"chatform/internal/service"
	"chatform/internal/transport/rest"
	"chatform/internal/transport/ws"
)

// Repos are the storage dependencies of the API
type Repos struct {
	Surveys   repository.SurveyRepo
	Responses repository.ResponseRepo
	Plans     repository.PlanRepo
}

// App holds the wired services and the HTTP handler
type App struct {
	cfg *config.Config
	log zerolog.Logger

	mongo *mongo.Client
	redis *redis.Client

	Repos        Repos
	SurveyCache  cache.SurveyCache
	UsageCache   cache.UsageCache
	AuthSvc      *service.AuthService
	SurveySvc    *service.SurveyService
	ResponseSvc  *service.ResponseService
	AssistantSvc *service.AssistantService
	Hub          *ws.Hub
	Handler      http.Handler
}

// New connects to MongoDB and Redis and wires the API
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = mongoClient.Disconnect(ctx)
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info().Str("addr", cfg.Redis.Addr()).Msg("connected to Redis")

	db := mongoClient.Database(cfg.Mongo.Database)
	repos := Repos{
		Surveys:   repository.NewSurveyRepo(db),
		Responses: repository.NewResponseRepo(db),
		Plans:     repository.NewPlanRepo(db),
	}
	if err := repos.Surveys.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("ensure survey indexes failed")
	}

	a := Wire(cfg, log, repos, rdb)
	a.mongo = mongoClient
	return a, nil
}

// Wire builds services, the WebSocket hub and the router over existing
// stores. rdb is owned by the returned App.
func Wire(cfg *config.Config, log zerolog.Logger, repos Repos, rdb *redis.Client) *App {
	a := &App{
		cfg:         cfg,
		log:         log,
		redis:       rdb,
		Repos:       repos,
		SurveyCache: cache.NewSurveyCache(rdb, cfg.Redis.SurveyTTL),
		UsageCache:  cache.NewUsageCache(rdb),
	}

	a.AuthSvc = service.NewAuthService(cfg.Auth)
	a.SurveySvc = service.NewSurveyService(repos.Surveys, repos.Plans, a.SurveyCache, a.UsageCache, log.With().Str("component", "surveys").Logger())
	a.ResponseSvc = service.NewResponseService(a.SurveySvc, repos.Surveys, repos.Responses, a.UsageCache, log.With().Str("component", "responses").Logger())
	a.AssistantSvc = service.NewAssistantService(cfg.Assistant, log.With().Str("component", "assistant").Logger())

	// Inject broadcaster (the hub implements service.Broadcaster)
	a.Hub = ws.NewHub(log.With().Str("component", "ws").Logger())
	a.ResponseSvc.SetBroadcaster(a.Hub)

	a.Handler = rest.NewRouter(&rest.Container{
		AuthService:      a.AuthSvc,
		SurveyService:    a.SurveySvc,
		ResponseService:  a.ResponseSvc,
		AssistantService: a.AssistantSvc,
		WSHub:            a.Hub,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		Log:              log.With().Str("component", "http").Logger(),
	})
	return a
}

// Serve listens on the configured port until ctx is canceled, then shuts
// down within the configured timeout
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Server.Port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Bool("assistant", a.cfg.Assistant.IsEnabled()).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops the hub and releases the store connections
func (a *App) Close(ctx context.Context) {
	a.Hub.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("close redis")
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("disconnect mongodb")
		}
	}
}
