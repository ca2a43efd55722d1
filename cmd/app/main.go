package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/kirvitchenko/finalProjectCrm/internal/auth"
	"github.com/kirvitchenko/finalProjectCrm/internal/config"
	"github.com/kirvitchenko/finalProjectCrm/internal/logger"
	"github.com/kirvitchenko/finalProjectCrm/internal/metrics"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository"
	"github.com/kirvitchenko/finalProjectCrm/internal/repository/postgres"
	redisRepo "github.com/kirvitchenko/finalProjectCrm/internal/repository/redis"
	httpTransport "github.com/kirvitchenko/finalProjectCrm/internal/transport/http"
	"github.com/kirvitchenko/finalProjectCrm/internal/transport/http/handler"
	"github.com/kirvitchenko/finalProjectCrm/internal/usecase"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключаемся к базе данных
	pool, err := pgxpool.New(ctx, cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("successfully connected to database")

	// Применяем миграции
	if err := runMigrations(cfg.MigrationsPath, cfg.GetDSN()); err != nil {
		return err
	}
	log.Info().Str("path", cfg.MigrationsPath).Msg("migrations applied successfully")

	if err := postgres.ApplyMembershipPolicy(ctx, pool, cfg.MembershipPolicy); err != nil {
		return err
	}

	pingers := map[string]handler.Pinger{"postgres": pool}

	// Отозванные токены: Redis, если он настроен, иначе PostgreSQL
	var revocations repository.TokenRevocationStore = postgres.NewRevocationStore(pool)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		store := redisRepo.NewRevocationStore(client)
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("token revocations stored in redis")

		revocations = store
		pingers["redis"] = store
	}

	// Инициализируем репозитории
	userRepo := postgres.NewUserRepository(pool)
	teamRepo := postgres.NewTeamRepository(pool)
	membershipRepo := postgres.NewMembershipRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	commentRepo := postgres.NewCommentRepository(pool)
	meetingRepo := postgres.NewMeetingRepository(pool)
	evaluationRepo := postgres.NewEvaluationRepository(pool)
	statsRepo := postgres.NewStatisticsRepository(pool)
	txManager := postgres.NewTransactionManager(pool)

	// Инициализируем use cases
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	userUseCase := usecase.NewUserUseCase(userRepo, revocations, tokens)
	teamUseCase := usecase.NewTeamUseCase(teamRepo, userRepo, membershipRepo, txManager, cfg.MembershipPolicy)
	taskUseCase := usecase.NewTaskUseCase(taskRepo, teamRepo, membershipRepo, txManager)
	commentUseCase := usecase.NewCommentUseCase(commentRepo, taskRepo, membershipRepo)
	meetingUseCase := usecase.NewMeetingUseCase(meetingRepo, userRepo, txManager, nil)
	evaluationUseCase := usecase.NewEvaluationUseCase(evaluationRepo, taskRepo, userRepo, membershipRepo, txManager, cfg.EvaluationPolicy)
	statsUseCase := usecase.NewStatisticsUseCase(statsRepo)

	// Инициализируем handlers
	validator, err := handler.NewRequestValidator()
	if err != nil {
		return fmt.Errorf("failed to init validator: %w", err)
	}
	m := metrics.New()
	common := &handler.Common{Validator: validator, Metrics: m}

	router := httpTransport.NewRouter(httpTransport.RouterConfig{
		UserHandler:       handler.NewUserHandler(common, userUseCase, meetingUseCase, evaluationUseCase),
		TeamHandler:       handler.NewTeamHandler(common, teamUseCase, taskUseCase),
		TaskHandler:       handler.NewTaskHandler(common, taskUseCase, commentUseCase),
		EvaluationHandler: handler.NewEvaluationHandler(common, evaluationUseCase),
		MeetingHandler:    handler.NewMeetingHandler(common, meetingUseCase),
		StatisticsHandler: handler.NewStatisticsHandler(common, statsUseCase),
		HealthHandler:     handler.NewHealthHandler(pingers),
		Authenticator:     userUseCase,
		AdminToken:        cfg.AdminToken,
		AllowedOrigins:    cfg.CORSAllowedOrigins,
		Metrics:           m,
		Logger:            log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.HTTPPort).
			Str("membership_policy", string(cfg.MembershipPolicy)).
			Str("evaluation_policy", string(cfg.EvaluationPolicy)).
			Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	// Graceful shutdown
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited")
	return nil
}

// runMigrations применяет миграции базы данных из каталога path
func runMigrations(path, dsn string) error {
	m, err := migrate.New("file://"+path, dsn)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
