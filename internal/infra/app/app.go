package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/core/port"
	"github.com/campushub/identity-service/internal/infra/config"
	"github.com/campushub/identity-service/internal/infra/database"
	kafkainfra "github.com/campushub/identity-service/internal/infra/kafka"
	"github.com/campushub/identity-service/internal/infra/logger"
	"github.com/campushub/identity-service/internal/infra/mail"
	redisinfra "github.com/campushub/identity-service/internal/infra/redis"
	"github.com/campushub/identity-service/internal/infra/security"
	postgresrepo "github.com/campushub/identity-service/internal/repository/postgres"
	redisrepo "github.com/campushub/identity-service/internal/repository/redis"
	"github.com/campushub/identity-service/internal/transport/http/handlers"
	"github.com/campushub/identity-service/internal/transport/http/middleware"
	"github.com/campushub/identity-service/internal/transport/http/routes"
	"github.com/campushub/identity-service/internal/usecase"
)

// Application wires configuration, infrastructure, services, and transport.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	events   port.EventPublisher
	sessions *usecase.SessionService
	codes    port.CodeRepository
}

// New bootstraps the application: migrations, stores, services, routes.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if err := database.RunMigrations(ctx, cfg.Postgres); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	if err := security.ConfigureArgon2(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	}); err != nil {
		return nil, fmt.Errorf("configure argon2: %w", err)
	}

	signer, err := security.NewTokenSigner(cfg.Auth.SigningSecret, cfg.App.Name, cfg.Auth.BearerTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	var notifier port.Notifier
	if cfg.SMTP.Host != "" {
		mailer, err := mail.NewMailer(cfg.SMTP)
		if err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("init mailer: %w", err)
		}
		notifier = mailer
	} else {
		log.Info("smtp not configured, logging issued codes instead of delivering")
		notifier = mail.NewLoggingNotifier(log)
	}

	classifier := domain.NewRoleClassifier(cfg.Auth.InstitutionDomain, cfg.Auth.AdminEmails)
	validator := security.DefaultPasswordValidator()
	otpSettings := usecase.OTPSettings{Length: cfg.OTP.Length, Expiry: cfg.OTP.Expiry}

	registrationService := usecase.NewRegistrationService(repos.Accounts, repos.Codes, classifier, validator, signer, eventPublisher, otpSettings)
	authService := usecase.NewAuthService(repos.Accounts, repos.Codes, classifier, signer, repos.Accounts, eventPublisher, otpSettings)
	passwordResetService := usecase.NewPasswordResetService(repos.Accounts, repos.Codes, validator, eventPublisher, otpSettings)
	sessionService := usecase.NewSessionService(repos.Sessions, repos.Accounts, eventPublisher, cfg.Session.TTL, cfg.Session.Retention)
	profileService := usecase.NewProfileService(repos.Accounts)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitStore(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "idm:rate-limit",
		TTL:       rateLimitWindow * 2,
	})

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Signer:      signer,
		RateLimiter: middleware.NewRateLimiter(rateLimitStore, log),
		Dispatcher:  handlers.NewSinkDispatcher(notifier, log),
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Registration:  registrationService,
			Auth:          authService,
			PasswordReset: passwordResetService,
			Sessions:      sessionService,
			Profiles:      profileService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		events:   eventPublisher,
		sessions: sessionService,
		codes:    repos.Codes,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.events != nil {
			_ = a.events.Close()
		}
	}()

	if a.cfg.Session.CleanupInterval > 0 {
		go a.runJanitor(ctx, a.cfg.Session.CleanupInterval)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting identity API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

// runJanitor periodically sweeps stale session rows and expired codes.
// Validity never depends on the sweep; it only bounds table growth.
func (a *Application) runJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, time.Minute)

			if deleted, err := a.sessions.Cleanup(sweepCtx); err != nil {
				a.logger.Warn("session cleanup failed", zap.Error(err))
			} else if deleted > 0 {
				a.logger.Info("stale sessions removed", zap.Int64("count", deleted))
			}

			if deleted, err := a.codes.DeleteExpired(sweepCtx, time.Now().UTC()); err != nil {
				a.logger.Warn("code cleanup failed", zap.Error(err))
			} else if deleted > 0 {
				a.logger.Info("expired codes removed", zap.Int64("count", deleted))
			}

			cancel()
		}
	}
}
