package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gadgetghar/account-service/internal/api"
	"github.com/gadgetghar/account-service/internal/core/domain"
	"github.com/gadgetghar/account-service/internal/core/service"
	"github.com/gadgetghar/account-service/internal/infrastructure/config"
	mongodb "github.com/gadgetghar/account-service/internal/infrastructure/db/mongo"
	redisdb "github.com/gadgetghar/account-service/internal/infrastructure/db/redis"
	"github.com/gadgetghar/account-service/internal/infrastructure/mail"
	"github.com/gadgetghar/account-service/internal/infrastructure/queue"
	"github.com/gadgetghar/account-service/internal/pkg/crypto"
	"github.com/gadgetghar/account-service/internal/pkg/token"
	"github.com/gadgetghar/account-service/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.ValidateSecrets(); err != nil {
		log.Fatalf("config: %v", err)
	}

	lg := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.Production(),
	})
	lg.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting account service")

	// Outside production missing secrets degrade to insecure dev defaults.
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		lg.Warn().Msg("JWT_SECRET not set, using insecure development default")
		jwtSecret = crypto.DefaultInsecureKey
	}
	emailSecret := cfg.EmailTokenSecret
	if emailSecret == "" {
		lg.Warn().Msg("EMAIL_TOKEN_SECRET not set, using insecure development default")
		emailSecret = crypto.DefaultInsecureKey
	}
	cipherKey := cfg.PIICipherKey
	if cipherKey == "" {
		lg.Warn().Msg("PII_CIPHER_KEY not set, using insecure development default")
		cipherKey = crypto.DefaultInsecureKey
	}

	// --- Infrastructure ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("mongo connect")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			lg.Error().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("redis connect")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			lg.Error().Err(err).Msg("redis close")
		}
	}()

	cipher, err := crypto.NewFieldCipher(cipherKey)
	if err != nil {
		lg.Fatal().Err(err).Msg("init field cipher")
	}

	lockout := domain.LockoutPolicy{
		Threshold: cfg.LockoutThreshold,
		Duration:  cfg.LockoutDuration,
	}

	userRepo := mongodb.NewUserRepository(db, cipher, lockout)
	adminRepo := mongodb.NewAdminRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		lg.Fatal().Err(err).Msg("ensure user indexes")
	}
	if err := adminRepo.EnsureIndexes(ctx); err != nil {
		lg.Fatal().Err(err).Msg("ensure admin indexes")
	}

	gateway := mail.NewGateway(mail.Config{
		APIKey:    cfg.Mail.APIKey,
		FromEmail: cfg.Mail.FromEmail,
		FromName:  cfg.Mail.FromName,
		Timeout:   cfg.Mail.SendTimeout,
	}, lg)
	if !gateway.Configured() {
		lg.Warn().Msg("mail gateway not configured, emails will be logged instead of sent")
	}

	dispatcher := queue.NewMailDispatcher(0, gateway, cfg.Mail.SendTimeout, lg)
	dispatcher.Start(ctx)

	sessions := token.NewIssuer(jwtSecret)
	actions := token.NewIssuer(emailSecret)

	authService := service.NewAuthService(userRepo, adminRepo, service.Options{
		Hasher:     crypto.NewPasswordHasher(cfg.BcryptCost),
		Sessions:   sessions,
		Actions:    actions,
		Gateway:    gateway,
		Dispatcher: dispatcher,
		Limiter:    redisdb.NewAttemptLimiter(rdb, cfg.SignupMaxPerWindow, cfg.SignupWindow),
		Lockout:    lockout,
		Passwords: domain.PasswordPolicy{
			MaxAge:       cfg.PasswordMaxAge,
			HistoryLimit: domain.DefaultPasswordPolicy().HistoryLimit,
		},
		ClientURL:        cfg.ClientURL,
		SessionTTL:       cfg.SessionTTL,
		AdminSessionTTL:  cfg.AdminSessionTTL,
		VerificationTTL:  cfg.VerificationTTL,
		ResetTTL:         cfg.ResetTTL,
		FailedLoginDelay: cfg.FailedLoginDelay,
		ResetMailTimeout: cfg.Mail.ResetSendTimeout,
		Logger:           lg,
	})

	e := api.NewRouter(api.Deps{
		Auth:          authService,
		Sessions:      sessions,
		DB:            db,
		Redis:         rdb,
		SecureCookies: cfg.Production(),
		Logger:        lg,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("server start")
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("server shutdown")
	}
}
