package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"collabhub/internal/config"
	"collabhub/internal/db"
	"collabhub/internal/discord"
	"collabhub/internal/email"
	"collabhub/internal/events"
	apihttp "collabhub/internal/http"
	"collabhub/internal/oauth"
	"collabhub/internal/repository"
	"collabhub/internal/service"
	"collabhub/internal/storage"
	"collabhub/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "collabhub"

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var shutdownTracer func(context.Context) error
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err = telemetry.InitTracer(ctx, serviceName, cfg.OTLPEndpoint, cfg.Environment)
		if err != nil {
			logger.Warn("tracer init failed", zap.Error(err))
		}
	}

	if cfg.MigrateOnStart {
		if err := db.ApplyMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("apply migrations", zap.Error(err))
		}
	}
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	attemptRepo := repository.NewPgLoginAttemptRepository(pool)
	verificationRepo := repository.NewPgVerificationRepository(pool)
	auditRepo := repository.NewPgAuditRepository(pool)
	projectRepo := repository.NewPgProjectRepository(pool)
	roleRepo := repository.NewPgProjectRoleRepository(pool)
	documentRepo := repository.NewPgDocumentRepository(pool)
	participationRepo := repository.NewPgParticipationRepository(pool)
	accessRepo := repository.NewPgAccessRepository(pool)
	boardRepo := repository.NewPgBoardRepository(pool)
	taskRepo := repository.NewPgTaskRepository(pool)
	educationRepo := repository.NewPgEducationRepository(pool)
	socialRepo := repository.NewPgSocialRepository(pool)
	skillRepo := repository.NewPgSkillRepository(pool)
	hygieneRepo := repository.NewPgHygieneRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		codeLimiter service.RateLimiter
		denylist    service.TokenDenylist
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory stores", zap.Error(err))
		} else {
			codeLimiter = service.NewRedisRateLimiter(redisClient, "verify-code", 10*time.Minute, 3)
			denylist = service.NewRedisTokenDenylist(redisClient)
		}
		cancel()
	}

	var logos service.LogoStorage
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMinioLogoStorage(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL)
		if err != nil {
			logger.Warn("minio init failed, logo uploads disabled", zap.Error(err))
		} else {
			logos = store
		}
	}

	var (
		channels service.ChannelProvisioner = discord.Noop{}
		roleSync events.MemberRoleSync      = discord.Noop{}
	)
	if cfg.DiscordBotToken != "" {
		provisioner, err := discord.NewProvisioner(logger, cfg.DiscordBotToken, cfg.DiscordGuildID, cfg.DiscordBotRole)
		if err != nil {
			logger.Warn("discord init failed", zap.Error(err))
		} else {
			channels = provisioner
			roleSync = provisioner
		}
	}

	notifier := events.NewNotifier(logger, userRepo, projectRepo, emailSender, roleSync)
	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	var publisher events.Publisher = events.NewInlinePublisher(logger, notifier)
	if cfg.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("amqp publisher init failed, delivering events inline", zap.Error(err))
		} else {
			defer amqpPublisher.Close()
			publisher = amqpPublisher
			consumer, err := events.NewConsumer(logger, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, notifier)
			if err != nil {
				logger.Warn("amqp consumer init failed", zap.Error(err))
			} else {
				defer consumer.Close()
				go func() {
					if err := consumer.Run(bgCtx); err != nil {
						logger.Error("amqp consumer stopped", zap.Error(err))
					}
				}()
			}
		}
	}

	if cfg.JWTSecret == "" {
		logger.Fatal("jwt secret not configured")
	}
	jwtSvc := service.NewJWTService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
	)
	auditSvc := service.NewAuditService(logger, auditRepo)
	verificationSvc := service.NewVerificationService(logger, userRepo, verificationRepo, emailSender, codeLimiter, jwtSvc, auditSvc, cfg.FrontendBaseURL)
	authSvc := service.NewAuthService(logger, userRepo, attemptRepo, verificationRepo, jwtSvc, denylist, verificationSvc, auditSvc)
	userSvc := service.NewUserService(logger, userRepo, projectRepo)
	projectSvc := service.NewProjectService(logger, projectRepo, logos, channels)
	roleSvc := service.NewProjectRoleService(logger, roleRepo, projectRepo)
	documentSvc := service.NewDocumentService(documentRepo)
	participationSvc := service.NewParticipationService(logger, participationRepo, roleRepo, userRepo, publisher)
	boardSvc := service.NewBoardService(boardRepo)
	taskSvc := service.NewTaskService(taskRepo, boardRepo, accessRepo)
	profileSvc := service.NewProfileService(educationRepo, socialRepo, skillRepo)

	hygieneSvc := service.NewHygieneService(logger, hygieneRepo)
	if err := hygieneSvc.Start(); err != nil {
		logger.Fatal("hygiene scheduler", zap.Error(err))
	}

	var google apihttp.GoogleOAuth
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		google = oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}

	router := apihttp.NewRouter(logger, apihttp.RouterConfig{
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins(),
		AuthRate:       rate.Every(time.Minute / 20),
		AuthBurst:      20,
		Tokens:         authSvc,
		Verified:       userSvc,
		Guard:          apihttp.NewAccessGuard(logger, accessRepo),
	}, apihttp.Handlers{
		Auth:          apihttp.NewAuthHandler(logger, authSvc, google, apihttp.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure}),
		Users:         apihttp.NewUserHandler(logger, userSvc, verificationSvc),
		Projects:      apihttp.NewProjectHandler(logger, projectSvc, roleSvc, documentSvc),
		Participation: apihttp.NewParticipationHandler(logger, participationSvc),
		Boards:        apihttp.NewBoardHandler(logger, boardSvc, taskSvc),
		Profiles:      apihttp.NewProfileHandler(logger, profileSvc),
	})

	handler := apihttp.CSRFProtect(logger, apihttp.CSRFConfig{
		Secret:         cfg.CSRFSecret,
		Secure:         cfg.CSRFSecure,
		Plaintext:      cfg.CSRFPlaintext,
		Domain:         cfg.CookieDomain,
		TrustedOrigins: cfg.AllowedOrigins(),
	}, router)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful server shutdown failed", zap.Error(err))
		_ = server.Close()
	}
	hygieneSvc.Stop(shutdownCtx)
	stopBackground()
	if shutdownTracer != nil {
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
}
