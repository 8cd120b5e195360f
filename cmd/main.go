package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"voicedesk/internal/infrastructure"
	httpiface "voicedesk/internal/interfaces/http"
	"voicedesk/internal/repository"
	"voicedesk/internal/usecases"
)

func main() {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := infrastructure.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("configuration invalid")
	}

	pgClient, err := infrastructure.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("database unavailable")
	}
	defer pgClient.Close()

	// Repositories
	tenantRepo := repository.NewTenantRepository(pgClient.Pool)
	callRepo := repository.NewCallRepository(pgClient.Pool)
	usageRepo := repository.NewUsageRepository(pgClient.Pool)
	userRepo := repository.NewUserRepository(pgClient.Pool)

	// Auth
	authUsecase := usecases.NewAuthUsecase(userRepo, cfg.JWTSecret)
	if adminUser := os.Getenv("ADMIN_USERNAME"); adminUser != "" {
		if err := authUsecase.EnsureAdmin(adminUser, os.Getenv("ADMIN_PASSWORD")); err != nil {
			logger.Warn().Err(err).Msg("admin bootstrap failed")
		}
	}

	// Call pipeline collaborators
	configCache := infrastructure.NewTenantConfigCache(tenantRepo, cfg.TenantCacheTTL, logger)
	transcriber := infrastructure.NewWhisperTranscriber(cfg.STTBaseURL, cfg.STTAPIKey, logger)
	synthesizer := infrastructure.NewSpeechSynthesizer(cfg.TTSBaseURL, cfg.TTSAPIKey, cfg.AudioDir, cfg.PublicBaseURL, logger)
	aiClient := infrastructure.NewAIServiceClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AITimeout, logger)
	notifier := infrastructure.NewTelegramNotifier(cfg.TelegramToken, logger)
	humanizer := usecases.NewHumanizer(rand.New(rand.NewSource(time.Now().UnixNano())))

	callService := usecases.NewCallService(usecases.CallServiceDeps{
		Configs:      configCache,
		Transcriber:  transcriber,
		Synthesizer:  synthesizer,
		AI:           aiClient,
		Calls:        callRepo,
		Usage:        usageRepo,
		Humanizer:    humanizer,
		Notifier:     notifier,
		RecordAction: "/voice/recording",
		Logger:       logger,
	})

	// One turn per caller per two seconds, small burst for gateway retries
	callLimiter := infrastructure.NewCallRateLimiter(rate.Every(2*time.Second), 3)

	authMiddleware := httpiface.NewMiddleware(cfg.JWTSecret)
	voiceHandler := httpiface.NewVoiceHandler(callService, callLimiter, logger)
	dashboardHandler := httpiface.NewDashboardHandler(
		authUsecase, tenantRepo, callRepo, usageRepo, userRepo, configCache, logger)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	httpiface.SetupRoutes(r, authMiddleware, dashboardHandler, voiceHandler, cfg.AudioDir)

	logger.Info().Str("addr", cfg.ListenAddr).Msg("voicedesk listening")
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal().Err(err).Msg("http server stopped")
	}
}
