package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aman-churiwal/image-relay/internal/circuitbreaker"
	"github.com/aman-churiwal/image-relay/internal/config"
	"github.com/aman-churiwal/image-relay/internal/generation"
	"github.com/aman-churiwal/image-relay/internal/handler"
	"github.com/aman-churiwal/image-relay/internal/logging"
	"github.com/aman-churiwal/image-relay/internal/metrics"
	"github.com/aman-churiwal/image-relay/internal/server"
	"github.com/aman-churiwal/image-relay/internal/service"
	"github.com/aman-churiwal/image-relay/internal/upload"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	// Load env if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("relay exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("server exited")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Warn("failed to close store", zap.Error(err))
		}
	}()

	quota, err := service.NewQuotaService(st.quota,
		service.WithQuotaPolicy(service.QuotaPolicy{DailyLimit: cfg.QuotaDailyLimit, Window: cfg.QuotaWindow}),
		service.WithRetention(cfg.EffectiveRetention()),
		service.WithQuotaLogger(logger.Named("quota")),
		service.WithQuotaMetrics(m),
	)
	if err != nil {
		return err
	}

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:        "generation-backend",
		MaxFailures: cfg.CircuitMaxFailures,
		Timeout:     cfg.CircuitTimeout,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			m.SetCircuitState(int(to))
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	params := generation.DefaultParams()
	params.ModelType = cfg.ModelType
	params.StatusUUID = cfg.StatusUUID

	client, err := generation.NewClient(generation.Config{
		BackendURLs:       cfg.BackendURLs(),
		Selector:          cfg.BackendSelector,
		Cookie:            cfg.Cookies,
		ImageHostURL:      cfg.ImageHostURL,
		Params:            params,
		BackendTimeout:    cfg.BackendTimeout,
		FetchTimeout:      cfg.FetchTimeout,
		RequestsPerSecond: cfg.BackendRPS,
		Breaker:           breaker,
	})
	if err != nil {
		return err
	}

	uploader, err := upload.New(ctx, upload.Config{
		Provider:        cfg.UploadProvider,
		Bucket:          cfg.StorageBucket,
		CredentialsJSON: cfg.ServiceAccountKey,
		ImgBBAPIKey:     cfg.ImgBBAPIKey,
		ImgBBEndpoint:   cfg.ImgBBEndpoint,
		Timeout:         cfg.UploadTimeout,
	})
	if err != nil {
		return err
	}
	if closer, ok := uploader.(io.Closer); ok {
		defer closer.Close()
	}

	genOpts := []service.GenerationOption{
		service.WithGenerationLogger(logger.Named("generation")),
		service.WithGenerationMetrics(m),
	}

	var (
		generationLog *service.GenerationLogService
		history       handler.GenerationHistory
	)
	if st.generationLog != nil {
		generationLog, err = service.NewGenerationLogService(st.generationLog,
			service.WithGenerationLogLogger(logger.Named("generation_log")),
		)
		if err != nil {
			return err
		}
		history = generationLog
		genOpts = append(genOpts, service.WithRecorder(generationLog))
	}

	orchestrator, err := service.NewGenerationService(client, uploader, genOpts...)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Quota:        quota,
		Orchestrator: orchestrator,
		History:      history,
		Breakers:     []*circuitbreaker.CircuitBreaker{breaker},
		Metrics:      m,
		Gatherer:     reg,
		Logger:       logger,
	}

	if cfg.AdminEnabled() {
		deps.AdminAuth, err = service.NewAdminAuthService(cfg.AdminUsername, cfg.AdminPasswordHash, cfg.AdminJWTSecret, cfg.AdminJWTExpiryHours)
		if err != nil {
			return err
		}
	}

	srv := server.New(cfg, deps)

	var logWriter func(context.Context) error
	if generationLog != nil {
		logWriter = generationLog.Run
	}

	return runLifecycle(ctx, logger, lifecycle{
		server: srv,
		addr:   ":" + cfg.Port,
		// In-flight generations are allowed to finish before the process exits.
		drainTimeout: service.DefaultGenerationTimeout + 10*time.Second,
		logWriter:    logWriter,
		workers: []func(context.Context) error{
			func(ctx context.Context) error {
				return quota.RunSweeper(ctx, cfg.QuotaSweepInterval)
			},
		},
	})
}
