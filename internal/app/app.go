// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/account"
	"github.com/garyellow/medreminder-linebot-go/internal/backup"
	"github.com/garyellow/medreminder-linebot-go/internal/binding"
	"github.com/garyellow/medreminder-linebot-go/internal/bot"
	"github.com/garyellow/medreminder-linebot-go/internal/buildinfo"
	"github.com/garyellow/medreminder-linebot-go/internal/config"
	"github.com/garyellow/medreminder-linebot-go/internal/ctxutil"
	"github.com/garyellow/medreminder-linebot-go/internal/delivery"
	"github.com/garyellow/medreminder-linebot-go/internal/jobs"
	"github.com/garyellow/medreminder-linebot-go/internal/lineutil"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	accountmodule "github.com/garyellow/medreminder-linebot-go/internal/modules/account"
	"github.com/garyellow/medreminder-linebot-go/internal/modules/menu"
	"github.com/garyellow/medreminder-linebot-go/internal/modules/record"
	"github.com/garyellow/medreminder-linebot-go/internal/modules/reminder"
	"github.com/garyellow/medreminder-linebot-go/internal/ratelimit"
	"github.com/garyellow/medreminder-linebot-go/internal/sentry"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/garyellow/medreminder-linebot-go/internal/webhook"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "medreminder-linebot-go"

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg            *config.Config
	logger         *logger.Logger
	store          storage.Store
	metrics        *metrics.Metrics
	registry       *prometheus.Registry
	delivery       *delivery.Adapter
	webhookHandler *webhook.Handler
	scheduler      *jobs.Scheduler
	backup         *backup.Manager
	router         *gin.Engine
	server         *http.Server
	loc            *time.Location
	startedAt      time.Time
}

// Initialize creates and initializes a new application with all dependencies.
// A store that fails to open does not abort startup: the bot keeps
// answering with the store-unavailable reply and /readyz reports 503.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})

	log = log.WithField("service", serviceName)
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// ContextHandler picks user/chat/request ids out of package-level
	// slog.*Context calls too.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.Version).Info("Initializing application...")

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed; error reporting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.WithError(err).Warnf("Unknown timezone %q; using Asia/Taipei", cfg.Timezone)
		loc = lineutil.GetTaipeiLocation()
	}

	var backupMgr *backup.Manager
	if cfg.StoreDriver == config.StoreDriverSQLite && cfg.Backup.Enabled() {
		backupMgr, err = initBackup(ctx, cfg, log)
		if err != nil {
			log.WithError(err).Warn("Backup disabled")
		}
	}

	store, err := storage.Open(ctx, cfg, m)
	if err != nil {
		log.WithError(err).WithField("driver", cfg.StoreDriver).Error("Store unavailable; serving degraded replies")
		sentry.CaptureError(ctx, err, map[string]string{"component": "store"})
		store = storage.NewUnavailable(cfg.StoreDriver, err)
	} else {
		log.WithField("driver", store.Driver()).Info("Store connected")
	}

	client, err := messaging_api.NewMessagingApiAPI(cfg.LineChannelToken)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("messaging API client: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	app := newApplication(cfg, log, store, m, registry, client, loc)
	app.backup = backupMgr

	if err := app.initJobs(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("jobs: %w", err)
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.WebhookHTTPRead,
		ReadTimeout:       config.WebhookHTTPRead,
		WriteTimeout:      config.WebhookHTTPWrite,
		IdleTimeout:       config.WebhookHTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// initBackup creates the backup manager and restores the database when the
// local file is missing.
func initBackup(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backup.Manager, error) {
	client, err := backup.NewClient(ctx, backup.Config{
		Endpoint:    cfg.Backup.Endpoint,
		AccessKeyID: cfg.Backup.AccessKeyID,
		SecretKey:   cfg.Backup.SecretAccessKey,
		Bucket:      cfg.Backup.Bucket,
	})
	if err != nil {
		return nil, err
	}
	mgr := backup.NewManager(client, cfg.Backup.Key, "", log)

	restoreCtx, cancel := context.WithTimeout(ctx, config.BackupTimeout)
	defer cancel()
	if _, err := mgr.RestoreIfMissing(restoreCtx, cfg.SQLitePath); err != nil {
		// Keep the manager: a later upload still protects new data.
		log.WithError(err).Warn("Backup restore failed; starting with a fresh database")
	}
	return mgr, nil
}

// newApplication wires the bot around an already opened store and client.
func newApplication(
	cfg *config.Config,
	log *logger.Logger,
	store storage.Store,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	client delivery.Client,
	loc *time.Location,
) *Application {
	limiter := ratelimit.New("global", cfg.Bot.GlobalRateRPS, m)
	adapter := delivery.NewAdapter(client, limiter, m, log)

	resolver := account.NewResolver(store, m)

	botRegistry := bot.NewRegistry()
	botRegistry.Register(menu.NewHandler())
	botRegistry.Register(reminder.NewHandler(resolver, store, log))
	botRegistry.Register(record.NewHandler(resolver, store, m, log, loc, cfg.Bot.MaxRecordsShown))
	botRegistry.Register(accountmodule.NewHandler(resolver, store, log, loc))

	dispatcher := bot.NewDispatcher(bot.DispatcherConfig{
		Registry:  botRegistry,
		Bindings:  binding.NewStore(store, m, log),
		Logger:    log,
		Metrics:   m,
		BotConfig: cfg.Bot,
	})

	webhookHandler := webhook.NewHandler(cfg.LineChannelSecret, dispatcher, adapter, log,
		webhook.WithBotConfig(cfg.Bot),
		webhook.WithMetrics(m),
	)

	app := &Application{
		cfg:            cfg,
		logger:         log,
		store:          store,
		metrics:        m,
		registry:       registry,
		delivery:       adapter,
		webhookHandler: webhookHandler,
		loc:            loc,
		startedAt:      time.Now(),
	}
	app.router = app.newRouter()
	return app
}

func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/", a.root)
	router.GET("/health", a.health)
	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/env-check", a.envCheck)
	router.POST("/webhook", a.webhookHandler.Handle)
	router.POST("/send-reminder", bearerAuthMiddleware(a.cfg.SendReminderToken), a.sendReminder)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsPassword != "", a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	return router
}

func (a *Application) initJobs() error {
	s, err := jobs.New(a.loc, a.logger, a.metrics)
	if err != nil {
		return err
	}
	if !isUnavailable(a.store) {
		if err := s.AddBindingGauge(a.store, a.cfg.MetricsRefreshInterval); err != nil {
			return err
		}
	}
	if a.backup != nil {
		db, ok := a.store.(*storage.DB)
		if ok {
			if err := s.AddBackup(a.backup, db, a.cfg.Backup.Interval, config.BackupTimeout); err != nil {
				return err
			}
		}
	}
	a.scheduler = s
	return nil
}

func isUnavailable(store storage.Store) bool {
	_, ok := store.(*storage.Unavailable)
	return ok
}

// Run starts the HTTP server and background jobs, then blocks until
// SIGINT/SIGTERM and shuts down.
func (a *Application) Run() error {
	if a.scheduler != nil {
		a.scheduler.Start()
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server error")
		runErr = err
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops the scheduler, the HTTP server and in-flight webhook
// dispatches before closing the store, so no job or event sees a closed
// database.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.scheduler != nil {
		a.logger.Info("Stopping scheduler...")
		if err := a.scheduler.Shutdown(); err != nil {
			a.logger.WithError(err).Warn("Scheduler shutdown error")
		}
	}

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for webhook events to complete...")
	if err := a.webhookHandler.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Webhook handler shutdown timeout")
	}

	a.logger.Info("Closing resources...")
	if err := a.store.Close(); err != nil {
		a.logger.WithError(err).WithField("component", "store").Error("Component close error")
	}

	sentry.Flush(2 * time.Second)

	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
	if n := a.logger.RemoteDropped(); n > 0 {
		a.logger.Warnf("%d log records were not shipped to Better Stack", n)
	}

	a.logger.Infof("Shutdown complete after %s uptime", time.Since(a.startedAt).Round(time.Second))
	return nil
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests: 5xx at error, other 4xx at warn,
// everything else at debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = c.GetHeader("X-Correlation-Id")
		}
		if requestID != "" {
			c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), requestID))
		}

		c.Next()

		status := c.Writer.Status()
		entry := log.WithField("http_method", c.Request.Method).
			WithField("http_path", c.Request.URL.Path).
			WithField("http_status", status).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("client_ip", c.ClientIP())
		if requestID != "" {
			entry = entry.WithRequestID(requestID)
		}

		switch {
		case status >= 500:
			entry.Error("HTTP request failed")
		case status >= 400 && status != http.StatusNotFound:
			entry.Warn("HTTP request rejected")
		default:
			entry.Debug("HTTP request completed")
		}
	}
}
