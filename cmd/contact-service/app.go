package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"pentamaths/internal/config"
	"pentamaths/internal/constants"
	"pentamaths/internal/contact"
	"pentamaths/internal/logger"
	"pentamaths/internal/mailer"
	"pentamaths/internal/risk"
	"pentamaths/pkg/circuitbreaker"
	"pentamaths/pkg/health"
	"pentamaths/pkg/metrics"
	"pentamaths/pkg/middleware"
	"pentamaths/pkg/ratelimit"
	"pentamaths/pkg/tracing"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	dispatcher     *mailer.Dispatcher
	service        *contact.Service
	router         *gin.Engine
	server         *http.Server
	tracerProvider *tracing.TracerProvider
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config: cfg,
		logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.config.Tracing, a.config.Tracing.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterContactMetrics()
	if a.config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.initService(ctx); err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}

	if err := a.initRouter(ctx); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	return nil
}

func (a *App) initService(ctx context.Context) error {
	filter, err := contact.NewFilter(a.config.Contact, a.logger)
	if err != nil {
		return fmt.Errorf("failed to compile spam rules: %w", err)
	}

	var assessorOpts []risk.Option
	var mailerOpts []mailer.Option
	if a.config.CircuitBreaker.Enabled {
		assessorOpts = append(assessorOpts, risk.WithCircuitBreaker(
			circuitbreaker.NewWrapper(circuitbreaker.FromConfig("recaptcha", a.config.CircuitBreaker)),
		))
		mailerOpts = append(mailerOpts, mailer.WithCircuitBreaker(a.config.CircuitBreaker))
	}

	assessor := risk.NewAssessor(a.config.Recaptcha, a.logger, assessorOpts...)

	dispatcher, err := mailer.NewDispatcher(a.config.Mail, a.config.Brand, a.logger, mailerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create mail dispatcher: %w", err)
	}
	if p := dispatcher.Provider(); p != nil {
		a.logger.InfowCtx(ctx, "Email provider configured", "provider", p.Name())
	} else {
		a.logger.WarnwCtx(ctx, "No email service configured, enquiries will not be delivered")
	}
	a.dispatcher = dispatcher

	a.service = contact.NewService(filter, assessor, dispatcher, a.config.Recaptcha, a.logger)
	return nil
}

func (a *App) initRouter(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if err := router.SetTrustedProxies(a.config.Server.TrustedProxies); err != nil {
		return fmt.Errorf("invalid trusted proxies: %w", err)
	}

	if a.config.Tracing.Enabled {
		router.Use(tracing.GinMiddleware(a.config.Tracing.ServiceName))
	}

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ServiceNameMiddleware(constants.ServiceName))
	router.Use(middleware.LoggerMiddleware(a.logger))

	var submitMiddlewares []gin.HandlerFunc
	if rl := a.config.Contact.RateLimit; rl.Enabled {
		metrics.RegisterRateLimitMetrics()
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             rl.RPS,
			Burst:           rl.Burst,
			CleanupInterval: rl.CleanupInterval,
			MaxAge:          rl.MaxAge,
		}
		submitMiddlewares = append(submitMiddlewares, ratelimit.RateLimitMiddleware(ctx, rateLimitConfig))
		a.logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	handler := contact.NewHandler(a.service, a.config.Contact, a.config.Recaptcha, a.logger)
	handler.RegisterRoutes(router, submitMiddlewares...)

	healthRegistry := health.NewCheckerRegistry()
	if smtpProvider := a.smtpProvider(); smtpProvider != nil {
		healthRegistry.RegisterOptional(health.NewPingChecker(constants.ProviderSMTP, smtpProvider))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.router = router
	return nil
}

// smtpProvider returns the SMTP relay behind the dispatcher, if that is what
// is in use. SendGrid has no cheap liveness probe.
func (a *App) smtpProvider() *mailer.SMTPProvider {
	smtpProvider, _ := mailer.Underlying(a.dispatcher.Provider()).(*mailer.SMTPProvider)
	return smtpProvider
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "HTTP server starting", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down contact service")

	shutdownCtx, cancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
