package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hrcore/identity-service/internal/config"
	"github.com/hrcore/identity-service/internal/handler"
	"github.com/hrcore/identity-service/internal/idgen"
	"github.com/hrcore/identity-service/internal/repository"
	"github.com/hrcore/identity-service/internal/service"
	"github.com/hrcore/identity-service/internal/utils"
	"github.com/hrcore/identity-service/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

// NewApp wires the application together. The identity verifier is passed
// in because constructing one performs OIDC discovery against the
// provider; tests substitute a stub.
func NewApp(infra Infrastructure, cfg *config.Config, verifier service.IdentityVerifier) (*App, error) {
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.Token.Secret,
		cfg.Token.AccessTokenExpiry.Duration,
	)

	idGen, err := idgen.New(cfg.IDGen.NodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize id generator: %w", err)
	}

	directory := service.NewAccountDirectory(repos.Account, idGen, cfg.IDGen.MaxRetries, infra.Logger())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	authService := service.NewAuthService(
		repos.Account,
		repos.Token,
		directory,
		verifier,
		jwtManager,
		cfg.Token.RefreshTokenExpiry.Duration,
		infra.Logger(),
	)

	authHandler := handler.NewAuthHandler(authService)

	router := gin.Default()
	router.Use(otelgin.Middleware("identity-service"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, authHandler, authService, rateLimiter, healthChecker, infra.MetricsHandler(), infra.Logger())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
	logger *zap.Logger,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	rateLimit := handler.RateLimitMiddleware(
		rateLimiter,
		cfg.Security.RateLimitRequests,
		cfg.Security.RateLimitWindow.Duration,
		handler.IPBasedKey,
		logger,
	)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", rateLimit, authHandler.Login)
			auth.POST("/refresh", rateLimit, authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", handler.AuthMiddleware(authService), authHandler.GetMe)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
