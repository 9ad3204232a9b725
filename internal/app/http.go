package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/akovalyov/go-taskboard/internal/config"
	"github.com/akovalyov/go-taskboard/internal/delivery/http/v1"
	"github.com/akovalyov/go-taskboard/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server with a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router gin.IRouter) {
	jwtCfg := config.Global().JWT
	authService := services.NewAuthService(
		globalLogger,
		globalPostgresPool,
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
		jwtCfg.RefreshTokenTTL,
	)
	sessionService := services.NewSessionService(globalLogger, globalPostgresPool)
	taskService := services.NewTaskService(globalLogger, globalPostgresPool)

	handler := v1.New(globalLogger, authService, sessionService, taskService)

	api := router.Group("/api")

	authRouter := api.Group("/auth")
	authRouter.POST("/login", handler.HandleLogin)
	authRouter.POST("/refresh", handler.HandleRefresh)
	authRouter.POST("/register", handler.HandleRegister)
	authRouter.POST("/logout", handler.HandleAuthMiddleware, handler.HandleLogout)
	authRouter.POST("/password", handler.HandleAuthMiddleware, handler.HandleUpdatePassword)

	protected := api.Group("", handler.HandleAuthMiddleware)
	protected.GET("/tasks", handler.HandleListTasks)
	protected.POST("/tasks", handler.HandleCreateTask)
	protected.PUT("/tasks/:id", handler.HandleUpdateTask)
	protected.DELETE("/tasks/:id", handler.HandleDeleteTask)
	protected.POST("/mark_complete/:id", handler.HandleMarkComplete)
	protected.POST("/reorder_tasks", handler.HandleReorderTasks)
	protected.POST("/update_time/:id", handler.HandleUpdateTime)
	protected.POST("/update_notes/:id", handler.HandleUpdateNotes)
	protected.POST("/update_progress/:id", handler.HandleUpdateProgress)
	protected.GET("/dashboard", handler.HandleDashboard)

	router.GET("/export_tasks", handler.HandleAuthMiddleware, handler.HandleExportTasks)
}
