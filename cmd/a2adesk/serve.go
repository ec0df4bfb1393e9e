package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a2adesk/a2adesk/internal/a2a"
	"github.com/a2adesk/a2adesk/internal/chat"
	"github.com/a2adesk/a2adesk/internal/common/constants"
	"github.com/a2adesk/a2adesk/internal/common/httpmw"
	"github.com/a2adesk/a2adesk/internal/common/logger"
	"github.com/a2adesk/a2adesk/internal/common/tracing"
	"github.com/a2adesk/a2adesk/internal/events"
	gatewayws "github.com/a2adesk/a2adesk/internal/gateway/websocket"
	"github.com/a2adesk/a2adesk/internal/mcpserver"
	settingshandlers "github.com/a2adesk/a2adesk/internal/settings/handlers"
	apiv1 "github.com/a2adesk/a2adesk/pkg/api/v1"
)

const httpServerName = "a2adesk-api"

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting a2adesk...")

	var cleanups []func() error
	runCleanups := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				log.Warn("cleanup failed", zap.Error(err))
			}
		}
	}
	defer runCleanups()

	provided, busCleanup, err := events.Provide(cfg.NATS, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, busCleanup)

	settingsSvc, dbCleanup, err := openSettings(ctx, cfg, provided.Bus, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, dbCleanup)

	gateway := gatewayws.NewGateway(log)
	svc := newBackends(cfg, settingsSvc, gatewayws.NewStreamSink(gateway.Hub, log), log)
	limiter := httpmw.NewRateLimiter(cfg.Chat.RateLimitRPM, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gateway.Hub.Run(gctx)
		return nil
	})
	if limiter.Enabled() {
		g.Go(func() error { return limiter.Run(gctx) })
	}

	broadcaster, err := gatewayws.RegisterSettingsNotifications(gctx, provided.Bus, gateway.Hub, log)
	if err != nil {
		stop()
		_ = g.Wait()
		return fmt.Errorf("failed to subscribe to settings events: %w", err)
	}
	cleanups = append(cleanups, func() error {
		broadcaster.Close()
		return nil
	})

	router := newRouter(gateway, svc, limiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	var mcpSrv *mcpserver.Server
	if cfg.MCP.Enabled {
		mcpSrv = mcpserver.New(mcpserver.Config{Port: cfg.MCP.Port}, svc.mcpServices(), log)
		if err := mcpSrv.Start(gctx); err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("failed to start MCP server: %w", err)
		}
		log.Info("MCP server started",
			zap.String("sse", mcpSrv.SSEEndpoint()),
			zap.String("streamable_http", mcpSrv.StreamableHTTPEndpoint()))
	}

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down a2adesk...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		if mcpSrv != nil {
			if err := mcpSrv.Stop(shutdownCtx); err != nil {
				log.Error("MCP server shutdown error", zap.Error(err))
			}
		}
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown error", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		return err
	}
	log.Info("a2adesk stopped")
	return nil
}

func newRouter(gateway *gatewayws.Gateway, svc *backends, limiter *httpmw.RateLimiter, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(httpmw.RequestLogger(log, httpServerName))
	router.Use(httpmw.OtelTracing(httpServerName))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, apiv1.OK(gin.H{"status": "ok", "service": "a2adesk"}))
	})

	settingshandlers.RegisterRoutes(router, gateway.Dispatcher, svc.settings, svc.agents, log)
	a2a.RegisterRoutes(router, gateway.Dispatcher, svc.agents, log)
	chat.RegisterRoutes(router, gateway.Dispatcher, svc.chat, limiter, log)
	gateway.SetupRoutes(router)
	return router
}
