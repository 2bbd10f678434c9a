package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/waassist/connector/app/api/routes"
	"github.com/waassist/connector/pkg/config"
	"github.com/waassist/connector/pkg/database"
	"github.com/waassist/connector/pkg/domains/auth"
	"github.com/waassist/connector/pkg/domains/campaign"
	"github.com/waassist/connector/pkg/domains/connection"
	"github.com/waassist/connector/pkg/domains/lead"
	"github.com/waassist/connector/pkg/domains/organization"
	"github.com/waassist/connector/pkg/gateway"
	"github.com/waassist/connector/pkg/gateway/local"
	"github.com/waassist/connector/pkg/ledger"
	"github.com/waassist/connector/pkg/middleware"
	"github.com/waassist/connector/pkg/notify"
	"github.com/waassist/connector/pkg/utils"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func LaunchHttpServer(cfg *config.Config) {
	zap.L().Info("starting HTTP server")
	if cfg.Logger.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	utils.RegisterBindingValidations()

	app := gin.New()
	app.Use(gin.LoggerWithFormatter(func(log gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] - %s \"%s %s %s %d %s\"\n",
			log.TimeStamp.Format("2006-01-02 15:04:05"),
			log.ClientIP,
			log.Method,
			log.Path,
			log.Request.Proto,
			log.StatusCode,
			log.Latency,
		)
	}))
	app.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	app.Use(gin.Recovery())
	app.Use(otelgin.Middleware(cfg.App.Name))
	app.Use(middleware.ClaimIp())
	app.Use(cors.New(corsConfig(cfg.Allows)))

	p := ginprom.New(
		ginprom.Engine(app),
		ginprom.Subsystem("gin"),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/docs/*any"),
	)
	app.Use(p.Instrument())

	db := database.DBClient()
	api := app.Group("/api/v1")

	// Gateway registry, one cached client per organization
	org_repo := organization.NewRepo(db)
	registry := gateway.NewRegistry(org_repo, gatewayFactory(cfg.Gateway))
	defer registry.Close()

	sent_ledger, err := ledger.Open(cfg.Ledger)
	if err != nil {
		zap.L().Fatal("failed to open sent message ledger", zap.String("driver", cfg.Ledger.Driver), zap.Error(err))
	}
	defer sent_ledger.Close()

	var publisher notify.Publisher = notify.NopPublisher{}
	var bus *notify.Bus
	if cfg.Nats.URL != "" {
		bus, err = notify.Connect(cfg.Nats.URL, cfg.App.Name, cfg.Nats.ChangedSubject)
		if err != nil {
			zap.L().Fatal("failed to connect to NATS", zap.String("url", cfg.Nats.URL), zap.Error(err))
		}
		defer bus.Close()
		publisher = bus
	}

	// Auth Routes
	auth_repo := auth.NewRepo(db)
	auth_service := auth.NewService(auth_repo)
	routes.AuthRoutes(api.Group("/auth"), auth_service)

	// Organization Routes
	org_service := organization.NewService(org_repo, registry)
	routes.OrganizationRoutes(api.Group("/organization"), org_service)

	// WhatsApp Routes
	connection_repo := connection.NewRepo(db)
	connection_service := connection.NewService(
		connection_repo,
		registry,
		notify.NewWebhook(cfg.Webhook.ConnectionURL, cfg.Webhook.Timeout),
		publisher,
	)
	routes.WhatsAppRoutes(api.Group("/whatsapp"), connection_service, registry)

	// Lead Routes
	lead_repo := lead.NewRepo(db)
	lead_service := lead.NewService(lead_repo, cfg.Webhook.LeadsURL, cfg.Webhook.Timeout)
	routes.LeadRoutes(api.Group("/leads"), lead_service)

	// Campaign Routes
	campaign_service := campaign.NewService(registry, sent_ledger, lead_service, cfg.Campaign.SendDelay)
	routes.CampaignRoutes(api.Group("/campaigns"), campaign_service)

	sweeper, err := connection.NewSweeper(connection_service, connection_repo, cfg.Reconcile)
	if err != nil {
		zap.L().Fatal("failed to create reconcile sweeper", zap.Error(err))
	}
	if err := sweeper.Start(); err != nil {
		zap.L().Fatal("failed to schedule reconcile sweep", zap.String("schedule", cfg.Reconcile.Schedule), zap.Error(err))
	}
	defer sweeper.Stop()
	routes.AdminRoutes(api.Group("/admin"), sweeper)

	if bus != nil {
		sub, err := connection.Listen(bus.Conn(), cfg.Nats.RefreshSubject, connection_service)
		if err != nil {
			zap.L().Fatal("failed to subscribe to refresh requests", zap.String("subject", cfg.Nats.RefreshSubject), zap.Error(err))
		}
		defer sub.Unsubscribe()
	}

	serve(app, net.JoinHostPort(cfg.App.Host, cfg.App.Port))
}

// serve runs until SIGINT or SIGTERM, then drains in-flight requests.
func serve(handler http.Handler, addr string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server is running", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("server failed", zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	zap.L().Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("graceful shutdown failed", zap.Error(err))
	}
}

func gatewayFactory(cfg config.Gateway) gateway.Factory {
	if cfg.Driver == "local" {
		return local.Factory(cfg)
	}
	return gateway.RemoteFactory(cfg)
}

func corsConfig(allows config.Allows) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With", "Origin", "Accept"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(allows.Methods) > 0 {
		c.AllowMethods = allows.Methods
	}
	if len(allows.Headers) > 0 {
		c.AllowHeaders = allows.Headers
	}
	if len(allows.Origins) > 0 {
		c.AllowOrigins = allows.Origins
	}
	return c
}
