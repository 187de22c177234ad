package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"whatsapp-console/internal/api"
	"whatsapp-console/internal/config"
	"whatsapp-console/internal/localstore"
	"whatsapp-console/internal/logging"
	"whatsapp-console/internal/store"
	"whatsapp-console/internal/upstream"
	"whatsapp-console/internal/ws"
)

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func main() {
	cfg := config.LoadConfig()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer log.Sync()

	local, err := localstore.Open(cfg)
	if err != nil {
		log.Fatal("opening local store failed", zap.Error(err))
	}

	client := upstream.NewClient(cfg.UpstreamBaseURL, local, log)

	hub := ws.NewHub(log)
	go hub.Run()

	st := store.New(client, hub, log)

	authHandler := api.NewAuthHandler(st)
	deviceHandler := api.NewDeviceHandler(st, client, cfg, log)
	messageHandler := api.NewMessageHandler(st)
	botHandler := api.NewBotHandler(st)
	groupHandler := &api.GroupHandler{Store: st}
	planHandler := &api.PlanHandler{Store: st, Client: client, Local: local, Config: cfg, Log: log}
	dashboardHandler := &api.DashboardHandler{Store: st}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	apiGroup := r.Group("/api")
	{
		// Auth Routes
		apiGroup.POST("/auth/login", authHandler.Login)
		apiGroup.POST("/auth/verify-otp", authHandler.VerifyOTP)
		apiGroup.POST("/auth/register", authHandler.Register)
		apiGroup.POST("/auth/logout", authHandler.Logout)
		apiGroup.GET("/auth/session", authHandler.Session)
		apiGroup.GET("/profile", authHandler.Profile)
		apiGroup.PUT("/profile", authHandler.UpdateProfile)

		// Dashboard
		apiGroup.GET("/dashboard/stats", dashboardHandler.Stats)

		// Device Routes
		apiGroup.GET("/devices", deviceHandler.List)
		apiGroup.POST("/devices", deviceHandler.Add)
		apiGroup.GET("/devices/:id/status", deviceHandler.Status)
		apiGroup.POST("/devices/:id/qr/retry", deviceHandler.RetryQR)
		apiGroup.DELETE("/devices/:id", deviceHandler.Remove)

		// Message Routes
		apiGroup.GET("/messages", messageHandler.List)
		apiGroup.POST("/messages/send", messageHandler.Send)
		apiGroup.POST("/messages/bulk", messageHandler.SendBulk)

		// Bot Routes
		apiGroup.GET("/bot/devices/:deviceId/responses", botHandler.ListResponses)
		apiGroup.DELETE("/bot/responses/:id", botHandler.DeleteResponse)
		apiGroup.GET("/bot/templates", botHandler.Templates)
		apiGroup.POST("/bot/devices/:deviceId/test", botHandler.Test)

		// Wizard Routes
		apiGroup.POST("/bot/wizard", botHandler.StartWizard)
		apiGroup.GET("/bot/wizard/:sid", botHandler.WizardState)
		apiGroup.PUT("/bot/wizard/:sid/basic-info", botHandler.WizardBasicInfo)
		apiGroup.PUT("/bot/wizard/:sid/trigger", botHandler.WizardTrigger)
		apiGroup.PUT("/bot/wizard/:sid/response-type", botHandler.WizardResponseType)
		apiGroup.PUT("/bot/wizard/:sid/response-data", botHandler.WizardResponseData)
		apiGroup.POST("/bot/wizard/:sid/builder", botHandler.WizardBuilder)
		apiGroup.POST("/bot/wizard/:sid/next", botHandler.WizardNext)
		apiGroup.POST("/bot/wizard/:sid/previous", botHandler.WizardPrevious)
		apiGroup.POST("/bot/wizard/:sid/save", botHandler.WizardSave)
		apiGroup.DELETE("/bot/wizard/:sid", botHandler.WizardCancel)

		// Group Routes
		apiGroup.GET("/groups/devices/:deviceId/available", groupHandler.Available)
		apiGroup.POST("/groups/select", groupHandler.Select)
		apiGroup.GET("/groups", groupHandler.List)
		apiGroup.PUT("/groups/:groupId", groupHandler.Update)
		apiGroup.DELETE("/groups/:groupId", groupHandler.Remove)
		apiGroup.GET("/groups/:groupId/messages", groupHandler.Messages)
		apiGroup.POST("/groups/:groupId/send", groupHandler.Send)
		apiGroup.POST("/groups/:groupId/broadcast", groupHandler.Broadcast)

		// Plan & Payment Routes
		apiGroup.GET("/plans", planHandler.Plans)
		apiGroup.POST("/plans/subscribe", planHandler.Subscribe)
		apiGroup.GET("/payment", planHandler.Payment)
		apiGroup.POST("/payment/reset", planHandler.Reset)
		apiGroup.GET("/receipts", planHandler.Receipts)
	}

	// pick an interrupted purchase back up before serving traffic
	resumeCtx, cancelResume := context.WithTimeout(context.Background(), 15*time.Second)
	planHandler.ResumePending(resumeCtx)
	cancelResume()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("console server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	deviceHandler.Shutdown()
	planHandler.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
