package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/hikiquest/server/api/rest"
	"github.com/kasuganosora/hikiquest/server/api/sse"
	"github.com/kasuganosora/hikiquest/server/audit"
	"github.com/kasuganosora/hikiquest/server/cache"
	"github.com/kasuganosora/hikiquest/server/config"
	dbadapter "github.com/kasuganosora/hikiquest/server/db"
	"github.com/kasuganosora/hikiquest/server/intake"
	"github.com/kasuganosora/hikiquest/server/metrics"
	mw "github.com/kasuganosora/hikiquest/server/middleware"
	"github.com/kasuganosora/hikiquest/server/model"
	"github.com/kasuganosora/hikiquest/server/narrative"
	"github.com/kasuganosora/hikiquest/server/plugin/hook"
	"github.com/kasuganosora/hikiquest/server/quest"
	"github.com/kasuganosora/hikiquest/server/scheduler"
	"github.com/kasuganosora/hikiquest/server/store"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Scheduler / Metrics / Hooks ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	m := metrics.New()
	hooks := hook.NewHookCenter()
	sse.RegisterHooks(hooks, pubsub, logger)

	// ---- Narrative ----
	client := narrative.New(cfg.Narrative, m, logger)
	var narrator quest.Narrator
	var feedback intake.Feedbacker
	var health apirest.HealthReporter
	if client.Enabled() {
		narrator, feedback, health = client, client, client
		sched.AddTickerNow("narrative_probe", cfg.Narrative.ProbeInterval, func(ctx context.Context) {
			_ = client.Probe(ctx)
		})
		logger.Info("narrative enabled", zap.String("model", cfg.Narrative.Model))
	} else {
		logger.Info("narrative disabled; using local quest templates")
	}

	// ---- Services ----
	profiles := store.NewProfileStore(db)
	sets := store.NewQuestSetStore(db)
	questSvc := quest.NewService(quest.Options{
		Profiles: profiles,
		Sets:     sets,
		Narrator: narrator,
		Timeout:  cfg.Narrative.Timeout,
		Locker:   c,
		Hooks:    hooks,
		Audit:    auditSvc,
		Metrics:  m,
		Logger:   logger,
	})
	intakeSvc := intake.NewService(intake.Options{
		Cache:    c,
		Saver:    questSvc,
		Feedback: feedback,
		TTL:      cfg.Intake.SessionTTL,
		Audit:    auditSvc,
		Metrics:  m,
		Logger:   logger,
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst, mw.ByIP))

	healthH := apirest.NewHealthHandler(db, health)
	r.GET("/health", healthH.Health)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	authH := apirest.NewAuthHandler(db, c, cfg.Security, auditSvc, logger)
	profileH := apirest.NewProfileHandler(questSvc)
	questH := apirest.NewQuestHandler(questSvc)
	intakeH := apirest.NewIntakeHandler(intakeSvc)
	adminH := apirest.NewAdminHandler(apirest.AdminDeps{
		DB:        db,
		Profiles:  profiles,
		Sets:      sets,
		Narrator:  health,
		Scheduler: sched,
		Cache:     c,
		Audit:     auditSvc,
		Logger:    logger,
	})
	sseH := sse.NewHandler(pubsub, c, logger)

	auth := mw.Auth(cfg.Security, c)
	// Generation may call the narrator, so it gets a tighter per-account budget.
	generateLimit := mw.RateLimit(ctx, rate.Every(10*time.Second), 3, mw.ByAccount)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", auth, authH.Logout)
		authG.POST("/refresh", auth, authH.Refresh)

		intakeG := api.Group("/intake", auth)
		intakeG.GET("/questions", intakeH.Questions)
		intakeG.GET("", intakeH.Current)
		intakeG.POST("/start", intakeH.Start)
		intakeG.POST("/answer", intakeH.Answer)

		profileG := api.Group("/profile", auth)
		profileG.GET("", profileH.Get)
		profileG.PUT("", profileH.Put)
		profileG.GET("/stage", profileH.Stage)

		questG := api.Group("/quests", auth)
		questG.POST("/generate", generateLimit, questH.Generate)
		questG.GET("/latest", questH.Latest)
		questG.GET("/status", questH.Status)
		questG.GET("/history", questH.History)
		questG.POST("/:quest_id/complete", questH.Complete)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Security.AdminIPs), mw.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/accounts/:id/ban", adminH.BanAccount)
		adminG.GET("/accounts/:id/audit", adminH.AccountAudit)
		adminG.GET("/scheduler", adminH.ListSchedulerTasks)
		adminG.POST("/announce", sseH.AnnounceHandler)
	}

	// ---- SSE ----
	r.GET("/sse", auth, sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}
