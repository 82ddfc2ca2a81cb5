package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/andresouza701/lineops/internal/audit"
	"github.com/andresouza701/lineops/internal/config"
	"github.com/andresouza701/lineops/internal/database"
	httpapi "github.com/andresouza701/lineops/internal/http"
	"github.com/andresouza701/lineops/internal/logger"
	"github.com/andresouza701/lineops/internal/metrics"
	"github.com/andresouza701/lineops/internal/repository"
	"github.com/andresouza701/lineops/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "lineops")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 数据库是系统的单一事实来源，连不上直接退出
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// 审计事件：日志sink始终开启，Redis Stream / Webhook按配置追加
	sinks := []audit.Sink{audit.NewZapSink(log)}
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unreachable, audit stream sink disabled", zap.Error(err))
		} else {
			sinks = append(sinks, audit.NewStreamSink(redisClient, cfg.Redis.Stream))
			log.Info("audit stream sink enabled", zap.String("stream", cfg.Redis.Stream))
		}
	}
	if cfg.Audit.WebhookURL != "" {
		sinks = append(sinks, audit.NewWebhookSink(cfg.Audit.WebhookURL, log))
		log.Info("audit webhook sink enabled", zap.String("url", cfg.Audit.WebhookURL))
	}
	sink := audit.NewMultiSink(sinks...)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	employeesRepo := repository.NewPostgresEmployeesRepository(db)
	linesRepo := repository.NewPostgresLinesRepository(db)
	allocationsRepo := repository.NewPostgresAllocationsRepository(db, cfg.Database.LockTimeout)
	usersRepo := repository.NewPostgresUsersRepository(db)

	authorizer := service.NewRoleAuthorizer(usersRepo)
	allocationSvc := service.NewAllocationService(allocationsRepo, authorizer, sink, m, log)
	lineStatusSvc := service.NewLineStatusService(linesRepo, authorizer, log)
	employeeSvc := service.NewEmployeeService(employeesRepo, allocationsRepo, log)
	querySvc := service.NewQueryService(allocationsRepo, linesRepo)
	importSvc := service.NewImportService(employeesRepo, linesRepo, allocationSvc, log)

	router := httpapi.NewRouter(log)
	router.RegisterAllocationRoutes(httpapi.NewAllocationHandler(allocationSvc, log))
	router.RegisterEmployeeRoutes(httpapi.NewEmployeeHandler(employeeSvc, querySvc))
	router.RegisterLineRoutes(httpapi.NewLineHandler(linesRepo, lineStatusSvc, querySvc))
	router.RegisterImportRoutes(httpapi.NewImportHandler(importSvc, log))
	router.RegisterHealthRoutes()
	router.HandleHandler("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := service.NewServer(cfg.HTTP.Addr, router, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down lineops")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Error("failed to stop HTTP server gracefully", zap.Error(err))
	}
}
