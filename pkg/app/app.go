// Package app 负责应用初始化：配置、追踪、指标、存储与 HTTP 路由的组装.
package app

import (
	contextPkg "context"
	"fmt"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appcache "github.com/yeisme/blobvault/pkg/cache"
	"github.com/yeisme/blobvault/pkg/configs"
	"github.com/yeisme/blobvault/pkg/internal/jobs"
	"github.com/yeisme/blobvault/pkg/internal/router"
	"github.com/yeisme/blobvault/pkg/internal/storage"
	"github.com/yeisme/blobvault/pkg/log"
	"github.com/yeisme/blobvault/pkg/metrics"
	"github.com/yeisme/blobvault/pkg/middleware"
	"github.com/yeisme/blobvault/pkg/scheduler"
	"github.com/yeisme/blobvault/pkg/tracing"
)

type App struct {
	Engine *gin.Engine
	config *configs.AppConfig
}

func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 初始化追踪
	if err := tracing.InitTracer(config.Tracing); err != nil {
		fmt.Printf("Error initializing tracing: %v\n", err)
		os.Exit(1)
	}

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(config.Server),
		// 已压缩的二进制内容收益有限，但列表与统计的 JSON 响应值得压
		gzip.Gzip(gzip.DefaultCompression),
		middleware.GinLoggerMiddleware(),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.CircuitBreakerMiddleware(config.Breaker),
		middleware.StorageMiddleware(manager),
		middleware.AuthMiddleware(config.Auth),
		middleware.RateLimitMiddleware(config.RateLimit, manager.GetKVClient()),
	)

	// 定时任务：孤儿 blob 清理与配额审计
	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	sched.Start()
	engine.Use(middleware.SchedulerMiddleware(sched))

	opts := router.Options{
		SchedulerRoutes: config.Server.Debug,
	}

	if config.Cache.Enabled && manager.GetKVClient() != nil {
		respCache := appcache.NewCache(manager.GetKVClient().KVStore)
		opts.CacheMiddleware = middleware.CacheMiddleware(respCache, config.Cache.GetTTL())
	}

	router.RegisterAPIRoutes(engine.Group("/api/v1"), opts)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	return &App{
		Engine: engine,
		config: config,
	}
}

func (a *App) Run() error {
	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}
