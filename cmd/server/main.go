package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/user/cinema/internal/config"
	"github.com/user/cinema/internal/handler"
	"github.com/user/cinema/internal/logger"
	"github.com/user/cinema/internal/middleware"
	"github.com/user/cinema/internal/router"
	"github.com/user/cinema/internal/service"
	"github.com/user/cinema/internal/utils"
)

func main() {
	// 加载环境变量
	envErr := godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatalf("配置加载失败: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.IsProduction())
	log := logger.Get()
	if envErr != nil {
		log.Info("未找到 .env 文件，使用系统环境变量")
	}

	// 初始化缓存
	utils.InitCache()

	client := utils.NewHTTPClient(cfg.PosterTimeout)
	library := service.NewLibrary(service.NewIngestor())
	posters := service.NewPosterFetcher(client, cfg.PosterRate, cfg.PosterLimit)

	// 预计算快照，加载失败不影响启动
	if cfg.SnapshotSource != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n := library.LoadSnapshot(ctx, service.NewSnapshotLoader(cfg.SnapshotSource, client))
		cancel()
		log.Infof("快照用户数: %d", n)
	}

	// 初始化 Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery())

	// 启用 gzip；图片代理原样转发上游编码
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/proxy"})))

	// 设置 Session 中间件
	store := cookie.NewStore([]byte(cfg.AppSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 天
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("cinema_session", store))

	// 加载模板（使用 multitemplate 解决继承问题）
	renderer, err := router.LoadTemplates(cfg.TemplatesDir)
	if err != nil {
		log.Fatalf("模板加载失败: %v", err)
	}
	r.HTMLRender = renderer
	r.MaxMultipartMemory = 32 << 20

	// 静态文件
	r.Static("/static", cfg.StaticDir)

	// 中间件
	r.Use(middleware.Logger())
	r.Use(middleware.Security())
	r.Use(middleware.CORS(cfg.SiteUrl))

	// 启动定时海报补全
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	refresher := service.NewPosterRefresher(library, posters, cfg.PosterRefresh)
	refresher.Start(bgCtx)

	// 初始化 Handler
	h := handler.NewHandler(cfg, library, refresher, client)

	// 注册路由
	router.RegisterRoutes(r, h)

	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// 在 goroutine 中启动服务器，这样我们就可以监听信号
	go func() {
		log.Infof("服务器启动于 http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务器启动失败: %v", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("正在关闭服务器...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("服务器强制关闭:", err)
	}

	log.Info("服务器已退出")
}
