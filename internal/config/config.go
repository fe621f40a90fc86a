package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const defaultSecret = "your-secret-key-change-in-production"

// Config 应用配置
type Config struct {
	Env            string        `validate:"oneof=development production test"`
	AppSecret      string        `validate:"required,min=16"`
	Port           string        `validate:"required,numeric"`
	SiteName       string        `validate:"required"`
	SiteUrl        string        `validate:"required,url"`
	LogLevel       string        `validate:"oneof=debug info warn error"`
	SnapshotSource string        // 空值表示不加载预计算快照
	TemplatesDir   string        `validate:"required"`
	StaticDir      string        `validate:"required"`
	MaxUploadMB    int64         `validate:"gte=1,lte=1024"`
	PosterLimit    int           `validate:"gte=0"`
	PosterRate     float64       `validate:"gt=0"`
	PosterTimeout  time.Duration `validate:"gt=0"`
	PosterRefresh  time.Duration `validate:"gte=0"` // 0 表示关闭定时补全
}

// Load 加载配置
func Load() (*Config, error) {
	maxUpload, _ := strconv.ParseInt(getEnv("MAX_UPLOAD_MB", "64"), 10, 64)
	posterLimit, _ := strconv.Atoi(getEnv("POSTER_FETCH_LIMIT", "10"))
	posterRate, _ := strconv.ParseFloat(getEnv("POSTER_RATE_PER_SEC", "2"), 64)
	posterTimeout, err := time.ParseDuration(getEnv("POSTER_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("POSTER_TIMEOUT 格式错误: %w", err)
	}
	posterRefresh, err := time.ParseDuration(getEnv("POSTER_REFRESH_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("POSTER_REFRESH_INTERVAL 格式错误: %w", err)
	}

	port := getEnv("PORT", "5005")
	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		AppSecret:      getEnv("APP_SECRET", defaultSecret),
		Port:           port,
		SiteName:       getEnv("SITE_NAME", "CINE·MA"),
		SiteUrl:        getEnv("SITE_URL", "http://localhost:"+port),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SnapshotSource: os.Getenv("SNAPSHOT_SOURCE"),
		TemplatesDir:   getEnv("TEMPLATES_DIR", "./web/templates"),
		StaticDir:      getEnv("STATIC_DIR", "./web/static"),
		MaxUploadMB:    maxUpload,
		PosterLimit:    posterLimit,
		PosterRate:     posterRate,
		PosterTimeout:  posterTimeout,
		PosterRefresh:  posterRefresh,
	}
	if _, ok := os.LookupEnv("SNAPSHOT_SOURCE"); !ok {
		cfg.SnapshotSource = "./web/data.json"
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}

	if cfg.IsProduction() && cfg.AppSecret == defaultSecret {
		return nil, fmt.Errorf("生产环境禁止使用默认 APP_SECRET")
	}

	return cfg, nil
}

// IsProduction 是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// MaxUploadBytes 上传大小上限（字节）
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
