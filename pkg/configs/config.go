// Package configs 管理应用程序配置，包括数据库、对象存储、配额与限流的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing vault config:
//
//	config := configs.GetConfig()
//	vaultConfig := config.Vault
//	fmt.Println("Max file size:", vaultConfig.MaxFileSizeBytes)
//	fmt.Println("Default quota:", vaultConfig.DefaultQuotaBytes)
package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppVersion 应用版本号，构建时通过 ldflags 注入.
var AppVersion = "dev"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server    ServerConfig         `mapstructure:"server"`     // 服务器端口、超时等
		DB        DBConfig             `mapstructure:"db"`         // 数据库配置
		S3        S3Config             `mapstructure:"s3"`         // S3/MinIO 对象存储配置
		Blob      BlobConfig           `mapstructure:"blob"`       // 物理 blob 后端选择
		Vault     VaultConfig          `mapstructure:"vault"`      // 配额与上传约束
		Log       LogConfig            `mapstructure:"log"`        // 日志相关配置
		RateLimit RateLimitConfig      `mapstructure:"rate_limit"` // API 速率限制
		Metrics   MetricsConfig        `mapstructure:"metrics"`    // Prometheus 指标
		Tracing   TracingConfig        `mapstructure:"tracing"`    // OpenTelemetry 追踪
		MQ        MQConfig             `mapstructure:"mq"`         // 事件消息队列
		KV        KVConfig             `mapstructure:"kv"`         // 键值存储（限流计数等）
		Auth      AuthConfig           `mapstructure:"auth"`       // UserId 请求头认证
		Events    EventsConfig         `mapstructure:"events"`     // 事件发布开关
		Breaker   CircuitBreakerConfig `mapstructure:"breaker"`    // HTTP 熔断器
		Cache     CacheConfig          `mapstructure:"cache"`      // 只读接口响应缓存
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
func InitConfig(path string) error {
	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	appViper.AutomaticEnv()
	appViper.SetEnvPrefix("BLOBVAULT")

	// 读取配置
	if err := appViper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	// 解析到全局配置
	if err := appViper.Unmarshal(&globalConfig); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var serverConfig ServerConfig

	var dbConfig DBConfig

	var s3Config S3Config

	var blobConfig BlobConfig

	var vaultConfig VaultConfig

	var logConfig LogConfig

	var rateLimitConfig RateLimitConfig

	var metricsConfig MetricsConfig

	var tracingConfig TracingConfig

	var mqConfig MQConfig

	var kvConfig KVConfig

	var authConfig AuthConfig

	var eventsConfig EventsConfig

	var breakerConfig CircuitBreakerConfig

	var cacheConfig CacheConfig

	serverConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	s3Config.setDefaults(v)
	blobConfig.setDefaults(v)
	vaultConfig.setDefaults(v)
	logConfig.setDefaults(v)
	rateLimitConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	mqConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	authConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	breakerConfig.setDefaults(v)
	cacheConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}
	// 启用配置热重载
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)
		fmt.Println("Reloading configuration...")

		if err := v.Unmarshal(&globalConfig); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
		}
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

func GetViper() *viper.Viper {
	return appViper
}
