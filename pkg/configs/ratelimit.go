package configs

import "github.com/spf13/viper"

const (
	// 默认速率限制配置.
	DefaultRateLimitEnabled       = true
	DefaultRateLimitRequests      = 2 // 每个窗口允许的请求数
	DefaultRateLimitWindowSeconds = 1 // 固定窗口长度（秒）
	DefaultRateLimitKey           = "user"
	DefaultRateLimitRPS           = 50.0 // 全局令牌桶速率
	DefaultRateLimitBurst         = 100  // 全局令牌桶突发容量
)

// RateLimitConfig 速率限制配置.
// 按用户的限流使用 KV 计数器实现固定窗口，全局限流使用令牌桶.
type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	Requests      int  `mapstructure:"requests"       rule:"min=1"` // 每窗口允许的请求数
	WindowSeconds int  `mapstructure:"window_seconds" rule:"min=1"` // 固定窗口长度（秒）
	// Key 选择限流维度：global（全局令牌桶）、ip（按客户端IP）、user（按认证用户）
	Key   string  `mapstructure:"key"   rule:"oneof=global ip user"`
	RPS   float64 `mapstructure:"rps"`   // key=global 时每秒允许的请求数
	Burst int     `mapstructure:"burst"` // key=global 时的突发容量
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", DefaultRateLimitEnabled)
	v.SetDefault("rate_limit.requests", DefaultRateLimitRequests)
	v.SetDefault("rate_limit.window_seconds", DefaultRateLimitWindowSeconds)
	v.SetDefault("rate_limit.key", DefaultRateLimitKey)
	v.SetDefault("rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)
}
