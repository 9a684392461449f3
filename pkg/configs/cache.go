package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCacheEnabled    = true
	DefaultCacheTTLSeconds = 30 // 列表与统计接口的响应缓存时长（秒）
)

// CacheConfig 只读接口的响应缓存配置.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds" rule:"min=1,max=3600"`
}

// GetTTL 返回缓存时长作为 time.Duration.
func (c *CacheConfig) GetTTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.ttl_seconds", DefaultCacheTTLSeconds)
}
