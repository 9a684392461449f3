package configs

import "github.com/spf13/viper"

const (
	DefaultAuthHeader      = "UserId" // 网关注入的用户标识请求头
	DefaultMaxUserIDLength = 64       // 用户标识最大长度
)

// AuthConfig 控制请求头认证（由上游网关注入用户标识）。
type AuthConfig struct {
	Enabled         bool     `mapstructure:"enabled"`            // 开启认证校验
	Header          string   `mapstructure:"header"`             // 携带用户标识的请求头名称
	MaxUserIDLength int      `mapstructure:"max_user_id_length"` // 用户标识最大长度
	SkipPaths       []string `mapstructure:"skip_paths"`         // 跳过认证的路径前缀（如 /metrics、/api/v1/health）
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.header", DefaultAuthHeader)
	v.SetDefault("auth.max_user_id_length", DefaultMaxUserIDLength)
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
	})
}
