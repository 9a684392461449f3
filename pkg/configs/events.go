package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	File    FileEventsConfig  `mapstructure:"file"`
	Blob    BlobEventsConfig  `mapstructure:"blob"`
	Quota   QuotaEventsConfig `mapstructure:"quota"`
}

// FileEventsConfig 文件目录领域的事件开关。
type FileEventsConfig struct {
	Uploaded bool `mapstructure:"uploaded"`
	Deleted  bool `mapstructure:"deleted"`
}

// BlobEventsConfig 物理 blob 领域的事件开关。
type BlobEventsConfig struct {
	Created  bool `mapstructure:"created"`
	Released bool `mapstructure:"released"`
}

// QuotaEventsConfig 配额领域的事件开关。
type QuotaEventsConfig struct {
	Exceeded bool `mapstructure:"exceeded"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)

	// 文件事件：默认开启最小必要集
	v.SetDefault("events.file.uploaded", true)
	v.SetDefault("events.file.deleted", true)

	// blob 生命周期事件：默认开启，便于审计去重与回收
	v.SetDefault("events.blob.created", true)
	v.SetDefault("events.blob.released", true)

	// 配额拒绝事件：告警类，默认开启
	v.SetDefault("events.quota.exceeded", true)
}
