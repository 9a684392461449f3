package mq_test

import (
	"testing"

	"github.com/yeisme/blobvault/pkg/configs"
	"github.com/yeisme/blobvault/pkg/internal/storage/mq"
)

// cmd 的 `mq list` 依赖注册表枚举，内置后端必须在 init 时注册完毕.
func TestGetRegisteredMQTypes(t *testing.T) {
	registered := map[configs.MQType]bool{}
	for _, typ := range mq.GetRegisteredMQTypes() {
		registered[typ] = true
	}

	for _, want := range []configs.MQType{configs.MQTypeNATS, configs.MQTypeRedis} {
		if !registered[want] {
			t.Errorf("mq type %q not registered, got %v", want, registered)
		}
	}
}
