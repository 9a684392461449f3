// Package rule 封装 go-playground/validator，为配置结构体与列表请求参数提供 `rule` tag 校验.
package rule

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	engine   *validator.Validate
	initOnce sync.Once
)

// setup 优先复用 gin binding 的 validator 实例，避免维护两套自定义规则；
// 非 gin 场景下退化为独立实例. 统一使用 `rule` 作为 tag 名.
func setup() {
	if e := binding.Validator.Engine(); e != nil {
		if v, ok := e.(*validator.Validate); ok {
			engine = v
			engine.SetTagName("rule")

			return
		}
	}

	engine = validator.New()
	engine.SetTagName("rule")
}

func ensure() {
	initOnce.Do(setup)
}

// Engine 返回全局 *validator.Validate（惰性初始化）.
func Engine() *validator.Validate {
	ensure()

	return engine
}

// RegisterValidation 注册自定义校验函数.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	ensure()

	return engine.RegisterValidation(tag, fn, opts...)
}

// ValidationErrors 是字段名到可读错误信息的字典.
type ValidationErrors map[string]string

// ValidateStruct 校验带 `rule` tag 的结构体，配置加载和请求绑定后都会走这里.
func ValidateStruct(s any) error {
	ensure()

	return engine.Struct(s)
}

// ValidateVar 对单个值按规则校验，例如: ValidateVar(name, "required,max=255").
func ValidateVar(field any, tag string) error {
	ensure()

	return engine.Var(field, tag)
}

// RegisterAlias 注册规则别名.
func RegisterAlias(alias, rules string) {
	ensure()

	engine.RegisterAlias(alias, rules)
}
