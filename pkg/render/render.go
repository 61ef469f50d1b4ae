// pkg/render/render.go
package render

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"NotifyHub/pkg/model"
)

// tokenPattern 匹配 {{name}} 形式的占位符
var tokenPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Renderer 占位符渲染器
//
// 纯函数实现，无副作用；当前时间通过构造函数注入，便于测试。
// 无法解析的占位符原样保留，不报错。
type Renderer struct {
	now func() time.Time
}

// NewRenderer 创建使用系统时间的渲染器
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// NewRendererAt 创建使用指定时间源的渲染器
func NewRendererAt(now func() time.Time) *Renderer {
	if now == nil {
		now = time.Now
	}
	return &Renderer{now: now}
}

// Render 渲染模板字符串
//
// 占位符解析顺序：显式占位符表 → 用户资料派生字段
// （name/email/registration）→ 日期派生字段（date/month）→ 原样保留。
func (r *Renderer) Render(template string, placeholders map[string]string, profile *model.UserProfile) string {
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.TrimSpace(token[2 : len(token)-2])

		if value, ok := placeholders[name]; ok {
			return value
		}

		if profile != nil {
			switch name {
			case "name":
				if profile.FullName != "" {
					return profile.FullName
				}
			case "email":
				if profile.Email != "" {
					return profile.Email
				}
			case "registration":
				if profile.IdentifierCode != "" {
					return profile.IdentifierCode
				}
			}
		}

		switch name {
		case "date":
			return strconv.Itoa(r.now().Day())
		case "month":
			return r.now().Month().String()
		}

		// 未识别的占位符原样输出
		return token
	})
}

// StringifyValues 把JSON元数据转换为占位符表
//
// 只保留可转为字符串的标量值，nil 和嵌套结构直接跳过。
func StringifyValues(values map[string]interface{}) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		switch v := value.(type) {
		case string:
			out[key] = v
		case bool:
			out[key] = strconv.FormatBool(v)
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case float32:
			out[key] = strconv.FormatFloat(float64(v), 'f', -1, 32)
		case int:
			out[key] = strconv.Itoa(v)
		case int64:
			out[key] = strconv.FormatInt(v, 10)
		}
	}
	return out
}
