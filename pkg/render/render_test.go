// pkg/render/render_test.go
package render

import (
	"testing"
	"time"

	"NotifyHub/pkg/model"
)

func fixedNow() time.Time {
	return time.Date(2025, time.March, 7, 10, 30, 0, 0, time.UTC)
}

func TestRenderPlaceholderTakesPriority(t *testing.T) {
	r := NewRendererAt(fixedNow)

	profile := &model.UserProfile{FullName: "资料里的名字"}
	placeholders := map[string]string{"name": "占位符里的名字"}

	got := r.Render("你好 {{name}}", placeholders, profile)
	if got != "你好 占位符里的名字" {
		t.Errorf("显式占位符应优先于用户资料, got %q", got)
	}
}

func TestRenderProfileFields(t *testing.T) {
	r := NewRendererAt(fixedNow)

	profile := &model.UserProfile{
		FullName:       "张三",
		Email:          "zhangsan@example.com",
		IdentifierCode: "REG-1001",
	}

	got := r.Render("{{name}} / {{email}} / {{registration}}", nil, profile)
	want := "张三 / zhangsan@example.com / REG-1001"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRenderEmptyProfileFieldFallsThrough(t *testing.T) {
	r := NewRendererAt(fixedNow)

	// 资料字段为空时不消费占位符，原样保留
	profile := &model.UserProfile{FullName: ""}
	got := r.Render("你好 {{name}}", nil, profile)
	if got != "你好 {{name}}" {
		t.Errorf("空资料字段应原样保留占位符, got %q", got)
	}
}

func TestRenderDateAndMonth(t *testing.T) {
	r := NewRendererAt(fixedNow)

	got := r.Render("{{date}} {{month}}", nil, nil)
	if got != "7 March" {
		t.Errorf("Render() = %q, want %q", got, "7 March")
	}
}

func TestRenderUnknownTokenPassthrough(t *testing.T) {
	r := NewRendererAt(fixedNow)

	got := r.Render("余额 {{balance}} 元", nil, nil)
	if got != "余额 {{balance}} 元" {
		t.Errorf("未识别的占位符应原样输出, got %q", got)
	}
}

func TestRenderTrimsTokenWhitespace(t *testing.T) {
	r := NewRendererAt(fixedNow)

	got := r.Render("你好 {{ name }}", map[string]string{"name": "李四"}, nil)
	if got != "你好 李四" {
		t.Errorf("占位符名称应去除空白, got %q", got)
	}
}

func TestRenderNilProfile(t *testing.T) {
	r := NewRendererAt(fixedNow)

	got := r.Render("{{name}}", nil, nil)
	if got != "{{name}}" {
		t.Errorf("无用户资料时应原样保留, got %q", got)
	}
}

func TestStringifyValues(t *testing.T) {
	values := map[string]interface{}{
		"orderId": "ORD-1",
		"amount":  float64(99.5),
		"count":   3,
		"paid":    true,
		"detail":  map[string]interface{}{"nested": true},
		"empty":   nil,
	}

	out := StringifyValues(values)

	if out["orderId"] != "ORD-1" {
		t.Errorf("orderId = %q", out["orderId"])
	}
	if out["amount"] != "99.5" {
		t.Errorf("amount = %q", out["amount"])
	}
	if out["count"] != "3" {
		t.Errorf("count = %q", out["count"])
	}
	if out["paid"] != "true" {
		t.Errorf("paid = %q", out["paid"])
	}
	if _, ok := out["detail"]; ok {
		t.Error("嵌套结构应被跳过")
	}
	if _, ok := out["empty"]; ok {
		t.Error("nil值应被跳过")
	}
}
