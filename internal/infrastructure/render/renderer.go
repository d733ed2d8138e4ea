// Package render 将分页结果渲染为 PDF / HTML / PNG
package render

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"worksheet-ai-api/internal/application/layout"
	"worksheet-ai-api/internal/config"
	"worksheet-ai-api/pkg/metrics"
	"worksheet-ai-api/pkg/tracer"
)

// Format 输出格式
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
)

// ParseFormat 解析格式名（大小写不敏感）
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatHTML, FormatPNG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported render format %q", s)
	}
}

// Renderer 渲染后端：每个非空页面输出为一页，空页面跳过；非法块渲染为空，不返回错误
type Renderer interface {
	Format() Format
	ContentType() string
	Extension() string
	Render(ctx context.Context, pages []layout.Page) ([]byte, error)
}

// Registry 按格式索引的渲染器集合
type Registry struct {
	renderers map[Format]Renderer
}

// NewRegistry 创建注册表，同格式后注册者覆盖先注册者
func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{renderers: make(map[Format]Renderer, len(renderers))}
	for _, rd := range renderers {
		r.renderers[rd.Format()] = rd
	}
	return r
}

// NewDefaultRegistry 注册 pdf / html / png 三种后端
func NewDefaultRegistry(cfg *config.Config) *Registry {
	base := cfg.Render.BaseFontSize
	return NewRegistry(
		NewPDFRenderer(base, cfg.Render.PDFFontFiles...),
		NewHTMLRenderer(),
		NewPNGRenderer(base, cfg.Render.PNGMaxPages),
	)
}

// Get 获取指定格式的渲染器
func (r *Registry) Get(f Format) (Renderer, bool) {
	rd, ok := r.renderers[f]
	return rd, ok
}

// Formats 已注册的格式（字典序）
func (r *Registry) Formats() []Format {
	out := make([]Format, 0, len(r.renderers))
	for f := range r.renderers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Render 渲染并记录指标与 span
func (r *Registry) Render(ctx context.Context, f Format, pages []layout.Page) ([]byte, Renderer, error) {
	rd, ok := r.Get(f)
	if !ok {
		return nil, nil, fmt.Errorf("no renderer registered for %q", f)
	}

	ctx, span := tracer.Start(ctx, "render."+string(f))
	defer span.End()

	start := time.Now()
	out, err := rd.Render(ctx, pages)
	metrics.RenderDuration.WithLabelValues(string(f)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RenderTotal.WithLabelValues(string(f), "error").Inc()
		tracer.RecordError(span, err)
		return nil, rd, fmt.Errorf("render %s: %w", f, err)
	}
	metrics.RenderTotal.WithLabelValues(string(f), "success").Inc()
	return out, rd, nil
}

// nonEmpty 过滤掉没有块的页面
func nonEmpty(pages []layout.Page) []layout.Page {
	return lo.Filter(pages, func(p layout.Page, _ int) bool { return !p.Empty() })
}
