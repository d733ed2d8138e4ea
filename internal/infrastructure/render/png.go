package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"worksheet-ai-api/internal/application/layout"
	"worksheet-ai-api/pkg/logger"
)

const (
	pngPixelsPerPoint = 1.5
	pngPageGap        = 24.0
)

// defaultPNGMaxPages 单页约 0.9MP（RGBA 约 3.6MB）
const defaultPNGMaxPages = 8

type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
}

var loadFonts = sync.OnceValues(func() (fontSet, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("parse bold font: %w", err)
	}
	return fontSet{regular: regular, bold: bold}, nil
})

// faceCache 单次渲染内按字号缓存字体；font.Face 非并发安全，不跨请求共享
type faceCache struct {
	fonts fontSet
	faces map[faceKey]font.Face
}

type faceKey struct {
	size int // 0.1pt 精度
	bold bool
}

func (c *faceCache) face(size float64, bold bool) font.Face {
	key := faceKey{size: int(math.Round(size * 10)), bold: bold}
	if f, ok := c.faces[key]; ok {
		return f
	}
	ttf := c.fonts.regular
	if bold {
		ttf = c.fonts.bold
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: float64(key.size) / 10 * pngPixelsPerPoint})
	c.faces[key] = f
	return f
}

func (c *faceCache) measure(text string, size float64, bold bool) float64 {
	adv := font.MeasureString(c.face(size, bold), text)
	return float64(adv) / 64 / pngPixelsPerPoint
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		_ = f.Close()
	}
}

// PNGRenderer 生成预览图：前 maxPages 个非空页面纵向拼接为一张 PNG
type PNGRenderer struct {
	base     float64
	maxPages int
}

// NewPNGRenderer 创建 PNG 渲染器；maxPages <= 0 时使用默认上限
func NewPNGRenderer(baseFontSize float64, maxPages int) *PNGRenderer {
	if maxPages <= 0 {
		maxPages = defaultPNGMaxPages
	}
	return &PNGRenderer{base: baseFontSize, maxPages: maxPages}
}

func (r *PNGRenderer) Format() Format      { return FormatPNG }
func (r *PNGRenderer) ContentType() string { return "image/png" }
func (r *PNGRenderer) Extension() string   { return ".png" }

// Render 渲染 PNG
func (r *PNGRenderer) Render(ctx context.Context, pages []layout.Page) ([]byte, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	faces := &faceCache{fonts: fonts, faces: make(map[faceKey]font.Face)}
	defer faces.close()
	sh := newSheet(r.base, faces.measure)

	pages = nonEmpty(pages)
	if len(pages) > r.maxPages {
		logger.Info(ctx, "png preview truncated",
			"pages", len(pages),
			"max_pages", r.maxPages,
		)
		pages = pages[:r.maxPages]
	}
	count := max(1, len(pages))
	pageW := sheetWidth * pngPixelsPerPoint
	pageH := sheetHeight * pngPixelsPerPoint
	totalH := float64(count)*pageH + float64(count+1)*pngPageGap
	totalW := pageW + 2*pngPageGap

	dc := gg.NewContext(int(totalW), int(totalH))
	dc.SetRGB(0.85, 0.85, 0.85)
	dc.Clear()

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		offX := pngPageGap
		offY := pngPageGap + float64(i)*(pageH+pngPageGap)
		dc.SetRGB(1, 1, 1)
		dc.DrawRectangle(offX, offY, pageW, pageH)
		dc.Fill()
		if i < len(pages) {
			drawPrimitives(dc, faces, sh.fit(pages[i]), offX, offY)
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawPrimitives(dc *gg.Context, faces *faceCache, prims []primitive, offX, offY float64) {
	px := func(v float64) float64 { return v * pngPixelsPerPoint }
	dc.SetRGB(0, 0, 0)
	for _, p := range prims {
		switch p.Kind {
		case primText:
			dc.SetFontFace(faces.face(p.Size, p.Bold))
			dc.DrawString(p.Text, offX+px(p.X), offY+px(p.Y))
		case primRule:
			dc.SetLineWidth(1)
			dc.DrawLine(offX+px(p.X), offY+px(p.Y), offX+px(p.X+p.W), offY+px(p.Y))
			dc.Stroke()
		case primBox:
			dc.SetLineWidth(1.5)
			dc.DrawRectangle(offX+px(p.X), offY+px(p.Y), px(p.W), px(p.H))
			dc.Stroke()
		}
	}
}
