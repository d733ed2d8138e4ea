package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/samber/lo"

	"worksheet-ai-api/internal/application/layout"
	"worksheet-ai-api/pkg/logger"
)

const pdfInk = "#000000"

// pdfcpu create 的声明式页面描述
type pdfDescription struct {
	Paper  string             `json:"paper"`
	Origin string             `json:"origin"`
	Pages  map[string]pdfPage `json:"pages"`
}

type pdfPage struct {
	Content pdfContent `json:"content"`
}

type pdfContent struct {
	Text []pdfText `json:"text,omitempty"`
	Box  []pdfBox  `json:"box,omitempty"`
}

type pdfText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfFontRef `json:"font"`
}

type pdfFontRef struct {
	Name  string `json:"name"`
	Size  int    `json:"size"`
	Color string `json:"col"`
}

type pdfBox struct {
	Pos    [2]float64 `json:"pos"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Border pdfBorder  `json:"border"`
}

type pdfBorder struct {
	Width int    `json:"width"`
	Color string `json:"col"`
}

// PDFRenderer 通过 pdfcpu 生成 A4 PDF。文本使用嵌入的 Unicode 字体，
// 内置 Go 字体之外的字符按配置的后备字体依次查找
type PDFRenderer struct {
	base      float64
	fontFiles []string
	fonts     func() (pdfFontChain, error)
}

// NewPDFRenderer 创建 PDF 渲染器；fontFiles 为可选的后备 TrueType 字体文件
func NewPDFRenderer(baseFontSize float64, fontFiles ...string) *PDFRenderer {
	r := &PDFRenderer{base: baseFontSize, fontFiles: fontFiles}
	r.fonts = sync.OnceValues(func() (pdfFontChain, error) { return loadPDFFonts(r.fontFiles) })
	return r
}

func (r *PDFRenderer) Format() Format      { return FormatPDF }
func (r *PDFRenderer) ContentType() string { return "application/pdf" }
func (r *PDFRenderer) Extension() string   { return ".pdf" }

// Render 渲染 PDF
func (r *PDFRenderer) Render(ctx context.Context, pages []layout.Page) ([]byte, error) {
	fonts, err := r.fonts()
	if err != nil {
		return nil, err
	}
	d, missing := r.describe(pages, fonts)
	if len(missing) > 0 {
		logger.Warn(ctx, "pdf fonts do not cover some characters",
			"characters", string(lo.Uniq(missing)),
		)
	}
	desc, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal page description: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(desc), &buf, model.NewDefaultConfiguration()); err != nil {
		return nil, fmt.Errorf("pdfcpu create: %w", err)
	}
	return buf.Bytes(), nil
}

// describe 构建页面描述，同时返回字体未覆盖的字符；没有非空页面时输出一页空白页
func (r *PDFRenderer) describe(pages []layout.Page, fonts pdfFontChain) (pdfDescription, []rune) {
	sh := newSheet(r.base, fonts.width)
	desc := pdfDescription{Paper: "A4P", Origin: "LowerLeft", Pages: map[string]pdfPage{}}
	var missing []rune
	for i, p := range nonEmpty(pages) {
		content, miss := toPDFContent(sh.fit(p), fonts)
		desc.Pages[strconv.Itoa(i+1)] = pdfPage{Content: content}
		missing = append(missing, miss...)
	}
	if len(desc.Pages) == 0 {
		desc.Pages["1"] = pdfPage{Content: pdfContent{Text: []pdfText{{
			Value: " ",
			Pos:   [2]float64{sheetMargin, sheetHeight - sheetMargin},
			Font:  pdfFontRef{Name: fonts.regular, Size: int(defaultBaseFontSize), Color: pdfInk},
		}}}}
	}
	return desc, missing
}

func toPDFContent(prims []primitive, fonts pdfFontChain) (pdfContent, []rune) {
	var c pdfContent
	var missing []rune
	for _, p := range prims {
		switch p.Kind {
		case primText:
			size := max(1, int(math.Round(p.Size)))
			runs, miss := fonts.runs(p.Text, p.Bold)
			missing = append(missing, miss...)
			x := p.X
			for _, run := range runs {
				c.Text = append(c.Text, pdfText{
					Value: pdfcpuValue(run.Text),
					Pos:   [2]float64{round2(x), round2(sheetHeight - p.Y)},
					Font:  pdfFontRef{Name: run.Font, Size: size, Color: pdfInk},
				})
				x += pdffont.TextWidth(run.Text, run.Font, size)
			}
		case primRule:
			c.Box = append(c.Box, pdfBox{
				Pos:    [2]float64{round2(p.X), round2(sheetHeight - p.Y)},
				Width:  round2(p.W),
				Height: 0.5,
				Border: pdfBorder{Width: 1, Color: pdfInk},
			})
		case primBox:
			c.Box = append(c.Box, pdfBox{
				Pos:    [2]float64{round2(p.X), round2(sheetHeight - p.Y - p.H)},
				Width:  round2(p.W),
				Height: round2(p.H),
				Border: pdfBorder{Width: 1, Color: pdfInk},
			})
		}
	}
	return c, missing
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
