package render

import (
	"fmt"
	"strings"

	"worksheet-ai-api/internal/application/layout"
)

// A4 纵向尺寸（pt）
const (
	sheetWidth          = 595.0
	sheetHeight         = 842.0
	sheetMargin         = 50.0
	defaultBaseFontSize = 12.0
)

// fitScales 内容超出一页时依次尝试的缩放比例
var fitScales = []float64{1, 0.9, 0.8, 0.7, 0.6}

type primKind int

const (
	primText primKind = iota
	primRule
	primBox
)

// primitive 页面绘制原语。坐标以页面左上角为原点，文本 Y 为基线
type primitive struct {
	Kind primKind
	X, Y float64
	W, H float64
	Text string
	Size float64
	Bold bool
}

// measureFunc 返回文本在指定字号下的宽度（pt）
type measureFunc func(text string, size float64, bold bool) float64

// sheet 将块排布为原语，PDF 与 PNG 后端共用
type sheet struct {
	base    float64
	measure measureFunc
}

func newSheet(base float64, measure measureFunc) sheet {
	if base <= 0 {
		base = defaultBaseFontSize
	}
	return sheet{base: base, measure: measure}
}

// fit 选择能放进一页的最大缩放；最小比例仍溢出时按最小比例输出
func (s sheet) fit(p layout.Page) []primitive {
	var prims []primitive
	for _, scale := range fitScales {
		var bottom float64
		prims, bottom = s.place(p, scale)
		if bottom <= sheetHeight-sheetMargin {
			break
		}
	}
	return prims
}

func (s sheet) place(p layout.Page, scale float64) ([]primitive, float64) {
	size := s.base * scale
	width := sheetWidth - 2*sheetMargin
	y := sheetMargin
	var out []primitive

	text := func(x float64, str string, sz float64, bold bool, maxW float64) {
		lines := wrapText(str, maxW, func(t string) float64 { return s.measure(t, sz, bold) })
		for _, line := range lines {
			y += sz * 1.3
			out = append(out, primitive{Kind: primText, X: x, Y: y, Text: line, Size: sz, Bold: bold})
		}
	}

	for i, b := range p.Blocks {
		switch b.Kind {
		case layout.BlockHeading:
			sz := size * headingScale(b.Level)
			if i > 0 {
				y += sz * 0.6
			}
			text(sheetMargin, b.Text, sz, true, width)
			y += sz * 0.2

		case layout.BlockParagraph:
			text(sheetMargin, b.Text, size, false, width)
			y += size * 0.5

		case layout.BlockAnswerLine:
			indent := 12 * scale
			if b.Text != "" {
				text(sheetMargin+indent, b.Text, size, false, width-indent)
			} else {
				y += size * 1.3
			}
			y += size * 0.4
			out = append(out, primitive{Kind: primRule, X: sheetMargin + indent, Y: y, W: width - indent})
			y += size * 0.5

		case layout.BlockChoice:
			if b.Text == "" || b.Index < 0 {
				continue
			}
			indent := 18 * scale
			text(sheetMargin+indent, choiceLabel(b), size, b.Marked, width-indent)
			y += size * 0.3

		case layout.BlockDrawingArea:
			if b.Height <= 0 {
				continue
			}
			h := b.Height * scale
			y += size * 0.5
			out = append(out, primitive{Kind: primBox, X: sheetMargin, Y: y, W: width, H: h})
			y += h + size*0.5
		}
	}
	return out, y
}

func headingScale(level int) float64 {
	switch level {
	case 1:
		return 1.7
	case 2:
		return 1.35
	default:
		return 1.1
	}
}

// choiceLabel 例如 "[ ] B. Happy"，答案页上正确选项为 "[X] B. Happy"
func choiceLabel(b layout.Block) string {
	mark := "[ ]"
	if b.Marked {
		mark = "[X]"
	}
	return fmt.Sprintf("%s %s. %s", mark, layout.Letter(b.Index), b.Text)
}

// wrapText 按词贪心折行；单词本身超宽时按字符截断
func wrapText(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if measure(candidate) <= maxWidth {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
			}
			line = w
			for measure(line) > maxWidth {
				head, rest := splitToWidth(line, maxWidth, measure)
				lines = append(lines, head)
				line = rest
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// splitToWidth 截取不超过 maxWidth 的最长前缀，至少保留一个字符
func splitToWidth(s string, maxWidth float64, measure func(string) float64) (string, string) {
	runes := []rune(s)
	n := 1
	for n < len(runes) && measure(string(runes[:n+1])) <= maxWidth {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
