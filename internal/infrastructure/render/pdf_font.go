package render

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	pdffont "github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// pdfFontChain 按顺序挑选能覆盖字符的字体；primary 之后是配置的后备字体
type pdfFontChain struct {
	regular   string
	bold      string
	fallbacks []string
}

// installGoFonts 将 Go 字体安装为 pdfcpu 用户字体，进程内只执行一次
var installGoFonts = sync.OnceValues(func() ([2]string, error) {
	if err := ensureUserFontDir(); err != nil {
		return [2]string{}, err
	}
	regular, err := installFontBytes(goregular.TTF)
	if err != nil {
		return [2]string{}, err
	}
	bold, err := installFontBytes(gobold.TTF)
	if err != nil {
		return [2]string{}, err
	}
	if err := pdffont.LoadUserFonts(); err != nil {
		return [2]string{}, fmt.Errorf("load pdf fonts: %w", err)
	}
	return [2]string{regular, bold}, nil
})

var fontInstallMu sync.Mutex

func ensureUserFontDir() error {
	// NewDefaultConfiguration 会初始化 pdfcpu 配置目录与用户字体目录
	_ = model.NewDefaultConfiguration()
	if pdffont.UserFontDir != "" {
		return nil
	}
	dir, err := os.MkdirTemp("", "worksheet-pdf-fonts")
	if err != nil {
		return fmt.Errorf("create pdf font dir: %w", err)
	}
	pdffont.UserFontDir = dir
	return nil
}

// installFontBytes 安装 TrueType 字体并返回 pdfcpu 引用它的名称（PostScript 名）
func installFontBytes(ttf []byte) (string, error) {
	parsed, err := truetype.Parse(ttf)
	if err != nil {
		return "", fmt.Errorf("parse font: %w", err)
	}
	name := parsed.Name(truetype.NameIDPostscriptName)
	if name == "" {
		return "", fmt.Errorf("font has no postscript name")
	}

	fontInstallMu.Lock()
	defer fontInstallMu.Unlock()
	if err := pdffont.InstallFontFromBytes(pdffont.UserFontDir, name, ttf); err != nil {
		return "", fmt.Errorf("install font %s: %w", name, err)
	}
	return name, nil
}

// loadPDFFonts 安装内置字体与后备字体文件
func loadPDFFonts(files []string) (pdfFontChain, error) {
	base, err := installGoFonts()
	if err != nil {
		return pdfFontChain{}, err
	}
	chain := pdfFontChain{regular: base[0], bold: base[1]}
	if len(files) == 0 {
		return chain, nil
	}

	for _, path := range files {
		ttf, err := os.ReadFile(path)
		if err != nil {
			return pdfFontChain{}, fmt.Errorf("read font %s: %w", path, err)
		}
		name, err := installFontBytes(ttf)
		if err != nil {
			return pdfFontChain{}, err
		}
		chain.fallbacks = append(chain.fallbacks, name)
	}
	if err := pdffont.LoadUserFonts(); err != nil {
		return pdfFontChain{}, fmt.Errorf("load pdf fonts: %w", err)
	}
	return chain, nil
}

func (c pdfFontChain) primary(bold bool) string {
	if bold {
		return c.bold
	}
	return c.regular
}

// pick 返回覆盖 r 的第一个字体；都不覆盖时返回主字体与 false
func (c pdfFontChain) pick(r rune, bold bool) (string, bool) {
	first := c.primary(bold)
	if covers(first, r) {
		return first, true
	}
	for _, name := range c.fallbacks {
		if covers(name, r) {
			return name, true
		}
	}
	return first, false
}

func covers(fontName string, r rune) bool {
	pdffont.UserFontMetricsLock.RLock()
	defer pdffont.UserFontMetricsLock.RUnlock()
	_, ok := pdffont.UserFontMetrics[fontName].Chars[uint32(r)]
	return ok
}

// textRun 同一字体下连续输出的一段文本
type textRun struct {
	Text string
	Font string
}

// runs 按字体切分文本；每个 '%' 结束一段，避免 pdfcpu 把 %p、%P 等当作占位符展开
func (c pdfFontChain) runs(text string, bold bool) (runs []textRun, missing []rune) {
	var cur strings.Builder
	curFont := ""
	flush := func() {
		if cur.Len() > 0 {
			runs = append(runs, textRun{Text: cur.String(), Font: curFont})
			cur.Reset()
		}
	}
	for _, r := range text {
		name, ok := c.pick(r, bold)
		if !ok && r != ' ' {
			missing = append(missing, r)
		}
		if name != curFont {
			flush()
			curFont = name
		}
		cur.WriteRune(r)
		if r == '%' {
			flush()
		}
	}
	flush()
	return runs, missing
}

// width 文本宽度（pt）
func (c pdfFontChain) width(text string, size float64, bold bool) float64 {
	var w float64
	runs, _ := c.runs(text, bold)
	for _, run := range runs {
		w += pdffont.TextWidth(run.Text, run.Font, 1000) * size / 1000
	}
	return w
}

// pdfcpuValue 转换为 pdfcpu 文本值：段尾的 '%' 写作 "%%"，展开后恰好还原为一个 '%'
func pdfcpuValue(run string) string {
	if strings.HasSuffix(run, "%") {
		return run + "%"
	}
	return run
}
