package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"worksheet-ai-api/internal/application/layout"
)

var htmlTemplate = template.Must(template.New("worksheet").Funcs(template.FuncMap{
	"letter": layout.Letter,
	"headingTag": func(level int) int {
		if level < 1 {
			return 1
		}
		if level > 3 {
			return 3
		}
		return level
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Worksheet</title>
<style>
@page { size: A4; margin: 18mm; }
body { font-family: Helvetica, Arial, sans-serif; font-size: 14pt; line-height: 1.5; color: #000; }
.page { page-break-after: always; break-after: page; }
.page:last-child { page-break-after: auto; break-after: auto; }
.answer-line { border-bottom: 1px solid #000; min-height: 1.6em; margin: 0 0 .4em 1em; }
.choice { margin-left: 1.5em; }
.choice.marked { font-weight: bold; }
.drawing-area { border: 1px solid #000; margin: .5em 0; }
</style>
</head>
<body>
{{- range .}}
<section class="page" data-kind="{{.Kind}}" data-story="{{.StoryIndex}}">
{{- range .Blocks}}
{{- if eq .Kind "heading"}}
{{- $tag := headingTag .Level}}
{{- if eq $tag 1}}<h1>{{.Text}}</h1>{{else if eq $tag 2}}<h2>{{.Text}}</h2>{{else}}<h3>{{.Text}}</h3>{{end}}
{{- else if eq .Kind "paragraph"}}
<p>{{.Text}}</p>
{{- else if eq .Kind "answer_line"}}
<div class="answer-line">{{.Text}}</div>
{{- else if eq .Kind "choice"}}
{{- if and .Text (ge .Index 0)}}
<div class="choice{{if .Marked}} marked{{end}}">{{if .Marked}}[X]{{else}}[ ]{{end}} {{letter .Index}}. {{.Text}}</div>
{{- end}}
{{- else if eq .Kind "drawing_area"}}
{{- if gt .Height 0.0}}
<div class="drawing-area" style="height: {{.Height}}pt"></div>
{{- end}}
{{- end}}
{{- end}}
</section>
{{- end}}
</body>
</html>
`))

// HTMLRenderer 输出可打印的 HTML，每页一个 section
type HTMLRenderer struct{}

// NewHTMLRenderer 创建 HTML 渲染器
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

func (r *HTMLRenderer) Format() Format      { return FormatHTML }
func (r *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }
func (r *HTMLRenderer) Extension() string   { return ".html" }

// Render 渲染 HTML
func (r *HTMLRenderer) Render(ctx context.Context, pages []layout.Page) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, nonEmpty(pages)); err != nil {
		return nil, fmt.Errorf("execute html template: %w", err)
	}
	return buf.Bytes(), nil
}
