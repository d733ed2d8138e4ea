// Package layout 将练习册文档排版为与渲染后端无关的页面与块
package layout

import (
	"worksheet-ai-api/internal/domain/entity"
)

// PageKind 页面类型
type PageKind string

const (
	PageCover     PageKind = "cover"
	PageActivity  PageKind = "activity"
	PageAnswerKey PageKind = "answer_key"
)

// BlockKind 渲染块类型
type BlockKind string

const (
	BlockHeading     BlockKind = "heading"
	BlockParagraph   BlockKind = "paragraph"
	BlockAnswerLine  BlockKind = "answer_line"
	BlockChoice      BlockKind = "choice"
	BlockDrawingArea BlockKind = "drawing_area"
)

// Block 渲染块。
// Heading 使用 Level（1 为页标题）；Choice 使用 Index 作为字母序号、Marked 表示答案页上的正确选项；
// AnswerLine 在练习页为空行，答案页上 Text 为答案；DrawingArea 使用 Height（pt）。
type Block struct {
	Kind   BlockKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Level  int       `json:"level,omitempty"`
	Index  int       `json:"index,omitempty"`
	Marked bool      `json:"marked,omitempty"`
	Height float64   `json:"height,omitempty"`
}

// Page 一页物理页面
type Page struct {
	Kind       PageKind `json:"kind"`
	StoryIndex int      `json:"story_index"`
	Blocks     []Block  `json:"blocks"`
}

// Empty 没有任何块的页面不会被渲染
func (p Page) Empty() bool {
	return len(p.Blocks) == 0
}

// StoryDocument 带序号的文档
type StoryDocument struct {
	Document   entity.Document
	StoryIndex int
}

// Number 按输入顺序为文档编号（从 0 开始）
func Number(docs []entity.Document) []StoryDocument {
	out := make([]StoryDocument, len(docs))
	for i, d := range docs {
		out[i] = StoryDocument{Document: d, StoryIndex: i}
	}
	return out
}

// Heading 标题块
func Heading(text string, level int) Block {
	return Block{Kind: BlockHeading, Text: text, Level: level}
}

// Paragraph 段落块
func Paragraph(text string) Block {
	return Block{Kind: BlockParagraph, Text: text}
}

// AnswerLine 作答横线，text 为空时为空白行
func AnswerLine(text string) Block {
	return Block{Kind: BlockAnswerLine, Text: text}
}

// Choice 选项块
func Choice(index int, text string, marked bool) Block {
	return Block{Kind: BlockChoice, Text: text, Index: index, Marked: marked}
}

// DrawingArea 固定高度的绘画区域
func DrawingArea(height float64) Block {
	return Block{Kind: BlockDrawingArea, Height: height}
}

// Letter 返回选项字母：0->A，25->Z，26->AA；负数返回空串
func Letter(index int) string {
	if index < 0 {
		return ""
	}
	if index < 26 {
		return string(rune('A' + index))
	}
	return Letter(index/26-1) + Letter(index%26)
}
