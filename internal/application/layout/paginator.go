package layout

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"

	"worksheet-ai-api/internal/domain/entity"
)

// DefaultDrawingAreaHeight 绘画区域默认高度（pt）
const DefaultDrawingAreaHeight = 220.0

const defaultDrawPrompt = "Draw a picture about the story."

// 活动分组：同组活动共用一页，组内按固定顺序渲染
var (
	bucketA = []entity.ActivityKind{
		entity.ActivitySentenceOrder,
		entity.ActivityEmotionQuiz,
		entity.ActivityBmeStory,
	}
	bucketB = []entity.ActivityKind{
		entity.ActivitySentenceCompletion,
		entity.ActivityThreeLineSummary,
		entity.ActivityDrawAndTell,
	}
	buckets = [][]entity.ActivityKind{bucketA, bucketB}
)

// 章节标题
var sectionTitles = map[entity.ActivityKind]string{
	entity.ActivityWhQuestions:        "Questions",
	entity.ActivitySentenceOrder:      "Put the Sentences in Order",
	entity.ActivityEmotionQuiz:        "How Do They Feel?",
	entity.ActivityBmeStory:           "Beginning, Middle, and End",
	entity.ActivitySentenceCompletion: "Finish the Sentence",
	entity.ActivityThreeLineSummary:   "Three-Line Summary",
	entity.ActivityDrawAndTell:        "Draw and Tell",
}

var bmeParts = []string{"Beginning", "Middle", "End"}

// Paginator 练习册分页器，无状态，可并发使用
type Paginator struct {
	drawingHeight float64
}

// NewPaginator 创建分页器；drawingHeight <= 0 时使用默认值
func NewPaginator(drawingHeight float64) *Paginator {
	if drawingHeight <= 0 {
		drawingHeight = DefaultDrawingAreaHeight
	}
	return &Paginator{drawingHeight: drawingHeight}
}

// Paginate 使用默认配置分页
func Paginate(items []StoryDocument, kinds []entity.ActivityKind) []Page {
	return NewPaginator(DefaultDrawingAreaHeight).Paginate(items, kinds)
}

// Paginate 按输入顺序为每篇文档输出：封面页（含 WH 问题）、每个非空分组一页活动页、答案页。
// 未请求的活动即使存在也忽略；文档没有任何可用活动时只输出封面页。
func (p *Paginator) Paginate(items []StoryDocument, kinds []entity.ActivityKind) []Page {
	requested := entity.NewKindSet(kinds)
	pages := make([]Page, 0, len(items)*4)
	for _, item := range items {
		pages = append(pages, p.paginateDocument(item, requested)...)
	}
	return pages
}

func (p *Paginator) paginateDocument(item StoryDocument, requested entity.KindSet) []Page {
	doc := item.Document
	active := func(k entity.ActivityKind, _ int) bool {
		return requested.Has(k) && present(doc, k)
	}

	cover := Page{Kind: PageCover, StoryIndex: item.StoryIndex}
	cover.Blocks = append(cover.Blocks, Heading(doc.Title, 1), Paragraph(doc.Content))
	if active(entity.ActivityWhQuestions, 0) {
		cover.Blocks = append(cover.Blocks, p.worksheetBlocks(item, entity.ActivityWhQuestions)...)
	}
	pages := []Page{cover}

	keyKinds := lo.Filter([]entity.ActivityKind{entity.ActivityWhQuestions}, active)
	for _, bucket := range buckets {
		kinds := lo.Filter(bucket, active)
		if len(kinds) == 0 {
			continue
		}
		page := Page{Kind: PageActivity, StoryIndex: item.StoryIndex}
		for _, k := range kinds {
			page.Blocks = append(page.Blocks, p.worksheetBlocks(item, k)...)
		}
		pages = append(pages, page)
		keyKinds = append(keyKinds, kinds...)
	}

	if len(keyKinds) == 0 {
		return pages
	}
	return append(pages, answerKeyPage(item, keyKinds))
}

// worksheetBlocks 练习页上的块：答案全部留空
func (p *Paginator) worksheetBlocks(item StoryDocument, k entity.ActivityKind) []Block {
	doc := item.Document
	blocks := []Block{Heading(sectionTitles[k], 2)}

	switch k {
	case entity.ActivityWhQuestions:
		qs, _ := doc.WhQuestions()
		blocks = append(blocks, Paragraph("Read the story. Write your answer on the lines."))
		for i, q := range qs {
			blocks = append(blocks, Heading(numbered(i, q.Question), 3), AnswerLine(""), AnswerLine(""))
		}

	case entity.ActivitySentenceOrder:
		so, _ := doc.SentenceOrder()
		blocks = append(blocks, Paragraph("Number the sentences to show the order they happened in the story."))
		for _, s := range displayOrder(so.Sentences, item.StoryIndex) {
			blocks = append(blocks, Paragraph("___ "+s))
		}

	case entity.ActivityEmotionQuiz:
		quiz, _ := doc.EmotionQuiz()
		blocks = append(blocks, Paragraph("Circle the feeling that fits."))
		for i, q := range quiz {
			blocks = append(blocks, Heading(numbered(i, q.Question), 3))
			for j, opt := range q.Options {
				blocks = append(blocks, Choice(j, opt, false))
			}
		}

	case entity.ActivityBmeStory:
		blocks = append(blocks, Paragraph("Write what happened in each part of the story."))
		for _, part := range bmeParts {
			blocks = append(blocks, Heading(part, 3), AnswerLine(""), AnswerLine(""))
		}

	case entity.ActivitySentenceCompletion:
		items, _ := doc.SentenceCompletion()
		blocks = append(blocks, Paragraph("Write the missing word in each blank."))
		for i, it := range items {
			blocks = append(blocks, Paragraph(numbered(i, it.Sentence)))
		}

	case entity.ActivityThreeLineSummary:
		blocks = append(blocks, Paragraph("Tell the whole story in three short lines."))
		for i := 1; i <= 3; i++ {
			blocks = append(blocks, Heading(fmt.Sprintf("Line %d", i), 3), AnswerLine(""), AnswerLine(""))
		}

	case entity.ActivityDrawAndTell:
		dt, _ := doc.DrawAndTell()
		prompt := dt.Prompt
		if prompt == "" {
			prompt = defaultDrawPrompt
		}
		blocks = append(blocks, Paragraph(prompt), DrawingArea(p.drawingHeight))
		for _, q := range dt.Questions {
			blocks = append(blocks, Heading(q, 3), AnswerLine(""))
		}
	}
	return blocks
}

// present 活动存在且有可展示的数据
func present(doc entity.Document, k entity.ActivityKind) bool {
	switch k {
	case entity.ActivityWhQuestions:
		v, ok := doc.WhQuestions()
		return ok && len(v) > 0
	case entity.ActivityEmotionQuiz:
		v, ok := doc.EmotionQuiz()
		return ok && len(v) > 0
	case entity.ActivityBmeStory:
		v, ok := doc.BmeStory()
		return ok && (v.Beginning != "" || v.Middle != "" || v.End != "")
	case entity.ActivitySentenceOrder:
		v, ok := doc.SentenceOrder()
		return ok && len(v.Sentences) > 0
	case entity.ActivityThreeLineSummary:
		v, ok := doc.ThreeLineSummary()
		return ok && !v.IsEmpty()
	case entity.ActivitySentenceCompletion:
		v, ok := doc.SentenceCompletion()
		return ok && len(v) > 0
	case entity.ActivityDrawAndTell:
		v, ok := doc.DrawAndTell()
		return ok && (v.Prompt != "" || len(v.Questions) > 0)
	default:
		return false
	}
}

func numbered(i int, text string) string {
	return fmt.Sprintf("%d. %s", i+1, text)
}

// displayOrder 以句子内容与序号为种子打乱副本；结果与正确顺序相同时整体轮转一位
func displayOrder(sentences []string, storyIndex int) []string {
	out := slices.Clone(sentences)
	if len(out) < 2 {
		return out
	}
	h := fnv.New64a()
	for _, s := range sentences {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}
	r := rand.New(rand.NewPCG(h.Sum64(), uint64(storyIndex)))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if slices.Equal(out, sentences) {
		out = append(slices.Clone(out[1:]), out[0])
	}
	return out
}
