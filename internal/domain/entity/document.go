package entity

import (
	"encoding/json"
	"strings"
)

// ActivityPayload 活动内容（封闭联合类型），每个 ActivityKind 对应唯一实现
type ActivityPayload interface {
	Kind() ActivityKind
	isActivityPayload()
}

// WhQuestion 5W1H 问答
type WhQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// WhQuestions 问答列表
type WhQuestions []WhQuestion

// EmotionQuestion 情绪选择题，CorrectIndex 始终落在 Options 范围内
type EmotionQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// EmotionQuiz 情绪选择题列表
type EmotionQuiz []EmotionQuestion

// BmeStory 开头/中间/结尾复述
type BmeStory struct {
	Beginning string `json:"beginning"`
	Middle    string `json:"middle"`
	End       string `json:"end"`
}

// SentenceOrder 句子排序，Sentences 按正确顺序存储，展示时再打乱副本
type SentenceOrder struct {
	Sentences []string `json:"sentences"`
}

// ThreeLineSummary 三行总结
type ThreeLineSummary struct {
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
	Line3 string `json:"line3"`
}

// Lines 返回三行内容
func (s ThreeLineSummary) Lines() [3]string {
	return [3]string{s.Line1, s.Line2, s.Line3}
}

// IsEmpty 三行均为空
func (s ThreeLineSummary) IsEmpty() bool {
	return strings.TrimSpace(s.Line1) == "" && strings.TrimSpace(s.Line2) == "" && strings.TrimSpace(s.Line3) == ""
}

// CompletionItem 填空句，len(Answers) == len(Blanks)，Blanks 为 Sentence 中出现的空位标记
type CompletionItem struct {
	Sentence string   `json:"sentence"`
	Answers  []string `json:"answers"`
	Blanks   []string `json:"blanks"`
}

// SentenceCompletion 填空列表
type SentenceCompletion []CompletionItem

// DrawAndTell 画一画说一说
type DrawAndTell struct {
	Prompt    string   `json:"prompt"`
	Questions []string `json:"questions,omitempty"`
}

func (WhQuestions) Kind() ActivityKind        { return ActivityWhQuestions }
func (EmotionQuiz) Kind() ActivityKind        { return ActivityEmotionQuiz }
func (BmeStory) Kind() ActivityKind           { return ActivityBmeStory }
func (SentenceOrder) Kind() ActivityKind      { return ActivitySentenceOrder }
func (ThreeLineSummary) Kind() ActivityKind   { return ActivityThreeLineSummary }
func (SentenceCompletion) Kind() ActivityKind { return ActivitySentenceCompletion }
func (DrawAndTell) Kind() ActivityKind        { return ActivityDrawAndTell }

func (WhQuestions) isActivityPayload()        {}
func (EmotionQuiz) isActivityPayload()        {}
func (BmeStory) isActivityPayload()           {}
func (SentenceOrder) isActivityPayload()      {}
func (ThreeLineSummary) isActivityPayload()   {}
func (SentenceCompletion) isActivityPayload() {}
func (DrawAndTell) isActivityPayload()        {}

// Document 一篇练习册：故事 + 已请求且成功生成的活动
type Document struct {
	Title      string
	Content    string
	Activities map[ActivityKind]ActivityPayload
}

// NewDocument 创建空活动的文档
func NewDocument(title, content string) Document {
	return Document{
		Title:      title,
		Content:    content,
		Activities: make(map[ActivityKind]ActivityPayload),
	}
}

// Set 写入活动内容，键由载荷类型决定
func (d *Document) Set(p ActivityPayload) {
	if p == nil {
		return
	}
	if d.Activities == nil {
		d.Activities = make(map[ActivityKind]ActivityPayload)
	}
	d.Activities[p.Kind()] = p
}

// Has 是否包含指定活动
func (d Document) Has(k ActivityKind) bool {
	_, ok := d.Activities[k]
	return ok
}

// Kinds 返回已包含的活动类型（固定顺序）
func (d Document) Kinds() []ActivityKind {
	out := make([]ActivityKind, 0, len(d.Activities))
	for _, k := range allActivityKinds {
		if d.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// WhQuestions 类型化访问器；不存在时 ok=false
func (d Document) WhQuestions() (WhQuestions, bool) {
	v, ok := d.Activities[ActivityWhQuestions].(WhQuestions)
	return v, ok
}

func (d Document) EmotionQuiz() (EmotionQuiz, bool) {
	v, ok := d.Activities[ActivityEmotionQuiz].(EmotionQuiz)
	return v, ok
}

func (d Document) BmeStory() (BmeStory, bool) {
	v, ok := d.Activities[ActivityBmeStory].(BmeStory)
	return v, ok
}

func (d Document) SentenceOrder() (SentenceOrder, bool) {
	v, ok := d.Activities[ActivitySentenceOrder].(SentenceOrder)
	return v, ok
}

func (d Document) ThreeLineSummary() (ThreeLineSummary, bool) {
	v, ok := d.Activities[ActivityThreeLineSummary].(ThreeLineSummary)
	return v, ok
}

func (d Document) SentenceCompletion() (SentenceCompletion, bool) {
	v, ok := d.Activities[ActivitySentenceCompletion].(SentenceCompletion)
	return v, ok
}

func (d Document) DrawAndTell() (DrawAndTell, bool) {
	v, ok := d.Activities[ActivityDrawAndTell].(DrawAndTell)
	return v, ok
}

// documentJSON 扁平的规范 JSON 结构，与模型响应结构一致
type documentJSON struct {
	Title              string             `json:"title"`
	Content            string             `json:"content"`
	WhQuestions        WhQuestions        `json:"whQuestions,omitempty"`
	EmotionQuiz        EmotionQuiz        `json:"emotionQuiz,omitempty"`
	BmeStory           *BmeStory          `json:"bmeStory,omitempty"`
	SentenceOrder      *SentenceOrder     `json:"sentenceOrder,omitempty"`
	ThreeLineSummary   *ThreeLineSummary  `json:"threeLineSummary,omitempty"`
	SentenceCompletion SentenceCompletion `json:"sentenceCompletion,omitempty"`
	DrawAndTell        *DrawAndTell       `json:"drawAndTell,omitempty"`
}

// MarshalJSON 输出规范 camelCase 结构
func (d Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{Title: d.Title, Content: d.Content}
	for _, p := range d.Activities {
		switch v := p.(type) {
		case WhQuestions:
			out.WhQuestions = v
		case EmotionQuiz:
			out.EmotionQuiz = v
		case BmeStory:
			out.BmeStory = &v
		case SentenceOrder:
			out.SentenceOrder = &v
		case ThreeLineSummary:
			out.ThreeLineSummary = &v
		case SentenceCompletion:
			out.SentenceCompletion = v
		case DrawAndTell:
			out.DrawAndTell = &v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON 严格解析规范结构（存储回读使用；模型输出走 Normalizer）
func (d *Document) UnmarshalJSON(data []byte) error {
	var in documentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = NewDocument(in.Title, in.Content)
	if len(in.WhQuestions) > 0 {
		d.Set(in.WhQuestions)
	}
	if len(in.EmotionQuiz) > 0 {
		d.Set(in.EmotionQuiz)
	}
	if in.BmeStory != nil {
		d.Set(*in.BmeStory)
	}
	if in.SentenceOrder != nil {
		d.Set(*in.SentenceOrder)
	}
	if in.ThreeLineSummary != nil {
		d.Set(*in.ThreeLineSummary)
	}
	if len(in.SentenceCompletion) > 0 {
		d.Set(in.SentenceCompletion)
	}
	if in.DrawAndTell != nil {
		d.Set(*in.DrawAndTell)
	}
	return nil
}
