// Package worksheet 实现练习册生成流程：提示词构建、模型输出规范化、并发生成与权益编排
package worksheet

import (
	"encoding/json"
	"fmt"
	"strings"

	"worksheet-ai-api/internal/domain/entity"
)

const (
	MinLevel = 1
	MaxLevel = 5
)

// PromptInput 单篇练习册的提示词输入
type PromptInput struct {
	Topic        string
	ReadingLevel int
	WritingLevel int
	Kinds        []entity.ActivityKind
	// SeedWords 调用方提供的目标词汇，原样插入提示词
	SeedWords []string
}

// readingLevels 阅读难度描述与故事句数
var readingLevels = [MaxLevel + 1]struct {
	desc      string
	sentences int
}{
	{},
	{"very simple words, 3 to 6 words per sentence, present tense", 5},
	{"simple everyday words, 5 to 8 words per sentence", 6},
	{"familiar words with a few new ones, up to 10 words per sentence", 8},
	{"varied vocabulary, up to 14 words per sentence", 10},
	{"richer vocabulary and some compound sentences, up to 18 words per sentence", 12},
}

// writingLevels 作答难度描述
var writingLevels = [MaxLevel + 1]string{
	"",
	"answers are single words",
	"answers are short phrases of 2 to 4 words",
	"answers are one short sentence",
	"answers are one or two sentences",
	"answers are complete sentences with a detail from the story",
}

// ClampLevel 将等级限制在 1..5
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// BuildPrompt 构建确定性的用户提示词：相同输入始终得到相同输出
func BuildPrompt(in PromptInput) string {
	reading := ClampLevel(in.ReadingLevel)
	writing := ClampLevel(in.WritingLevel)
	kinds := entity.OrderedKinds(in.Kinds)
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		topic = "a friendly animal"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a short, calm and predictable story for a child about: %s.\n", topic)
	fmt.Fprintf(&b, "Reading level: %d of %d (%s). Use about %d sentences.\n",
		reading, MaxLevel, readingLevels[reading].desc, readingLevels[reading].sentences)
	fmt.Fprintf(&b, "Writing level: %d of %d (%s).\n", writing, MaxLevel, writingLevels[writing])
	b.WriteString("Use literal language, name feelings clearly and avoid idioms, sarcasm or scary events.\n")

	if words := cleanSeedWords(in.SeedWords); len(words) > 0 {
		fmt.Fprintf(&b, "Use each of these words in the story at least once: %s.\n", strings.Join(words, ", "))
	}

	if len(kinds) > 0 {
		b.WriteString("\nThen create these activities based only on the story:\n")
		for _, k := range kinds {
			fmt.Fprintf(&b, "- %s: %s\n", k, activityInstruction(k, writing))
		}
	}

	b.WriteString("\nRespond with one JSON object only. Do not add Markdown or commentary. Use exactly this shape:\n")
	b.WriteString(responseShape(kinds))
	b.WriteString("\n\nJSON Schema:\n")
	schema, _ := json.Marshal(ResponseSchema(kinds))
	b.Write(schema)
	b.WriteString("\n")
	return b.String()
}

func cleanSeedWords(words []string) []string {
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		key := strings.ToLower(w)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, w)
	}
	return out
}

func activityInstruction(k entity.ActivityKind, writing int) string {
	questions := 3 + writing/2
	switch k {
	case entity.ActivityWhQuestions:
		return fmt.Sprintf("%d who/what/where/when/why questions, each with the answer found in the story", questions)
	case entity.ActivityEmotionQuiz:
		return "2 or 3 questions about how a character feels, each with 3 feeling options and the index of the correct option"
	case entity.ActivityBmeStory:
		return "what happens at the beginning, in the middle and at the end of the story"
	case entity.ActivitySentenceOrder:
		return "4 to 6 short sentences from the story listed in the correct order"
	case entity.ActivityThreeLineSummary:
		return "a model three-line summary of the story"
	case entity.ActivitySentenceCompletion:
		return fmt.Sprintf("%d sentences from the story with one word replaced by ____, with the missing words as answers and \"____\" as blanks", questions)
	case entity.ActivityDrawAndTell:
		return "a drawing prompt about the story and 1 or 2 questions about the drawing"
	default:
		return ""
	}
}

// kindShapes 每种活动在响应中的示例结构
var kindShapes = map[entity.ActivityKind]string{
	entity.ActivityWhQuestions:        `[{"question": "...", "answer": "..."}]`,
	entity.ActivityEmotionQuiz:        `[{"question": "...", "options": ["...", "...", "..."], "correctIndex": 0}]`,
	entity.ActivityBmeStory:           `{"beginning": "...", "middle": "...", "end": "..."}`,
	entity.ActivitySentenceOrder:      `{"sentences": ["...", "...", "..."]}`,
	entity.ActivityThreeLineSummary:   `{"line1": "...", "line2": "...", "line3": "..."}`,
	entity.ActivitySentenceCompletion: `[{"sentence": "The cat sat on the ____.", "answers": ["mat"], "blanks": ["____"]}]`,
	entity.ActivityDrawAndTell:        `{"prompt": "...", "questions": ["..."]}`,
}

func responseShape(kinds []entity.ActivityKind) string {
	var b strings.Builder
	b.WriteString("{\n  \"title\": \"...\",\n  \"content\": \"...\"")
	for _, k := range kinds {
		fmt.Fprintf(&b, ",\n  %q: %s", string(k), kindShapes[k])
	}
	b.WriteString("\n}")
	return b.String()
}
