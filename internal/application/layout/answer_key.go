package layout

import (
	"fmt"
	"strings"

	"worksheet-ai-api/internal/domain/entity"
)

// DrawAndTellNote 绘画活动没有标准答案，答案页给出固定提示
const DrawAndTellNote = "Answers will vary. Praise effort and details in the drawing."

// answerKeyPage 与练习页同构，空白作答处替换为答案
func answerKeyPage(item StoryDocument, kinds []entity.ActivityKind) Page {
	doc := item.Document
	page := Page{
		Kind:       PageAnswerKey,
		StoryIndex: item.StoryIndex,
		Blocks:     []Block{Heading("Answer Key: "+doc.Title, 1)},
	}
	for _, k := range kinds {
		page.Blocks = append(page.Blocks, answerBlocks(doc, k)...)
	}
	return page
}

func answerBlocks(doc entity.Document, k entity.ActivityKind) []Block {
	blocks := []Block{Heading(sectionTitles[k], 2)}

	switch k {
	case entity.ActivityWhQuestions:
		qs, _ := doc.WhQuestions()
		for i, q := range qs {
			blocks = append(blocks, Heading(numbered(i, q.Question), 3), AnswerLine(q.Answer))
		}

	case entity.ActivitySentenceOrder:
		so, _ := doc.SentenceOrder()
		for i, s := range so.Sentences {
			blocks = append(blocks, Paragraph(numbered(i, s)))
		}

	case entity.ActivityEmotionQuiz:
		quiz, _ := doc.EmotionQuiz()
		for i, q := range quiz {
			blocks = append(blocks, Heading(numbered(i, q.Question), 3))
			for j, opt := range q.Options {
				blocks = append(blocks, Choice(j, opt, j == q.CorrectIndex))
			}
		}

	case entity.ActivityBmeStory:
		bme, _ := doc.BmeStory()
		for i, text := range []string{bme.Beginning, bme.Middle, bme.End} {
			blocks = append(blocks, Heading(bmeParts[i], 3), AnswerLine(text))
		}

	case entity.ActivitySentenceCompletion:
		items, _ := doc.SentenceCompletion()
		for i, it := range items {
			blocks = append(blocks, Paragraph(numbered(i, it.Sentence)), AnswerLine(strings.Join(it.Answers, ", ")))
		}

	case entity.ActivityThreeLineSummary:
		sum, _ := doc.ThreeLineSummary()
		lines := sum.Lines()
		written := 0
		for i, line := range lines {
			if line == "" {
				continue
			}
			blocks = append(blocks, Heading(fmt.Sprintf("Line %d", i+1), 3), AnswerLine(line))
			written++
		}
		if written == 0 {
			return nil
		}

	case entity.ActivityDrawAndTell:
		blocks = append(blocks, Paragraph(DrawAndTellNote))
	}
	return blocks
}
