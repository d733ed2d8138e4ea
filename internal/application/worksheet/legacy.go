package worksheet

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/sjson"
)

// 旧版纯文本格式：以大写标记分段，例如 STORY: / QUESTIONS: / BEGINNING:
var (
	markerPattern = regexp.MustCompile(`(?m)^[ \t]*(?:#+[ \t]*)?(?:\*\*)?(TITLE|STORY|QUESTIONS|EMOTIONS|BEGINNING|MIDDLE|END|SENTENCES|SUMMARY|COMPLETE|DRAW)(?:\*\*)?[ \t]*:(?:\*\*)?[ \t]*`)
	bulletPattern = regexp.MustCompile(`^\s*(?:[-*•]\s*|\d+[.)]\s*|Q\d*[.):]\s*)`)
	answerLine    = regexp.MustCompile(`(?i)^\s*(?:answer|ans|a)\s*[:\-]\s*(.*)$`)
	inlineAnswer  = regexp.MustCompile(`(?i)^(.*?)\s*[(\[]?\s*\b(?:answer|ans)\s*[:\-]\s*(.*?)[)\]]?\s*$`)
	optionLine    = regexp.MustCompile(`^\s*\(?([A-Ha-h])[.)]\s+(.+)$`)
)

// parseLegacy 解析标记分段文本，转为规范 JSON；没有任何可用段落时返回 false
func parseLegacy(text string) ([]byte, bool) {
	locs := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil, false
	}

	sections := make(map[string]string, len(locs))
	for i, loc := range locs {
		name := text[loc[2]:loc[3]]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, dup := sections[name]; dup {
			continue
		}
		sections[name] = strings.TrimSpace(text[loc[1]:end])
	}

	hasContent := lo.SomeBy(lo.Values(sections), func(s string) bool { return s != "" })
	if !hasContent {
		return nil, false
	}

	out := []byte("{}")
	set := func(path string, v any) {
		raw, err := json.Marshal(v)
		if err != nil {
			return
		}
		if next, err := sjson.SetRawBytes(out, path, raw); err == nil {
			out = next
		}
	}

	if lines := nonEmptyLines(sections["TITLE"]); len(lines) > 0 {
		set("title", lines[0])
	}
	if story := sections["STORY"]; story != "" {
		set("content", story)
	}
	if qs := legacyQuestions(sections["QUESTIONS"]); len(qs) > 0 {
		set("whQuestions", qs)
	}
	if eq := legacyEmotions(sections["EMOTIONS"]); len(eq) > 0 {
		set("emotionQuiz", eq)
	}
	if sections["BEGINNING"] != "" || sections["MIDDLE"] != "" || sections["END"] != "" {
		set("bmeStory", map[string]string{
			"beginning": sections["BEGINNING"],
			"middle":    sections["MIDDLE"],
			"end":       sections["END"],
		})
	}
	if lines := bulletLines(sections["SENTENCES"]); len(lines) > 0 {
		set("sentenceOrder", map[string]any{"sentences": lines})
	}
	if lines := bulletLines(sections["SUMMARY"]); len(lines) > 0 {
		set("threeLineSummary", lines)
	}
	if items := legacyCompletions(sections["COMPLETE"]); len(items) > 0 {
		set("sentenceCompletion", items)
	}
	if lines := bulletLines(sections["DRAW"]); len(lines) > 0 {
		set("drawAndTell", map[string]any{"prompt": lines[0], "questions": lines[1:]})
	}
	return out, true
}

func nonEmptyLines(s string) []string {
	lines := lo.Map(strings.Split(s, "\n"), func(l string, _ int) string { return strings.TrimSpace(l) })
	return lo.Filter(lines, func(l string, _ int) bool { return l != "" })
}

func stripBullet(s string) string {
	return strings.TrimSpace(bulletPattern.ReplaceAllString(s, ""))
}

func bulletLines(s string) []string {
	lines := lo.Map(nonEmptyLines(s), func(l string, _ int) string { return stripBullet(l) })
	return lo.Filter(lines, func(l string, _ int) bool { return l != "" })
}

func splitInlineAnswer(line string) (string, string) {
	if m := inlineAnswer.FindStringSubmatch(line); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	return line, ""
}

func legacyQuestions(body string) []map[string]string {
	var out []map[string]string
	for _, l := range nonEmptyLines(body) {
		if m := answerLine.FindStringSubmatch(l); m != nil {
			if n := len(out); n > 0 && out[n-1]["answer"] == "" {
				out[n-1]["answer"] = strings.TrimSpace(m[1])
			}
			continue
		}
		q, a := splitInlineAnswer(stripBullet(l))
		if q == "" {
			continue
		}
		out = append(out, map[string]string{"question": q, "answer": a})
	}
	return out
}

func legacyEmotions(body string) []map[string]any {
	var out []map[string]any
	for _, l := range nonEmptyLines(body) {
		n := len(out)
		if m := answerLine.FindStringSubmatch(l); m != nil {
			if n > 0 {
				out[n-1]["correctAnswer"] = strings.TrimSpace(m[1])
			}
			continue
		}
		if m := optionLine.FindStringSubmatch(l); m != nil && n > 0 {
			opts, _ := out[n-1]["options"].([]string)
			out[n-1]["options"] = append(opts, strings.TrimSpace(m[2]))
			continue
		}
		q, a := splitInlineAnswer(stripBullet(l))
		if q == "" {
			continue
		}
		item := map[string]any{"question": q, "options": []string{}}
		if a != "" {
			item["correctAnswer"] = a
		}
		out = append(out, item)
	}
	return out
}

func legacyCompletions(body string) []map[string]any {
	var out []map[string]any
	for _, l := range bulletLines(body) {
		sentence, answer := splitInlineAnswer(l)
		item := map[string]any{"sentence": sentence}
		if answer != "" {
			item["answers"] = []string{answer}
		}
		out = append(out, item)
	}
	return out
}
