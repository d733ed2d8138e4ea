package worksheet

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// canonicalFields 规范字段名（活动类型 + 条目字段）
var canonicalFields = []string{
	"title", "content",
	"whQuestions", "emotionQuiz", "bmeStory", "sentenceOrder",
	"threeLineSummary", "sentenceCompletion", "drawAndTell",
	"question", "answer", "options", "correctIndex", "correctAnswer",
	"beginning", "middle", "end",
	"sentences", "correctOrder",
	"line1", "line2", "line3",
	"sentence", "answers", "blanks",
	"prompt", "questions",
}

// extraAliases 模型常见的其它写法
var extraAliases = map[string]string{
	"story":              "content",
	"storytext":          "content",
	"storybody":          "content",
	"storytitle":         "title",
	"bme":                "bmeStory",
	"beginningmiddleend": "bmeStory",
	"summary":            "threeLineSummary",
	"choices":            "options",
	"answerindex":        "correctIndex",
	"correctoptionindex": "correctIndex",
	"correct":            "correctAnswer",
	"correctoption":      "correctAnswer",
	"orderedsentences":   "sentences",
	"drawingprompt":      "prompt",
	"firstline":          "line1",
	"secondline":         "line2",
	"thirdline":          "line3",
}

// keyTable 唯一的键规范化表：squash(别名) -> 规范名
var keyTable = buildKeyTable()

func buildKeyTable() map[string]string {
	t := make(map[string]string, len(canonicalFields)+len(extraAliases))
	for _, f := range canonicalFields {
		t[squashKey(f)] = f
	}
	for alias, f := range extraAliases {
		t[alias] = f
	}
	return t
}

// squashKey 忽略大小写与分隔符，wh_questions / WhQuestions / wh-questions 归一
func squashKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range strings.ToLower(k) {
		switch r {
		case '_', '-', ' ':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// canonicalKey 返回规范名，未知键返回 false
func canonicalKey(k string) (string, bool) {
	c, ok := keyTable[squashKey(k)]
	return c, ok
}

// canonicalize 递归地将 JSON 中的键改写为规范名，丢弃未知键；
// 同一对象中规范写法优先于别名写法
func canonicalize(v gjson.Result) []byte {
	switch {
	case v.IsObject():
		out := []byte("{}")
		exact := make(map[string]bool)
		v.ForEach(func(key, _ gjson.Result) bool {
			if c, ok := canonicalKey(key.String()); ok && c == key.String() {
				exact[c] = true
			}
			return true
		})
		written := make(map[string]bool)
		v.ForEach(func(key, value gjson.Result) bool {
			c, ok := canonicalKey(key.String())
			if !ok || written[c] {
				return true
			}
			if exact[c] && c != key.String() {
				return true
			}
			if next, err := sjson.SetRawBytes(out, c, canonicalize(value)); err == nil {
				out = next
				written[c] = true
			}
			return true
		})
		return out
	case v.IsArray():
		var b strings.Builder
		b.WriteByte('[')
		i := 0
		v.ForEach(func(_, value gjson.Result) bool {
			if i > 0 {
				b.WriteByte(',')
			}
			b.Write(canonicalize(value))
			i++
			return true
		})
		b.WriteByte(']')
		return []byte(b.String())
	case v.Exists():
		return []byte(v.Raw)
	default:
		return []byte("null")
	}
}
