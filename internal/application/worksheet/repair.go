package worksheet

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// 占位文本，带明确标识，便于教师识别缺失内容
const (
	PlaceholderTitle   = "My Story"
	PlaceholderContent = "(story unavailable, please try again)"
	PlaceholderAnswer  = "(answer not provided)"
	PlaceholderDraw    = "Draw your favorite part of the story."
	BlankMarker        = "____"
)

// blankPattern 句子中的空位标记
var blankPattern = regexp.MustCompile(`_{2,}|\[blank\]|\(\s*\)`)

var stopWords = map[string]struct{}{
	"who": {}, "what": {}, "where": {}, "when": {}, "why": {}, "how": {}, "which": {},
	"whose": {}, "whom": {}, "did": {}, "does": {}, "do": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "the": {}, "a": {}, "an": {}, "of": {}, "to": {}, "in": {},
	"on": {}, "at": {}, "for": {}, "with": {}, "and": {}, "or": {}, "his": {}, "her": {},
	"their": {}, "it": {}, "its": {}, "this": {}, "that": {}, "be": {}, "has": {},
	"have": {}, "had": {}, "story": {}, "happen": {}, "happened": {}, "feel": {},
}

// str 读取字符串值；数字与布尔取原文，其它类型返回空串
func str(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return strings.TrimSpace(r.Str)
	case gjson.Number, gjson.True, gjson.False:
		return strings.TrimSpace(r.Raw)
	default:
		return ""
	}
}

// strList 读取字符串数组；单个字符串视为一个元素；去掉空串
func strList(r gjson.Result) []string {
	if r.IsArray() {
		items := lo.Map(r.Array(), func(v gjson.Result, _ int) string { return str(v) })
		return lo.Filter(items, func(s string, _ int) bool { return s != "" })
	}
	if s := str(r); s != "" {
		return []string{s}
	}
	return nil
}

// intValue 读取整数：数字或数字字符串
func intValue(r gjson.Result) (int, bool) {
	switch r.Type {
	case gjson.Number:
		f := r.Float()
		if f != float64(int(f)) {
			return 0, false
		}
		return int(f), true
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func keywords(s string) []string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	words = lo.Filter(words, func(w string, _ int) bool {
		_, stop := stopWords[w]
		return !stop && len(w) > 1
	})
	return lo.Uniq(words)
}

// splitSentences 按句末标点切分，保留标点
func splitSentences(text string) []string {
	var out []string
	runes := []rune(strings.TrimSpace(text))
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// deriveAnswer 从故事中找出与问题关键词重合最多的句子，找不到时返回空串
func deriveAnswer(question, story string) string {
	keys := keywords(question)
	if len(keys) == 0 {
		return ""
	}
	best, bestScore := "", 0
	for _, sentence := range splitSentences(story) {
		words := keywords(sentence)
		score := 0
		for _, k := range keys {
			if lo.Contains(words, k) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = sentence, score
		}
	}
	return best
}

// answerOrPlaceholder 缺失答案时先尝试从故事推导，再使用占位文本
func answerOrPlaceholder(answer, question, story string) string {
	if answer != "" {
		return answer
	}
	if derived := deriveAnswer(question, story); derived != "" {
		return derived
	}
	return PlaceholderAnswer
}

// resolveCorrectIndex 解析正确选项：索引 -> 选项名 -> 字母；均失败时返回 0
func resolveCorrectIndex(options []string, index gjson.Result, named string) int {
	inRange := func(i int) bool { return i >= 0 && i < len(options) }

	if i, ok := intValue(index); ok && inRange(i) {
		return i
	}
	candidates := []string{named}
	if index.Type == gjson.String {
		candidates = append(candidates, index.Str)
	}
	for _, c := range candidates {
		if i := matchOption(options, c); inRange(i) {
			return i
		}
	}
	return 0
}

func matchOption(options []string, name string) int {
	name = strings.TrimSpace(name)
	if name == "" {
		return -1
	}
	for i, o := range options {
		if strings.EqualFold(o, name) {
			return i
		}
	}
	letter := strings.TrimRight(strings.ToUpper(name), ".)")
	if len(letter) == 1 && letter[0] >= 'A' && letter[0] <= 'Z' {
		return int(letter[0] - 'A')
	}
	lower := strings.ToLower(name)
	for i, o := range options {
		if strings.Contains(lower, strings.ToLower(o)) {
			return i
		}
	}
	return -1
}

// repairCompletion 保证 blanks 均出现在句子中且 len(answers) == len(blanks)
func repairCompletion(sentence string, answers, rawBlanks []string) (string, []string, []string) {
	blanks := lo.Filter(rawBlanks, func(b string, _ int) bool { return strings.Contains(sentence, b) })
	if len(blanks) == 0 {
		blanks = blankPattern.FindAllString(sentence, -1)
	}
	if len(blanks) == 0 {
		for _, a := range answers {
			if idx := indexFold(sentence, a); idx >= 0 {
				sentence = sentence[:idx] + BlankMarker + sentence[idx+len(a):]
				blanks = append(blanks, BlankMarker)
			}
		}
	}
	if len(blanks) == 0 {
		sentence = strings.TrimSpace(sentence) + " " + BlankMarker
		blanks = []string{BlankMarker}
	}

	out := make([]string, len(blanks))
	for i := range out {
		if i < len(answers) && answers[i] != "" {
			out[i] = answers[i]
		} else {
			out[i] = PlaceholderAnswer
		}
	}
	return sentence, out, blanks
}

// indexFold 大小写不敏感地查找整词
func indexFold(s, sub string) int {
	if sub == "" {
		return -1
	}
	ls, lsub := strings.ToLower(s), strings.ToLower(sub)
	if len(ls) != len(s) || len(lsub) != len(sub) {
		return strings.Index(s, sub)
	}
	from := 0
	for {
		i := strings.Index(ls[from:], lsub)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(lsub)
		leftOK := i == 0 || !isWordByte(ls[i-1])
		rightOK := end == len(ls) || !isWordByte(ls[end])
		if leftOK && rightOK {
			return i
		}
		from = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b == '\'' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// orderByPermutation 按 correctOrder 重排句子；支持 0 基与 1 基，非法排列时原样返回
func orderByPermutation(sentences []string, order []int) []string {
	n := len(sentences)
	if len(order) != n || n == 0 {
		return sentences
	}
	base := 0
	if lo.Min(order) == 1 {
		base = 1
	}
	seen := make([]bool, n)
	out := make([]string, n)
	for pos, idx := range order {
		idx -= base
		if idx < 0 || idx >= n || seen[idx] {
			return sentences
		}
		seen[idx] = true
		out[pos] = sentences[idx]
	}
	return out
}
