package worksheet

import (
	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"worksheet-ai-api/internal/domain/entity"
	wfnode "worksheet-ai-api/internal/workflow/node"
)

// ParsePath 模型输出的解析路径
type ParsePath string

const (
	PathJSON        ParsePath = "json"
	PathLegacy      ParsePath = "legacy"
	PathPlaceholder ParsePath = "placeholder"
)

// NormalizeResult 规范化结果
type NormalizeResult struct {
	Document entity.Document
	Path     ParsePath
	// Canonical 实际解析的规范 JSON；占位路径为空
	Canonical []byte
	// SchemaErrors schema 诊断信息，仅记录不拒绝
	SchemaErrors []string
}

// Normalize 将模型原始输出转为 Document。
// 全函数：任何输入都返回合法 Document，只包含请求且成功解析的活动。
func Normalize(raw string, kinds []entity.ActivityKind) (res NormalizeResult) {
	defer func() {
		if r := recover(); r != nil {
			res = placeholderResult()
		}
	}()

	text := wfnode.StripCodeFences(raw)
	if root, ok := parseJSONRoot(text); ok {
		canon := canonicalize(root)
		return NormalizeResult{
			Document:  fromCanonical(gjson.ParseBytes(canon), kinds),
			Path:      PathJSON,
			Canonical: canon,
		}
	}
	if canon, ok := parseLegacy(text); ok {
		return NormalizeResult{
			Document:  fromCanonical(gjson.ParseBytes(canon), kinds),
			Path:      PathLegacy,
			Canonical: canon,
		}
	}
	return placeholderResult()
}

func placeholderResult() NormalizeResult {
	return NormalizeResult{
		Document: entity.NewDocument(PlaceholderTitle, PlaceholderContent),
		Path:     PathPlaceholder,
	}
}

// parseJSONRoot 截取第一个 JSON 值；顶层为数组时取第一个对象
func parseJSONRoot(text string) (gjson.Result, bool) {
	candidate := wfnode.ExtractJSONObject(text)
	if candidate == "" || !gjson.Valid(candidate) {
		return gjson.Result{}, false
	}
	root := gjson.Parse(candidate)
	if root.IsArray() {
		root = root.Get("0")
	}
	return root, root.IsObject()
}

// fromCanonical 从规范 JSON 构建 Document，未请求的活动直接忽略
func fromCanonical(root gjson.Result, kinds []entity.ActivityKind) entity.Document {
	doc := entity.NewDocument(
		lo.Ternary(str(root.Get("title")) != "", str(root.Get("title")), PlaceholderTitle),
		lo.Ternary(str(root.Get("content")) != "", str(root.Get("content")), PlaceholderContent),
	)
	for _, k := range entity.OrderedKinds(kinds) {
		v := root.Get(string(k))
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if p := parseKind(k, v, doc.Content); p != nil {
			doc.Set(p)
		}
	}
	return doc
}

func parseKind(k entity.ActivityKind, v gjson.Result, story string) entity.ActivityPayload {
	switch k {
	case entity.ActivityWhQuestions:
		return parseWhQuestions(v, story)
	case entity.ActivityEmotionQuiz:
		return parseEmotionQuiz(v)
	case entity.ActivityBmeStory:
		return parseBmeStory(v)
	case entity.ActivitySentenceOrder:
		return parseSentenceOrder(v)
	case entity.ActivityThreeLineSummary:
		return parseThreeLineSummary(v)
	case entity.ActivitySentenceCompletion:
		return parseSentenceCompletion(v)
	case entity.ActivityDrawAndTell:
		return parseDrawAndTell(v)
	default:
		return nil
	}
}

// items 列表型活动的条目；兼容单个对象与 {"questions": [...]} 包装
func items(v gjson.Result, wrapper string) []gjson.Result {
	if v.IsObject() && wrapper != "" && v.Get(wrapper).IsArray() {
		v = v.Get(wrapper)
	}
	switch {
	case v.IsArray():
		return v.Array()
	case v.IsObject(), v.Type == gjson.String:
		return []gjson.Result{v}
	default:
		return nil
	}
}

func parseWhQuestions(v gjson.Result, story string) entity.ActivityPayload {
	var out entity.WhQuestions
	for _, it := range items(v, "questions") {
		q, a := str(it), ""
		if it.IsObject() {
			q, a = str(it.Get("question")), str(it.Get("answer"))
		}
		if q == "" {
			continue
		}
		out = append(out, entity.WhQuestion{Question: q, Answer: answerOrPlaceholder(a, q, story)})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseEmotionQuiz(v gjson.Result) entity.ActivityPayload {
	var out entity.EmotionQuiz
	for _, it := range items(v, "questions") {
		if !it.IsObject() {
			continue
		}
		q := str(it.Get("question"))
		options := strList(it.Get("options"))
		if q == "" || len(options) == 0 {
			continue
		}
		named := str(it.Get("correctAnswer"))
		if named == "" {
			named = str(it.Get("answer"))
		}
		out = append(out, entity.EmotionQuestion{
			Question:     q,
			Options:      options,
			CorrectIndex: resolveCorrectIndex(options, it.Get("correctIndex"), named),
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseBmeStory(v gjson.Result) entity.ActivityPayload {
	var parts [3]string
	switch {
	case v.IsObject():
		parts = [3]string{str(v.Get("beginning")), str(v.Get("middle")), str(v.Get("end"))}
	case v.IsArray():
		list := strList(v)
		for i := 0; i < len(parts) && i < len(list); i++ {
			parts[i] = list[i]
		}
	default:
		return nil
	}
	if parts[0] == "" && parts[1] == "" && parts[2] == "" {
		return nil
	}
	for i := range parts {
		if parts[i] == "" {
			parts[i] = PlaceholderAnswer
		}
	}
	return entity.BmeStory{Beginning: parts[0], Middle: parts[1], End: parts[2]}
}

func parseSentenceOrder(v gjson.Result) entity.ActivityPayload {
	var sentences []string
	var order []int
	switch {
	case v.IsArray():
		sentences = strList(v)
	case v.IsObject():
		sentences = strList(v.Get("sentences"))
		if co := v.Get("correctOrder"); co.IsArray() {
			for _, x := range co.Array() {
				i, ok := intValue(x)
				if !ok {
					order = nil
					break
				}
				order = append(order, i)
			}
		}
	}
	if len(sentences) < 2 {
		return nil
	}
	if len(order) > 0 {
		sentences = orderByPermutation(sentences, order)
	}
	return entity.SentenceOrder{Sentences: sentences}
}

func parseThreeLineSummary(v gjson.Result) entity.ActivityPayload {
	var lines []string
	switch {
	case v.IsObject():
		lines = []string{str(v.Get("line1")), str(v.Get("line2")), str(v.Get("line3"))}
	case v.IsArray():
		lines = strList(v)
	case v.Type == gjson.String:
		lines = lo.Map(nonEmptyLines(v.Str), func(l string, _ int) string { return stripBullet(l) })
	default:
		return nil
	}
	var s entity.ThreeLineSummary
	for i, l := range lines {
		switch i {
		case 0:
			s.Line1 = l
		case 1:
			s.Line2 = l
		case 2:
			s.Line3 = l
		}
	}
	if s.IsEmpty() {
		return nil
	}
	return s
}

func parseSentenceCompletion(v gjson.Result) entity.ActivityPayload {
	var out entity.SentenceCompletion
	for _, it := range items(v, "") {
		sentence := str(it)
		var answers, blanks []string
		if it.IsObject() {
			sentence = str(it.Get("sentence"))
			answers = strList(it.Get("answers"))
			if len(answers) == 0 {
				answers = strList(it.Get("answer"))
			}
			blanks = strList(it.Get("blanks"))
		}
		if sentence == "" {
			continue
		}
		sentence, answers, blanks = repairCompletion(sentence, answers, blanks)
		out = append(out, entity.CompletionItem{Sentence: sentence, Answers: answers, Blanks: blanks})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseDrawAndTell(v gjson.Result) entity.ActivityPayload {
	var d entity.DrawAndTell
	switch {
	case v.Type == gjson.String:
		d.Prompt = str(v)
	case v.IsObject():
		d.Prompt = str(v.Get("prompt"))
		if qs := strList(v.Get("questions")); len(qs) > 0 {
			d.Questions = qs
		}
	default:
		return nil
	}
	if d.Prompt == "" && len(d.Questions) == 0 {
		return nil
	}
	if d.Prompt == "" {
		d.Prompt = PlaceholderDraw
	}
	return d
}
