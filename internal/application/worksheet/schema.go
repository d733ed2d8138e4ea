package worksheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"worksheet-ai-api/internal/domain/entity"
)

// ResponseSchema 返回模型响应的 JSON Schema，仅包含请求的活动字段
// 说明：schema 以“最小可用”为目标，不限制额外字段，避免过度约束导致模型输出失败。
func ResponseSchema(kinds []entity.ActivityKind) map[string]any {
	ordered := entity.OrderedKinds(kinds)
	required := []any{"title", "content"}
	props := map[string]any{
		"title":   map[string]any{"type": "string"},
		"content": map[string]any{"type": "string"},
	}
	for _, k := range ordered {
		required = append(required, string(k))
		props[string(k)] = kindSchema(k)
	}
	return map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"required":   required,
		"properties": props,
	}
}

func kindSchema(k entity.ActivityKind) map[string]any {
	str := map[string]any{"type": "string"}
	strList := map[string]any{"type": "array", "items": str}
	object := func(required []any, props map[string]any) map[string]any {
		return map[string]any{"type": "object", "required": required, "properties": props}
	}
	list := func(item map[string]any) map[string]any {
		return map[string]any{"type": "array", "minItems": 1, "items": item}
	}

	switch k {
	case entity.ActivityWhQuestions:
		return list(object([]any{"question", "answer"}, map[string]any{"question": str, "answer": str}))
	case entity.ActivityEmotionQuiz:
		return list(object([]any{"question", "options", "correctIndex"}, map[string]any{
			"question":     str,
			"options":      map[string]any{"type": "array", "minItems": 2, "items": str},
			"correctIndex": map[string]any{"type": "integer", "minimum": 0},
		}))
	case entity.ActivityBmeStory:
		return object([]any{"beginning", "middle", "end"}, map[string]any{"beginning": str, "middle": str, "end": str})
	case entity.ActivitySentenceOrder:
		return object([]any{"sentences"}, map[string]any{"sentences": map[string]any{"type": "array", "minItems": 2, "items": str}})
	case entity.ActivityThreeLineSummary:
		return object([]any{"line1", "line2", "line3"}, map[string]any{"line1": str, "line2": str, "line3": str})
	case entity.ActivitySentenceCompletion:
		return list(object([]any{"sentence", "answers", "blanks"}, map[string]any{"sentence": str, "answers": strList, "blanks": strList}))
	case entity.ActivityDrawAndTell:
		return object([]any{"prompt"}, map[string]any{"prompt": str, "questions": strList})
	default:
		return map[string]any{}
	}
}

// SchemaValidator 基于 ResponseSchema 的校验器，仅用于诊断，不拒绝文档
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator 编译指定活动组合的 schema
func NewSchemaValidator(kinds []entity.ActivityKind) (*SchemaValidator, error) {
	raw, err := json.Marshal(ResponseSchema(kinds))
	if err != nil {
		return nil, fmt.Errorf("marshal response schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("worksheet.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("load response schema: %w", err)
	}
	schema, err := compiler.Compile("worksheet.json")
	if err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	return &SchemaValidator{schema: schema}, nil
}

// Validate 返回违反 schema 的位置与原因，合法时返回 nil
func (v *SchemaValidator) Validate(doc []byte) []string {
	if v == nil || v.schema == nil {
		return nil
	}
	var decoded any
	if err := json.Unmarshal(doc, &decoded); err != nil {
		return []string{fmt.Sprintf("invalid json: %v", err)}
	}
	err := v.schema.Validate(decoded)
	if err == nil {
		return nil
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	var out []string
	for _, e := range ve.BasicOutput().Errors {
		if strings.TrimSpace(e.Error) == "" {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		out = append(out, loc+": "+e.Error)
	}
	if len(out) == 0 {
		out = append(out, ve.Error())
	}
	return out
}
