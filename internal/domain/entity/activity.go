// Package entity 定义领域实体
package entity

import (
	"fmt"
	"strings"
)

// ActivityKind 练习活动类型（封闭枚举）
type ActivityKind string

const (
	ActivityWhQuestions        ActivityKind = "whQuestions"
	ActivityEmotionQuiz        ActivityKind = "emotionQuiz"
	ActivityBmeStory           ActivityKind = "bmeStory"
	ActivitySentenceOrder      ActivityKind = "sentenceOrder"
	ActivityThreeLineSummary   ActivityKind = "threeLineSummary"
	ActivitySentenceCompletion ActivityKind = "sentenceCompletion"
	ActivityDrawAndTell        ActivityKind = "drawAndTell"
)

// allActivityKinds 固定顺序，提示词、解析、渲染均按此顺序遍历
var allActivityKinds = []ActivityKind{
	ActivityWhQuestions,
	ActivityEmotionQuiz,
	ActivityBmeStory,
	ActivitySentenceOrder,
	ActivityThreeLineSummary,
	ActivitySentenceCompletion,
	ActivityDrawAndTell,
}

// activityLabels 面向用户的名称
var activityLabels = map[ActivityKind]string{
	ActivityWhQuestions:        "WH Questions",
	ActivityEmotionQuiz:        "Emotion Quiz",
	ActivityBmeStory:           "Beginning, Middle, End",
	ActivitySentenceOrder:      "Sentence Order",
	ActivityThreeLineSummary:   "Three-Line Summary",
	ActivitySentenceCompletion: "Sentence Completion",
	ActivityDrawAndTell:        "Draw and Tell",
}

// AllActivityKinds 返回全部活动类型（固定顺序）
func AllActivityKinds() []ActivityKind {
	out := make([]ActivityKind, len(allActivityKinds))
	copy(out, allActivityKinds)
	return out
}

// Valid 是否为已知类型
func (k ActivityKind) Valid() bool {
	_, ok := activityLabels[k]
	return ok
}

// Label 返回展示名称
func (k ActivityKind) Label() string {
	if l, ok := activityLabels[k]; ok {
		return l
	}
	return string(k)
}

// SnakeName 返回 snake_case 别名
func (k ActivityKind) SnakeName() string {
	var b strings.Builder
	for i, r := range string(k) {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseActivityKind 解析活动类型，接受 camelCase、snake_case，大小写不敏感
func ParseActivityKind(s string) (ActivityKind, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	norm = strings.ReplaceAll(norm, "-", "")
	for _, k := range allActivityKinds {
		if strings.ToLower(string(k)) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown activity kind %q", s)
}

// ParseActivityKinds 批量解析并去重，保持首次出现顺序
func ParseActivityKinds(names []string) ([]ActivityKind, error) {
	out := make([]ActivityKind, 0, len(names))
	seen := make(map[ActivityKind]struct{}, len(names))
	for _, n := range names {
		k, err := ParseActivityKind(n)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out, nil
}

// OrderedKinds 将请求的类型按固定顺序排列并去重
func OrderedKinds(kinds []ActivityKind) []ActivityKind {
	set := NewKindSet(kinds)
	out := make([]ActivityKind, 0, len(set))
	for _, k := range allActivityKinds {
		if set.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// KindSet 活动类型集合
type KindSet map[ActivityKind]struct{}

// NewKindSet 创建集合，忽略未知类型
func NewKindSet(kinds []ActivityKind) KindSet {
	s := make(KindSet, len(kinds))
	for _, k := range kinds {
		if k.Valid() {
			s[k] = struct{}{}
		}
	}
	return s
}

// Has 是否包含
func (s KindSet) Has(k ActivityKind) bool {
	_, ok := s[k]
	return ok
}

// KindStrings 转为字符串切片（固定顺序）
func KindStrings(kinds []ActivityKind) []string {
	ordered := OrderedKinds(kinds)
	out := make([]string, len(ordered))
	for i, k := range ordered {
		out[i] = string(k)
	}
	return out
}
