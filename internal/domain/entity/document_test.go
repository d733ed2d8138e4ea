package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivityKind(t *testing.T) {
	cases := map[string]ActivityKind{
		"whQuestions":        ActivityWhQuestions,
		"wh_questions":       ActivityWhQuestions,
		"EMOTION_QUIZ":       ActivityEmotionQuiz,
		" bmeStory ":         ActivityBmeStory,
		"sentence-order":     ActivitySentenceOrder,
		"three_line_summary": ActivityThreeLineSummary,
		"sentenceCompletion": ActivitySentenceCompletion,
		"draw_and_tell":      ActivityDrawAndTell,
	}
	for in, want := range cases {
		got, err := ParseActivityKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseActivityKind("crossword")
	assert.Error(t, err)
}

func TestParseActivityKinds_Dedup(t *testing.T) {
	got, err := ParseActivityKinds([]string{"draw_and_tell", "whQuestions", "drawAndTell"})
	require.NoError(t, err)
	assert.Equal(t, []ActivityKind{ActivityDrawAndTell, ActivityWhQuestions}, got)
}

func TestOrderedKinds(t *testing.T) {
	got := OrderedKinds([]ActivityKind{ActivityDrawAndTell, ActivityWhQuestions, "bogus", ActivityDrawAndTell})
	assert.Equal(t, []ActivityKind{ActivityWhQuestions, ActivityDrawAndTell}, got)
}

func TestSnakeName(t *testing.T) {
	assert.Equal(t, "three_line_summary", ActivityThreeLineSummary.SnakeName())
	assert.Equal(t, "wh_questions", ActivityWhQuestions.SnakeName())
}

func TestDocumentJSON_RoundTrip(t *testing.T) {
	doc := NewDocument("Cats", "A cat sat.")
	doc.Set(WhQuestions{{Question: "Who sat?", Answer: "A cat"}})
	doc.Set(EmotionQuiz{{Question: "How does the cat feel?", Options: []string{"Happy", "Sad"}, CorrectIndex: 1}})
	doc.Set(ThreeLineSummary{Line1: "a", Line2: "", Line3: "c"})
	doc.Set(DrawAndTell{Prompt: "Draw the cat"})

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"whQuestions"`)
	assert.Contains(t, string(raw), `"correctIndex":1`)
	assert.NotContains(t, string(raw), `"bmeStory"`)

	var back Document
	require.NoError(t, json.Unmarshal(raw, &back))
	if diff := cmp.Diff(doc, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []ActivityKind{ActivityWhQuestions, ActivityEmotionQuiz, ActivityThreeLineSummary, ActivityDrawAndTell}, back.Kinds())
}

func TestThreeLineSummary_IsEmpty(t *testing.T) {
	assert.True(t, ThreeLineSummary{}.IsEmpty())
	assert.True(t, ThreeLineSummary{Line1: " ", Line3: "\t"}.IsEmpty())
	assert.False(t, ThreeLineSummary{Line2: "b"}.IsEmpty())
}

func TestDocument_TypedAccessors(t *testing.T) {
	doc := NewDocument("t", "c")
	_, ok := doc.BmeStory()
	assert.False(t, ok)

	doc.Set(BmeStory{Beginning: "b"})
	bme, ok := doc.BmeStory()
	require.True(t, ok)
	assert.Equal(t, "b", bme.Beginning)
}

func TestUser_UsageIn(t *testing.T) {
	u := &User{MonthlyGeneratedCount: 7, LastGenerationMonth: 3, LastGenerationYear: 2025}
	assert.Equal(t, 7, u.UsageIn(3, 2025))
	assert.Equal(t, 0, u.UsageIn(4, 2025))
	assert.Equal(t, 0, u.UsageIn(3, 2026))

	var missing *User
	assert.Equal(t, 0, missing.UsageIn(3, 2025))
}

func TestWorksheetRecord_Documents(t *testing.T) {
	doc := NewDocument("Cats", "A cat sat.")
	doc.Set(SentenceOrder{Sentences: []string{"one", "two"}})

	rec, err := NewWorksheetRecord("id-1", "user-1", []string{"Cats"}, []ActivityKind{ActivitySentenceOrder}, 2, 3, []Document{doc})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.DocumentCount)
	assert.Equal(t, []ActivityKind{ActivitySentenceOrder}, rec.Kinds())
	assert.WithinDuration(t, time.Now(), rec.CreatedAt, time.Minute)

	docs, err := rec.DecodeDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	if diff := cmp.Diff(doc, docs[0], cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("decoded document mismatch (-want +got):\n%s", diff)
	}
}
