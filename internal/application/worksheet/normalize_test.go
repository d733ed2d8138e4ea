package worksheet

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksheet-ai-api/internal/application/layout"
	"worksheet-ai-api/internal/domain/entity"
)

var allKinds = entity.AllActivityKinds()

const fullResponse = `{
  "title": "Cats",
  "content": "A cat sat on the mat. The cat felt happy in the sun.",
  "whQuestions": [{"question": "Who sat?", "answer": "A cat"}],
  "emotionQuiz": [{"question": "How did the cat feel?", "options": ["Sad", "Happy", "Angry"], "correctIndex": 1}],
  "bmeStory": {"beginning": "A cat sat.", "middle": "The sun came out.", "end": "The cat was happy."},
  "sentenceOrder": {"sentences": ["A cat sat on the mat.", "The sun came out.", "The cat felt happy."]},
  "threeLineSummary": {"line1": "A cat sat.", "line2": "The sun was warm.", "line3": "The cat was happy."},
  "sentenceCompletion": [{"sentence": "The cat sat on the ____.", "answers": ["mat"], "blanks": ["____"]}],
  "drawAndTell": {"prompt": "Draw the cat in the sun.", "questions": ["What color is your cat?"]}
}`

func TestNormalize_Totality(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"<html><body>502 Bad Gateway</body></html>",
		"{not json at all",
		"```json\n{\"title\": \"broken\"",
		"[]",
		"null",
		`{"title": 42, "content": ["x"], "whQuestions": "nope", "emotionQuiz": [{"options": []}]}`,
		strings.Repeat("{", 500),
		"STORY:",
		"\x00\xff\xfe",
	}
	for _, in := range inputs {
		res := Normalize(in, allKinds)
		assert.NotEmpty(t, res.Document.Title, "input %q", in)
		assert.NotEmpty(t, res.Document.Content, "input %q", in)
		assertInvariants(t, res.Document)
	}

	res := Normalize("<html>error</html>", allKinds)
	assert.Equal(t, PathPlaceholder, res.Path)
	assert.Equal(t, PlaceholderTitle, res.Document.Title)
	assert.Equal(t, PlaceholderContent, res.Document.Content)
	assert.Empty(t, res.Document.Activities)
}

func TestNormalize_FullJSON(t *testing.T) {
	res := Normalize(fullResponse, allKinds)
	require.Equal(t, PathJSON, res.Path)
	assert.Equal(t, "Cats", res.Document.Title)
	assert.Equal(t, allKinds, res.Document.Kinds())

	wh, ok := res.Document.WhQuestions()
	require.True(t, ok)
	assert.Equal(t, "A cat", wh[0].Answer)

	eq, _ := res.Document.EmotionQuiz()
	assert.Equal(t, 1, eq[0].CorrectIndex)
	assertInvariants(t, res.Document)
}

func TestNormalize_KindFiltering(t *testing.T) {
	requested := []entity.ActivityKind{entity.ActivityWhQuestions, entity.ActivityDrawAndTell}
	res := Normalize(fullResponse, requested)
	assert.Equal(t, requested, res.Document.Kinds())

	res = Normalize(fullResponse, nil)
	assert.Empty(t, res.Document.Activities)
	assert.Equal(t, "Cats", res.Document.Title)
}

func TestNormalize_StripsFences(t *testing.T) {
	res := Normalize("```json\n"+fullResponse+"\n```", allKinds)
	assert.Equal(t, PathJSON, res.Path)
	assert.Len(t, res.Document.Activities, len(allKinds))
}

func TestNormalize_SnakeCaseKeys(t *testing.T) {
	raw := `{
		"story_title": "Dogs",
		"story": "A dog ran to the park.",
		"wh_questions": [{"question": "Where did the dog run?", "answer": "To the park"}],
		"emotion_quiz": [{"question": "How did the dog feel?", "choices": ["Happy", "Sad"], "correct_answer": "sad"}],
		"three_line_summary": {"line_1": "A dog ran.", "line_2": "It was fun.", "line_3": "The end."},
		"draw_and_tell": {"drawing_prompt": "Draw the dog."}
	}`
	kinds := []entity.ActivityKind{entity.ActivityWhQuestions, entity.ActivityEmotionQuiz, entity.ActivityThreeLineSummary, entity.ActivityDrawAndTell}
	res := Normalize(raw, kinds)

	require.Equal(t, PathJSON, res.Path)
	assert.Equal(t, "Dogs", res.Document.Title)
	assert.Equal(t, "A dog ran to the park.", res.Document.Content)
	assert.Equal(t, kinds, res.Document.Kinds())

	eq, _ := res.Document.EmotionQuiz()
	assert.Equal(t, []string{"Happy", "Sad"}, eq[0].Options)
	assert.Equal(t, 1, eq[0].CorrectIndex)

	sum, _ := res.Document.ThreeLineSummary()
	assert.Equal(t, "It was fun.", sum.Line2)

	draw, _ := res.Document.DrawAndTell()
	assert.Equal(t, "Draw the dog.", draw.Prompt)
}

func TestNormalize_CanonicalKeyWinsOverAlias(t *testing.T) {
	res := Normalize(`{"title": "T", "story": "alias", "content": "canonical"}`, nil)
	assert.Equal(t, "canonical", res.Document.Content)
}

func TestNormalize_CorrectIndexValidity(t *testing.T) {
	raw := `{"title": "T", "content": "c", "emotionQuiz": [
		{"question": "q1", "options": ["a", "b", "c"], "correctIndex": 7},
		{"question": "q2", "options": ["calm", "upset"], "correctIndex": "1"},
		{"question": "q3", "options": ["calm", "upset"], "correctAnswer": "B"},
		{"question": "q4", "options": ["calm", "upset"], "correctIndex": -2},
		{"question": "q5", "options": ["calm", "upset"], "answer": "Upset"},
		{"question": "q6", "options": ["calm", "upset"], "correctIndex": "upset"},
		{"question": "q7", "options": []}
	]}`
	res := Normalize(raw, []entity.ActivityKind{entity.ActivityEmotionQuiz})
	eq, ok := res.Document.EmotionQuiz()
	require.True(t, ok)
	require.Len(t, eq, 6)

	got := make([]int, len(eq))
	for i, q := range eq {
		got[i] = q.CorrectIndex
		assert.True(t, q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options))
	}
	assert.Equal(t, []int{0, 1, 1, 0, 1, 1}, got)
}

func TestNormalize_CompletionBlankEquality(t *testing.T) {
	raw := `{"title": "T", "content": "The cat sat on the mat.", "sentenceCompletion": [
		{"sentence": "The cat sat on the ____.", "answers": ["mat", "extra"], "blanks": ["____"]},
		{"sentence": "The ____ sat on the ____.", "answers": ["cat"]},
		{"sentence": "The cat sat on the mat.", "answers": ["mat"]},
		{"sentence": "No markers here", "answers": []},
		{"sentence": "", "answers": ["x"]},
		"The ___ was warm."
	]}`
	res := Normalize(raw, []entity.ActivityKind{entity.ActivitySentenceCompletion})
	sc, ok := res.Document.SentenceCompletion()
	require.True(t, ok)
	require.Len(t, sc, 5)

	for _, item := range sc {
		assert.Equal(t, len(item.Blanks), len(item.Answers), item.Sentence)
		for _, b := range item.Blanks {
			assert.Contains(t, item.Sentence, b)
		}
	}
	assert.Equal(t, []string{"mat"}, sc[0].Answers)
	assert.Equal(t, []string{"cat", PlaceholderAnswer}, sc[1].Answers)
	assert.Equal(t, "The cat sat on the ____.", sc[2].Sentence)
	assert.Equal(t, "No markers here ____", sc[3].Sentence)
	assert.Equal(t, []string{PlaceholderAnswer}, sc[3].Answers)
	assert.Equal(t, []string{"___"}, sc[4].Blanks)
}

func TestNormalize_MissingAnswers(t *testing.T) {
	raw := `{"title": "T", "content": "Mia went to the beach. She found a red shell.",
		"whQuestions": [{"question": "What red thing did she find?"}, {"question": "Why is the sky blue?"}, "Where did Mia go?"],
		"bmeStory": {"beginning": "Mia went to the beach."}}`
	res := Normalize(raw, []entity.ActivityKind{entity.ActivityWhQuestions, entity.ActivityBmeStory})

	wh, _ := res.Document.WhQuestions()
	require.Len(t, wh, 3)
	assert.Equal(t, "She found a red shell.", wh[0].Answer)
	assert.Equal(t, PlaceholderAnswer, wh[1].Answer)
	assert.Equal(t, "Mia went to the beach.", wh[2].Answer)

	bme, _ := res.Document.BmeStory()
	assert.Equal(t, "Mia went to the beach.", bme.Beginning)
	assert.Equal(t, PlaceholderAnswer, bme.Middle)
	assert.Equal(t, PlaceholderAnswer, bme.End)
}

func TestNormalize_EmptyResultsOmitted(t *testing.T) {
	raw := `{"title": "T", "content": "c", "whQuestions": [], "bmeStory": {}, "sentenceOrder": {"sentences": ["only one"]}, "drawAndTell": {"prompt": ""}, "threeLineSummary": null}`
	res := Normalize(raw, allKinds)
	assert.Empty(t, res.Document.Activities)
}

func TestNormalize_EmptyThreeLineSummaryOmitted(t *testing.T) {
	kinds := []entity.ActivityKind{entity.ActivityThreeLineSummary}
	for _, summary := range []string{`""`, `"   "`, `{}`, `{"line1": "", "line2": " "}`, `[]`, `["", ""]`, `42`, `true`} {
		raw := `{"title": "T", "content": "c", "threeLineSummary": ` + summary + `}`
		doc := Normalize(raw, kinds).Document
		_, ok := doc.ThreeLineSummary()
		assert.False(t, ok, summary)

		pages := layout.Paginate([]layout.StoryDocument{{Document: doc}}, kinds)
		assert.Len(t, pages, 1, summary)
	}

	raw := `{"title": "T", "content": "c", "threeLineSummary": {"line2": "It flew."}}`
	sum, ok := Normalize(raw, kinds).Document.ThreeLineSummary()
	require.True(t, ok)
	assert.Equal(t, entity.ThreeLineSummary{Line2: "It flew."}, sum)
}

func TestNormalize_SentenceOrderPermutation(t *testing.T) {
	raw := `{"title": "T", "content": "c", "sentenceOrder": {"sentences": ["third", "first", "second"], "correctOrder": [1, 2, 0]}}`
	res := Normalize(raw, []entity.ActivityKind{entity.ActivitySentenceOrder})
	so, ok := res.Document.SentenceOrder()
	require.True(t, ok)
	assert.Equal(t, []string{"first", "second", "third"}, so.Sentences)

	raw = `{"title": "T", "content": "c", "sentenceOrder": {"sentences": ["b", "a"], "correctOrder": [2, 1]}}`
	so, _ = Normalize(raw, []entity.ActivityKind{entity.ActivitySentenceOrder}).Document.SentenceOrder()
	assert.Equal(t, []string{"a", "b"}, so.Sentences)
}

func TestNormalize_Legacy(t *testing.T) {
	raw := `TITLE: The Red Kite
STORY:
Sam flew a red kite. The wind was strong.
QUESTIONS:
1. What did Sam fly? Answer: A red kite
2. How was the wind?
A: Strong
BEGINNING: Sam went outside.
MIDDLE: The kite went up.
END: Sam smiled.
SENTENCES:
- Sam went outside.
- The kite went up.
SUMMARY:
1. Sam had a kite.
2. It flew high.
3. Sam was glad.
EMOTIONS:
How did Sam feel?
A) Glad
B) Scared
Answer: A
COMPLETE:
- Sam flew a red ____. (Answer: kite)
DRAW:
Draw Sam and the kite.
What color is the sky?`

	res := Normalize(raw, allKinds)
	require.Equal(t, PathLegacy, res.Path)
	doc := res.Document
	assert.Equal(t, "The Red Kite", doc.Title)
	assert.Equal(t, "Sam flew a red kite. The wind was strong.", doc.Content)
	assert.Equal(t, allKinds, doc.Kinds())

	wh, _ := doc.WhQuestions()
	assert.Equal(t, entity.WhQuestions{
		{Question: "What did Sam fly?", Answer: "A red kite"},
		{Question: "How was the wind?", Answer: "Strong"},
	}, wh)

	eq, _ := doc.EmotionQuiz()
	assert.Equal(t, []string{"Glad", "Scared"}, eq[0].Options)
	assert.Equal(t, 0, eq[0].CorrectIndex)

	sc, _ := doc.SentenceCompletion()
	assert.Equal(t, "Sam flew a red ____.", sc[0].Sentence)
	assert.Equal(t, []string{"kite"}, sc[0].Answers)

	sum, _ := doc.ThreeLineSummary()
	assert.Equal(t, "Sam was glad.", sum.Line3)

	draw, _ := doc.DrawAndTell()
	assert.Equal(t, "Draw Sam and the kite.", draw.Prompt)
	assert.Equal(t, []string{"What color is the sky?"}, draw.Questions)
}

func TestNormalize_RoundTripIdempotent(t *testing.T) {
	inputs := []string{
		fullResponse,
		`{"title": "T", "content": "The cat sat.", "whQuestions": [{"question": "Who sat?"}], "sentenceCompletion": ["No blank here"], "bmeStory": ["a"]}`,
	}
	for _, in := range inputs {
		first := Normalize(in, allKinds).Document

		raw, err := json.Marshal(first)
		require.NoError(t, err)

		second := Normalize(string(raw), allKinds)
		require.Equal(t, PathJSON, second.Path)
		if diff := cmp.Diff(first, second.Document, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("normalize is not idempotent (-first +second):\n%s", diff)
		}
	}
}

func TestNormalizer_SchemaDiagnostics(t *testing.T) {
	n := NewNormalizer()
	kinds := []entity.ActivityKind{entity.ActivityEmotionQuiz}

	res := n.Normalize(context.Background(), fullResponse, kinds)
	assert.Empty(t, res.SchemaErrors)

	res = n.Normalize(context.Background(), `{"title": "T", "content": "c", "emotionQuiz": [{"question": "q", "options": "happy", "correctIndex": "x"}]}`, kinds)
	assert.NotEmpty(t, res.SchemaErrors)
	eq, ok := res.Document.EmotionQuiz()
	require.True(t, ok)
	assert.Equal(t, []string{"happy"}, eq[0].Options)

	res = n.Normalize(context.Background(), "garbage", kinds)
	assert.Equal(t, PathPlaceholder, res.Path)
	assert.Nil(t, res.SchemaErrors)
}

// assertInvariants 校验 Document 的结构性约束
func assertInvariants(t *testing.T, doc entity.Document) {
	t.Helper()
	for k, p := range doc.Activities {
		assert.Equal(t, k, p.Kind())
	}
	if eq, ok := doc.EmotionQuiz(); ok {
		assert.NotEmpty(t, eq)
		for _, q := range eq {
			assert.True(t, q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options))
		}
	}
	if sc, ok := doc.SentenceCompletion(); ok {
		for _, item := range sc {
			assert.Equal(t, len(item.Blanks), len(item.Answers))
		}
	}
}
