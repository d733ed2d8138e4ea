package worksheet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksheet-ai-api/internal/application/layout"
	"worksheet-ai-api/internal/domain/entity"
)

func TestPipeline_CatsScenario(t *testing.T) {
	raw := `{"title":"Cats","content":"A cat sat.","whQuestions":[{"question":"Who sat?","answer":"A cat"}]}`
	kinds := []entity.ActivityKind{entity.ActivityWhQuestions}

	res := Normalize(raw, kinds)
	require.Equal(t, PathJSON, res.Path)
	doc := res.Document
	assert.Equal(t, "Cats", doc.Title)
	assert.Equal(t, "A cat sat.", doc.Content)
	wh, ok := doc.WhQuestions()
	require.True(t, ok)
	require.Len(t, wh, 1)

	pages := layout.Paginate(layout.Number([]entity.Document{doc}), kinds)
	require.Len(t, pages, 2)
	assert.Equal(t, layout.PageCover, pages[0].Kind)
	assert.Equal(t, layout.PageAnswerKey, pages[1].Kind)

	want := []layout.Block{
		layout.Heading("Answer Key: Cats", 1),
		layout.Heading("Questions", 2),
		layout.Heading("1. Who sat?", 3),
		layout.AnswerLine("A cat"),
	}
	if diff := cmp.Diff(want, pages[1].Blocks); diff != "" {
		t.Errorf("answer key mismatch (-want +got):\n%s", diff)
	}
}
