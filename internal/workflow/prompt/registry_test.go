package prompt

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_WorksheetTemplate(t *testing.T) {
	r := NewRegistry()
	tpl, err := r.ChatTemplate(PromptWorksheetV1)
	require.NoError(t, err)

	again, err := r.ChatTemplate(PromptWorksheetV1)
	require.NoError(t, err)
	assert.Same(t, tpl, again)

	instruction := `Write a story. Respond with {"title": "..."}`
	msgs, err := tpl.Format(context.Background(), map[string]any{"instruction": instruction})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "JSON object")
	assert.Equal(t, instruction, msgs[1].Content)
}

func TestRegistry_UnknownPrompt(t *testing.T) {
	_, err := NewRegistry().ChatTemplate("nope")
	assert.Error(t, err)
}
