package completion

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockCompleterRoundRobin(t *testing.T) {
	m := NewMockCompleterFromStrings("a", "b")
	p, err := conversation.NewPrompt(conversation.NewMessage(conversation.RoleHuman, "hi"))
	require.NoError(t, err)

	var got []string
	for i := 0; i < 3; i++ {
		resp, err := m.Complete(context.Background(), p)
		require.NoError(t, err)
		got = append(got, resp.Content)
	}

	assert.Equal(t, []string{"a", "b", "a"}, got)
	assert.Equal(t, 3, m.Calls())
	require.Len(t, m.Prompts(), 3)
	assert.Equal(t, "hi", m.Prompts()[0].Messages[0].Text())
}

func TestMockCompleterErrorsAndCost(t *testing.T) {
	model, err := ModelForKey(DefaultModelKey)
	require.NoError(t, err)

	m := NewMockCompleter([]MockResponse{
		{Content: "ok", Usage: Usage{Input: 1000, Output: 100}},
		{Error: "service unavailable"},
	}, WithMockModel(model))

	resp, err := m.Complete(context.Background(), &conversation.Prompt{})
	require.NoError(t, err)
	assert.Equal(t, 1100, resp.Usage.Total)
	assert.InDelta(t, 1.5e-4+6e-5, resp.Cost.Total, 1e-12)

	_, err = m.Complete(context.Background(), &conversation.Prompt{})
	require.EqualError(t, err, "service unavailable")

	_, err = NewMockCompleter(nil).Complete(context.Background(), &conversation.Prompt{})
	require.ErrorIs(t, err, ErrNoMockResponses)
}

func TestMockCompleterChunks(t *testing.T) {
	m := NewMockCompleterFromStrings("one two three")
	var chunks []string
	resp, err := m.Complete(context.Background(), &conversation.Prompt{}, WithOnChunk(func(p ChunkPayload) {
		chunks = append(chunks, p.Chunk)
	}))
	require.NoError(t, err)
	assert.Equal(t, "one two three", resp.Content)
	assert.Equal(t, []string{"one ", "two ", "three"}, chunks)
}

func TestLoadMockResponses(t *testing.T) {
	responses, err := LoadMockResponses(strings.NewReader(`
- content: '{"key": "file_system", "reasoning": "files"}'
  usage:
    input: 10
    output: 2
- error: rate limited
`))
	require.NoError(t, err)
	require.Len(t, responses, 2)
	assert.Equal(t, 10, responses[0].Usage.Input)
	assert.Equal(t, "rate limited", responses[1].Error)
}

func TestThrottle(t *testing.T) {
	count := 0
	f := Throttle(time.Hour, func(ChunkPayload) { count++ })
	for i := 0; i < 5; i++ {
		f(ChunkPayload{Chunk: "x"})
	}
	assert.Equal(t, 1, count)
	assert.Nil(t, Throttle(time.Second, nil))
}

func TestCostFor(t *testing.T) {
	model, err := ModelForKey("gpt-4o")
	require.NoError(t, err)
	c := model.CostFor(Usage{Input: 100, Output: 10})
	assert.InDelta(t, c.Input+c.Output, c.Total, 1e-15)

	_, err = ModelForKey("nope")
	require.ErrorIs(t, err, ErrUnknownModel)
	assert.Contains(t, ModelKeys(), DefaultModelKey)
}
