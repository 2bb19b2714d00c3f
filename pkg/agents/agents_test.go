package agents

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *Context) (interface{}, error) {
	return nil, nil
}

func mustLeaf(t *testing.T, key, name, description string, h Handler) *Leaf {
	t.Helper()
	if h == nil {
		h = noop
	}
	l, err := NewLeaf(key, name, description, h)
	require.NoError(t, err)
	return l
}

func mustInterior(t *testing.T, key, name, description string, children ...Node) *Interior {
	t.Helper()
	i, err := NewInterior(key, name, description, children...)
	require.NoError(t, err)
	return i
}

func responses(usage completion.Usage, cost completion.Cost, contents ...string) []completion.MockResponse {
	ret := make([]completion.MockResponse, 0, len(contents))
	for _, c := range contents {
		ret = append(ret, completion.MockResponse{Content: c, Usage: usage, Cost: cost})
	}
	return ret
}

var unitCost = completion.Cost{Input: 1, Output: 2, Total: 3}
var unitUsage = completion.Usage{Input: 10, Output: 5, Total: 15}

func fileTree(t *testing.T) *Interior {
	return mustInterior(t, "root", "root", "the root",
		mustLeaf(t, "create_file", "create_file", "Create a new file", nil),
		mustLeaf(t, "create_folder", "create_folder", "Create a new folder", nil),
	)
}

func TestDecideSelectsChild(t *testing.T) {
	root := fileTree(t)
	m := completion.NewMockCompleter(responses(unitUsage, unitCost, `{"key":"create_file","reasoning":"user wants a file"}`))
	c := NewContext(conversation.NewMessage(conversation.RoleHuman, "I want to create a file"))

	d, err := Decide(context.Background(), m, c, root.Children())
	require.NoError(t, err)

	assert.Equal(t, "create_file", d.Key)
	assert.Equal(t, "create_file", d.Selected.Key())
	assert.Equal(t, "user wants a file", d.Reasoning)

	messages := c.Messages()
	require.Len(t, messages, 2)
	thought := messages[1]
	assert.Equal(t, conversation.RoleAssistant, thought.Role)
	assert.Contains(t, thought.Text(), "create_file")
	assert.Contains(t, thought.Text(), "user wants a file")
	assert.Equal(t, unitCost, c.Cost())
	assert.Equal(t, unitUsage, c.Usage())
}

func TestDecisionPromptLayout(t *testing.T) {
	root := fileTree(t)
	m := completion.NewMockCompleterFromStrings(`{"key":"create_folder","reasoning":"r"}`)
	c := NewContext(
		conversation.NewMessage(conversation.RoleSystem, "you route requests"),
		conversation.NewMessage(conversation.RoleHuman, "make a folder"),
	)

	_, err := Decide(context.Background(), m, c, root.Children())
	require.NoError(t, err)

	prompts := m.Prompts()
	require.Len(t, prompts, 1)
	msgs := prompts[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, conversation.RoleSystem, msgs[0].Role)
	assert.Equal(t, "make a folder", msgs[1].Text())

	instruction := msgs[2].Text()
	assert.Equal(t, conversation.RoleHuman, msgs[2].Role)
	assert.True(t, strings.HasPrefix(instruction, "Based on the context above, which action should be taken?"))
	assert.Contains(t, instruction,
		"- key: create_file\n  name: create_file\n  description: Create a new file\n- key: create_folder\n  name: create_folder\n  description: Create a new folder\n")
	assert.Contains(t, instruction, `Respond with a single valid JSON object with exactly two keys, "key" and "reasoning".`)
	assert.Contains(t, instruction, "Respond only in JSON format.")
}

func TestDecideUnknownSelectionStillTracksCost(t *testing.T) {
	root := fileTree(t)
	m := completion.NewMockCompleter(responses(unitUsage, unitCost, `{"key":"create_document","reasoning":"..."}`))
	c := NewContext(conversation.NewMessage(conversation.RoleHuman, "hi"))

	d, err := Decide(context.Background(), m, c, root.Children())
	require.Nil(t, d)
	require.ErrorIs(t, err, ErrUnknownSelection)

	var unknown *UnknownSelectionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "create_document", unknown.Key)
	assert.Equal(t, []string{"create_file", "create_folder"}, unknown.Candidates)

	assert.Equal(t, unitCost, c.Cost())
	assert.Len(t, c.Messages(), 1)
}

func TestDecideMalformedResponses(t *testing.T) {
	for _, content := range []string{
		"I think you should create a file",
		`{"key":"create_file"}`,
		`{"reasoning":"no key"}`,
		`{"key":"create_file","reasoning":""}`,
		`{"key": 3, "reasoning": "wrong type"}`,
		"```json\n{\"key\":\"create_file\"\n```",
	} {
		t.Run(content, func(t *testing.T) {
			m := completion.NewMockCompleter(responses(unitUsage, unitCost, content))
			c := NewContext()

			_, err := Decide(context.Background(), m, c, fileTree(t).Children())
			require.ErrorIs(t, err, ErrMalformedResponse)

			var malformed *MalformedResponseError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, content, malformed.Content)
			assert.Equal(t, unitCost, c.Cost())
		})
	}
}

func TestDecideAcceptsFencedResponse(t *testing.T) {
	m := completion.NewMockCompleterFromStrings("```json\n{\"key\":\"create_folder\",\"reasoning\":\"folders\"}\n```")
	d, err := Decide(context.Background(), m, NewContext(), fileTree(t).Children())
	require.NoError(t, err)
	assert.Equal(t, "create_folder", d.Key)
}

func TestDecideFirstMatchWins(t *testing.T) {
	// duplicates can only come from nodes outside of a constructed interior
	a := mustLeaf(t, "same", "first", "first one", nil)
	b := mustLeaf(t, "same", "second", "second one", nil)

	m := completion.NewMockCompleterFromStrings(`{"key":"same","reasoning":"r"}`)
	d, err := Decide(context.Background(), m, NewContext(), []Node{a, b})
	require.NoError(t, err)
	assert.Same(t, a, d.Selected)
	assert.Equal(t, 0, d.Index)
}

func TestDecideCollaboratorErrorPassesThrough(t *testing.T) {
	m := completion.NewMockCompleter([]completion.MockResponse{{Error: "connection refused"}})
	c := NewContext()

	_, err := Decide(context.Background(), m, c, fileTree(t).Children())
	require.EqualError(t, err, "connection refused")
	assert.False(t, IsDecisionError(err))
	assert.Equal(t, completion.Cost{}, c.Cost())
	assert.Empty(t, c.Completions())
}

func TestMakeDecisionWithPlainOptions(t *testing.T) {
	m := completion.NewMockCompleterFromStrings(`{"key":"no","reasoning":"content is fine"}`)
	c := NewContext()

	d, err := MakeDecision(context.Background(), m, c, []Option{
		{Key: "yes", Name: "update the file", Description: "the file needs changes"},
		{Key: "no", Name: "keep the file", Description: "the file is fine"},
	})
	require.NoError(t, err)
	assert.Nil(t, d.Selected)
	assert.Equal(t, "Decided to keep the file because content is fine", d.Thought)

	_, err = MakeDecision(context.Background(), m, c, nil)
	require.ErrorIs(t, err, ErrInvalidConstruction)
}

func TestCostMonotonicity(t *testing.T) {
	costs := []completion.Cost{
		{Input: 0.1, Output: 0.2, Total: 0.3},
		{Input: 0.01, Output: 0.02, Total: 0.03},
		{Input: 1, Output: 1, Total: 2},
		{Input: 0.5, Output: 0, Total: 0.5},
	}
	contents := []string{
		`{"key":"create_file","reasoning":"a"}`,
		`not json`,
		`{"key":"missing","reasoning":"b"}`,
		`{"key":"create_folder","reasoning":"c"}`,
	}
	var rs []completion.MockResponse
	var expected completion.Cost
	for i := range costs {
		rs = append(rs, completion.MockResponse{Content: contents[i], Cost: costs[i]})
		expected = expected.Add(costs[i])
	}

	m := completion.NewMockCompleter(rs)
	c := NewContext()
	previous := c.Cost().Total
	for range costs {
		_, _ = Decide(context.Background(), m, c, fileTree(t).Children())
		assert.GreaterOrEqual(t, c.Cost().Total, previous)
		previous = c.Cost().Total
	}

	assert.InDelta(t, expected.Input, c.Cost().Input, 1e-9)
	assert.InDelta(t, expected.Output, c.Cost().Output, 1e-9)
	assert.InDelta(t, expected.Total, c.Cost().Total, 1e-9)
	assert.Len(t, c.Completions(), len(costs))
}

func TestContextSnapshotIsIndependent(t *testing.T) {
	c := NewContext(conversation.NewMessage(conversation.RoleHuman, "hi"))
	c.AddInvocation("root")

	s := c.Snapshot()
	c.AddInvocation("child")
	c.AddThought("thinking")
	c.Stop()

	assert.Equal(t, []string{"root"}, s.History())
	assert.Len(t, s.Messages(), 1)
	assert.False(t, s.Stopped())
	assert.Equal(t, c.ID, s.ID)
}

func TestConcurrentDecisionsAreIndependent(t *testing.T) {
	m := completion.NewMockCompleter(responses(unitUsage, unitCost, `{"key":"create_file","reasoning":"r"}`))
	root := fileTree(t)

	var wg sync.WaitGroup
	contexts := make([]*Context, 8)
	for i := range contexts {
		contexts[i] = NewContext()
		wg.Add(1)
		go func(c *Context) {
			defer wg.Done()
			_, err := Decide(context.Background(), m, c, root.Children())
			assert.NoError(t, err)
		}(contexts[i])
	}
	wg.Wait()

	for _, c := range contexts {
		assert.Equal(t, unitCost, c.Cost())
		assert.Len(t, c.Messages(), 1)
	}
}
