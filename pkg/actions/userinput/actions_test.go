package userinput

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-go-golems/socra/pkg/agents"
	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, responses ...string) (*agents.Outcome, *agents.Context, string, error) {
	m := completion.NewMockCompleterFromStrings(responses...)
	var out bytes.Buffer
	agent, err := NewActions(m, WithIO(&out, strings.NewReader(stdin))).NewAgent()
	require.NoError(t, err)

	c := agents.NewContext(conversation.NewMessage(conversation.RoleHuman, "help me"))
	outcome, err := agents.NewExecutor(m).Run(context.Background(), agent, c)
	return outcome, c, out.String(), err
}

func TestTextInput(t *testing.T) {
	outcome, c, out, err := run(t, "src/main.go\n",
		`{"key":"text_input","reasoning":"need a path"}`,
		`{"prompt":"Please provide the file path","reasoning":"no path was given"}`,
	)
	require.NoError(t, err)
	assert.Equal(t, "src/main.go", outcome.Result)
	assert.Contains(t, out, "Please provide the file path")

	messages := c.Messages()
	last := messages[len(messages)-1]
	assert.Equal(t, conversation.RoleHuman, last.Role)
	assert.Equal(t, "src/main.go", last.Text())
	assert.Equal(t, "Getting input from user because: no path was given", messages[len(messages)-2].Text())
}

func TestInputChoices(t *testing.T) {
	outcome, c, out, err := run(t, "2\n",
		`{"key":"input_choices","reasoning":"ask for a language"}`,
		`{"message":"Which language?","choices":["go","python"],"allow_multiple":false}`,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, outcome.Result)
	assert.Contains(t, out, "Which language?")

	messages := c.Messages()
	assert.Equal(t, "User selected: [python] from [go, python]", messages[len(messages)-1].Text())
}

func TestInputChoicesMultiple(t *testing.T) {
	outcome, _, _, err := run(t, "1, 3\n",
		`{"key":"input_choices","reasoning":"ask"}`,
		`{"message":"Pick files","choices":["a","b","c"],"allow_multiple":true}`,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, outcome.Result)
}

func TestParseIndices(t *testing.T) {
	idx, err := parseIndices(" 2,1 ", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, idx)

	_, err = parseIndices("3", 2)
	require.Error(t, err)
	_, err = parseIndices(",", 2)
	require.Error(t, err)
}

func TestTerminateStopsDriver(t *testing.T) {
	m := completion.NewMockCompleterFromStrings(`{"key":"sig_int","reasoning":"user is done"}`)
	agent, err := NewActions(m, WithIO(&bytes.Buffer{}, strings.NewReader(""))).NewAgent()
	require.NoError(t, err)

	c := agents.NewContext()
	d := &agents.Driver{Executor: agents.NewExecutor(m), MaxIterations: 3}
	outcomes, err := d.Run(context.Background(), agent, c)
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)
	assert.True(t, c.Stopped())
}
