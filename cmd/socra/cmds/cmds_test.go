package cmds

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-go-golems/socra/pkg/actions/filesystem"
	"github.com/go-go-golems/socra/pkg/agents"
	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOption(t *testing.T) {
	o, err := parseOption("greet=say hello:Greet the user")
	require.NoError(t, err)
	assert.Equal(t, agents.Option{Key: "greet", Name: "say hello", Description: "Greet the user"}, o)

	o, err = parseOption("Say Goodbye: End the conversation")
	require.NoError(t, err)
	assert.Equal(t, "say_goodbye", o.Key)
	assert.Equal(t, "End the conversation", o.Description)

	for _, bad := range []string{"greet=say hello", "greet=:desc", "greet=name:"} {
		_, err = parseOption(bad)
		assert.Error(t, err, bad)
	}

	_, err = parseOptions([]string{"a=A:first", "a=B:second"})
	assert.Error(t, err)
}

func TestDecideRow(t *testing.T) {
	m := completion.NewMockCompleterFromStrings(`{"key":"b","reasoning":"second is better"}`)
	s := &DecideSettings{
		Options: []string{"a=A:first", "b=B:second"},
		System:  "You pick letters.",
		Message: []string{"pick", "one"},
	}

	d, err := decide(context.Background(), m, s)
	require.NoError(t, err)

	row := decisionRow(d)
	for k, expected := range map[string]interface{}{
		"key":         "b",
		"name":        "B",
		"description": "second",
		"reasoning":   "second is better",
		"thought":     "Decided to B because second is better",
	} {
		v, ok := row.Get(k)
		require.True(t, ok, k)
		assert.Equal(t, expected, v, k)
	}

	prompts := m.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, "You pick letters.", prompts[0].Messages[0].Text())
	assert.Equal(t, "pick one", prompts[0].Messages[1].Text())

	_, err = decide(context.Background(), m, &DecideSettings{Options: []string{"a=A"}, Message: []string{"x"}})
	assert.Error(t, err)
}

func TestCountFiles(t *testing.T) {
	counter, err := conversation.NewTokenizerCounter("gpt-4o")
	require.NoError(t, err)

	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello world"), 0o644))
	n, err := counter.Count("hello world")
	require.NoError(t, err)

	var buf bytes.Buffer
	err = countFiles(&buf, counter, &CountSettings{Files: []string{file}}, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s: %d\n", file, n), buf.String())

	buf.Reset()
	err = countFiles(&buf, counter, &CountSettings{Files: []string{file, "-"}}, strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s: %d\n-: %d\nTotal tokens: %d\n", file, n, n, 2*n), buf.String())

	err = countFiles(&buf, counter, &CountSettings{Files: []string{filepath.Join(dir, "missing")}}, nil)
	assert.Error(t, err)
}

func TestExtractCode(t *testing.T) {
	assert.Equal(t, "package main\n", extractCode("```go\npackage main\n```"))
	assert.Equal(t, "package main\n", extractCode("package main"))
	assert.Equal(t, "x := 1\n", extractCode("Here you go:\n\n```go\nx := 1\n```\n\nEnjoy."))
}

func TestImproveFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(target, []byte("package main\nfunc main(){}\n"), 0o644))

	m := completion.NewMockCompleterFromStrings("```go\npackage main\n\nfunc main() {}\n```")
	var progress bytes.Buffer
	improved, err := improveFile(context.Background(), m, target, "format it", &progress)
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc main() {}\n", improved)
	assert.Equal(t, "Improving "+target+"\n", progress.String())

	prompts := m.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0].Messages[0].Text(), `"format it"`)
	assert.Equal(t, "package main\nfunc main(){}\n", prompts[0].Messages[1].Text())

	_, err = improveFile(context.Background(), m, dir, "", &progress)
	assert.Error(t, err)
}

const runResponses = `
- content: '{"key":"file_system","reasoning":"the user wants a file"}'
  usage: {input: 100, output: 10}
- content: '{"key":"create_file","reasoning":"it does not exist yet"}'
- content: '{"path":"hello.txt"}'
- content: '{"content":"hello\n","reasoning":"wrote a greeting"}'
- content: '{"key":"user_interaction","reasoning":"done with files"}'
- content: '{"key":"sig_int","reasoning":"nothing left to do"}'
`

func TestRunAgentWithMockResponses(t *testing.T) {
	defer viper.Reset()

	dir := t.TempDir()
	responses := filepath.Join(dir, "responses.yaml")
	require.NoError(t, os.WriteFile(responses, []byte(runResponses), 0o644))
	workspace := filepath.Join(dir, "ws")
	require.NoError(t, os.Mkdir(workspace, 0o755))

	viper.Set("mock-responses", responses)

	var out bytes.Buffer
	s := &runSettings{MaxIterations: 5, Workspace: workspace}
	err := runAgent(context.Background(), s, "create hello.txt", strings.NewReader(""), &out)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(workspace, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(b))

	assert.Contains(t, out.String(),
		"History: socra -> file_system -> create_file -> socra -> user_interaction -> sig_int\n")
	assert.Contains(t, out.String(), "Walks: 2\n")
}

func TestLoadTreeWithBuiltinHandlers(t *testing.T) {
	dir := t.TempDir()
	ws, err := filesystem.NewWorkspace(dir)
	require.NoError(t, err)

	tb := newToolbox(completion.NewMockCompleterFromStrings("{}"), ws, &bytes.Buffer{}, strings.NewReader(""))
	treeFile := filepath.Join(dir, "tree.yaml")
	require.NoError(t, os.WriteFile(treeFile, []byte(`
name: root
description: entry point
children:
  - name: List files
    key: list_files_and_folders
    description: List the files of the workspace
    handler: list_files_and_folders
  - name: Terminate
    key: sig_int
    description: Stop
    handler: sig_int
`), 0o644))

	root, err := tb.LoadTree(treeFile)
	require.NoError(t, err)
	interior, ok := root.(*agents.Interior)
	require.True(t, ok)
	assert.Len(t, interior.Children(), 2)
}

func TestWaitRunningStopsOnCancel(t *testing.T) {
	running := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, waitRunning(ctx, running), context.Canceled)

	close(running)
	assert.NoError(t, waitRunning(context.Background(), running))
}
