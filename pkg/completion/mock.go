package completion

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrNoMockResponses = errors.New("mock completer has no responses")

// MockResponse is one canned answer of a MockCompleter. When Error is set
// the call fails with that message instead.
type MockResponse struct {
	Content string `yaml:"content"`
	Usage   Usage  `yaml:"usage,omitempty"`
	Cost    Cost   `yaml:"cost,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

// MockCompleter hands out its responses round-robin.
type MockCompleter struct {
	responses []MockResponse
	model     *Model
	mu        sync.Mutex
	index     int
	calls     int
	prompts   []*conversation.Prompt
}

var _ Completer = &MockCompleter{}

type MockOption func(*MockCompleter)

// WithMockModel prices responses that carry no explicit cost with the given model.
func WithMockModel(m *Model) MockOption {
	return func(c *MockCompleter) {
		c.model = m
	}
}

func NewMockCompleter(responses []MockResponse, options ...MockOption) *MockCompleter {
	ret := &MockCompleter{
		responses: responses,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// NewMockCompleterFromStrings is a shortcut for responses without usage.
func NewMockCompleterFromStrings(contents ...string) *MockCompleter {
	responses := make([]MockResponse, 0, len(contents))
	for _, c := range contents {
		responses = append(responses, MockResponse{Content: c})
	}
	return NewMockCompleter(responses)
}

func LoadMockResponses(r io.Reader) ([]MockResponse, error) {
	var responses []MockResponse
	if err := yaml.NewDecoder(r).Decode(&responses); err != nil {
		return nil, errors.Wrap(err, "could not decode mock responses")
	}
	return responses, nil
}

func LoadMockResponsesFromFile(filename string) ([]MockResponse, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	return LoadMockResponses(f)
}

func (m *MockCompleter) Complete(
	ctx context.Context,
	prompt *conversation.Prompt,
	options ...Option,
) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, ErrNoMockResponses
	}
	response := m.responses[m.index]
	m.calls++
	m.index = (m.index + 1) % len(m.responses)
	if prompt != nil {
		m.prompts = append(m.prompts, &conversation.Prompt{
			Messages: append([]*conversation.Message{}, prompt.Messages...),
		})
	}
	m.mu.Unlock()

	if response.Error != "" {
		return nil, errors.New(response.Error)
	}

	opts := NewOptions(options...)
	if opts.OnChunk != nil {
		aggregate := ""
		for _, word := range strings.SplitAfter(response.Content, " ") {
			if word == "" {
				continue
			}
			aggregate += word
			opts.OnChunk(ChunkPayload{Chunk: word, Aggregate: aggregate})
		}
	}

	usage := response.Usage
	if usage.Total == 0 {
		usage.Total = usage.Input + usage.Output
	}
	cost := response.Cost
	if cost == (Cost{}) && m.model != nil {
		cost = m.model.CostFor(usage)
	}
	modelKey := "mock"
	if m.model != nil {
		modelKey = m.model.Key
	}

	return &Response{
		Content: response.Content,
		Model:   modelKey,
		Usage:   usage,
		Cost:    cost,
	}, nil
}

// Prompts returns every prompt the completer received, in call order.
func (m *MockCompleter) Prompts() []*conversation.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*conversation.Prompt{}, m.prompts...)
}

func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
