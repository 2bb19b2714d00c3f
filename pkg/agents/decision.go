package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/go-go-golems/socra/pkg/parse"
	"github.com/pkg/errors"
)

// Option is a plain candidate of a decision.
type Option struct {
	Key         string `json:"key" yaml:"key"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

func OptionFromNode(n Node) Option {
	return Option{Key: n.Key(), Name: n.Name(), Description: n.Description()}
}

type Decision struct {
	Selected  Node            `json:"-" yaml:"-"`
	Option    Option          `json:"option" yaml:"option"`
	Index     int             `json:"index" yaml:"index"`
	Key       string          `json:"key" yaml:"key"`
	Reasoning string          `json:"reasoning" yaml:"reasoning"`
	Thought   string          `json:"thought" yaml:"thought"`
	Cost      completion.Cost `json:"cost" yaml:"cost"`
}

type decideSettings struct {
	onChunk  completion.ChunkFunc
	template *template.Template
}

type DecideOption func(*decideSettings)

// WithChunkHandler forwards streamed chunks of the decision completion.
func WithChunkHandler(f completion.ChunkFunc) DecideOption {
	return func(s *decideSettings) {
		s.onChunk = f
	}
}

// WithDecisionTemplate replaces the instruction appended to the conversation.
// The template receives the rendered candidates as .Options.
func WithDecisionTemplate(t *template.Template) DecideOption {
	return func(s *decideSettings) {
		s.template = t
	}
}

type selection struct {
	Key       string `json:"key"`
	Reasoning string `json:"reasoning" jsonschema:"minLength=1"`
}

var selectionSchema string

func init() {
	var err error
	selectionSchema, err = parse.SchemaFor(&selection{})
	if err != nil {
		panic(err)
	}
}

// Decide asks the completer to pick one of candidates, given the conversation
// in c. The completion is accounted in c even if its content is unusable.
func Decide(
	ctx context.Context,
	completer completion.Completer,
	c *Context,
	candidates []Node,
	opts ...DecideOption,
) (*Decision, error) {
	options := make([]Option, 0, len(candidates))
	for _, n := range candidates {
		if n == nil {
			return nil, &InvalidConstructionError{Reason: "nil candidate"}
		}
		options = append(options, OptionFromNode(n))
	}

	d, err := MakeDecision(ctx, completer, c, options, opts...)
	if err != nil {
		return nil, err
	}
	d.Selected = candidates[d.Index]
	return d, nil
}

// MakeDecision is Decide for candidates that are not tree nodes.
func MakeDecision(
	ctx context.Context,
	completer completion.Completer,
	c *Context,
	options []Option,
	opts ...DecideOption,
) (*Decision, error) {
	if len(options) == 0 {
		return nil, &InvalidConstructionError{Reason: "no candidates to decide between"}
	}

	s := &decideSettings{template: decisionTemplate}
	for _, o := range opts {
		o(s)
	}

	instruction, err := renderDecisionPrompt(s.template, options)
	if err != nil {
		return nil, err
	}

	messages := append(c.Messages(), conversation.NewMessage(conversation.RoleHuman, instruction))
	prompt, err := conversation.NewPrompt(messages...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid decision prompt")
	}

	resp, err := completer.Complete(ctx, prompt, completion.WithOnChunk(s.onChunk))
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("completer returned no response")
	}
	c.TrackCompletion(resp)

	sel, err := parseSelection(resp.Content)
	if err != nil {
		return nil, err
	}

	for i, o := range options {
		if o.Key != sel.Key {
			continue
		}
		thought := fmt.Sprintf("Decided to %s because %s", o.Name, sel.Reasoning)
		c.AddThought(thought)
		return &Decision{
			Option:    o,
			Index:     i,
			Key:       o.Key,
			Reasoning: sel.Reasoning,
			Thought:   thought,
			Cost:      resp.Cost,
		}, nil
	}

	keys := make([]string, 0, len(options))
	for _, o := range options {
		keys = append(keys, o.Key)
	}
	return nil, &UnknownSelectionError{Key: sel.Key, Candidates: keys}
}

func parseSelection(content string) (*selection, error) {
	doc, err := validateResponse(content, selectionSchema)
	if err != nil {
		return nil, err
	}

	var ret selection
	if err := json.Unmarshal([]byte(doc), &ret); err != nil {
		return nil, &MalformedResponseError{Content: content, Reason: "could not decode selection", Cause: err}
	}
	return &ret, nil
}

// validateResponse strips fences from content and checks it against the
// schema, returning the JSON document.
func validateResponse(content string, schema string) (string, error) {
	if _, err := parse.ParseJSONObject(content); err != nil {
		return "", &MalformedResponseError{Content: content, Reason: "response is not a JSON object", Cause: err}
	}

	doc := parse.StripFences(content)
	res, err := parse.ValidateJSON(schema, doc)
	if err != nil {
		return "", &MalformedResponseError{Content: content, Reason: "could not validate response", Cause: err}
	}
	if !res.Valid {
		return "", &MalformedResponseError{Content: content, Reason: strings.Join(res.Errors, "; ")}
	}
	return doc, nil
}
