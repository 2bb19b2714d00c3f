package userinput

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-go-golems/socra/pkg/agents"
	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/tcnksm/go-input"
)

const (
	KeyUserInteraction = "user_interaction"
	KeyInputChoices    = "input_choices"
	KeyTextInput       = "text_input"
	KeyTerminate       = "sig_int"
)

const choicesInstructions = `Based on the context above, create a multiple choice prompt for the user.
message is the message to display to the user, choices the list of choices to select from,
allow_multiple whether the user can select multiple choices.`

const textInputInstructions = `Based on the context above, what information do you need from the user?

The prompt will be used as a prefix to the user input (e.g. 'Please provide the file path: ').
Give an extremely brief reasoning on why you need it.`

type choicesPayload struct {
	Message       string   `json:"message"`
	Choices       []string `json:"choices" jsonschema:"minItems=1"`
	AllowMultiple bool     `json:"allow_multiple"`
}

type textInputPayload struct {
	Prompt    string `json:"prompt"`
	Reasoning string `json:"reasoning"`
}

// Actions are the leaves talking to the user on a terminal.
type Actions struct {
	Completer completion.Completer
	UI        *input.UI
}

type Option func(*Actions)

func WithIO(w io.Writer, r io.Reader) Option {
	return func(a *Actions) {
		a.UI = &input.UI{Writer: w, Reader: r}
	}
}

func NewActions(completer completion.Completer, options ...Option) *Actions {
	ret := &Actions{
		Completer: completer,
		UI:        &input.UI{Writer: os.Stdout, Reader: os.Stdin},
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

// NewAgent returns the user_interaction subtree.
func (a *Actions) NewAgent() (*agents.Interior, error) {
	choices, err := agents.NewLeaf(KeyInputChoices, "Input Choices",
		"Ask user to choose from a list of options.", a.InputChoices)
	if err != nil {
		return nil, err
	}
	text, err := agents.NewLeaf(KeyTextInput, "Text Input",
		"Ask user to input text.", a.TextInput)
	if err != nil {
		return nil, err
	}
	terminate, err := agents.NewLeaf(KeyTerminate, "Terminate",
		"Terminate the program. You must be sure there is nothing else to do. Always confirm with user before calling this.",
		Terminate)
	if err != nil {
		return nil, err
	}

	return agents.NewInterior(KeyUserInteraction, "interact with user",
		"Interact with user to get input or provide output.",
		choices, text, terminate)
}

func (a *Actions) InputChoices(ctx context.Context, c *agents.Context) (interface{}, error) {
	var payload choicesPayload
	if err := agents.Extract(ctx, a.Completer, c, choicesInstructions, &payload); err != nil {
		return nil, err
	}

	var selected []string
	if payload.AllowMultiple {
		answer, err := a.askMultiple(payload)
		if err != nil {
			return nil, err
		}
		selected = answer
	} else {
		answer, err := a.UI.Select(payload.Message, payload.Choices, &input.Options{
			Required: true,
			Loop:     true,
		})
		if err != nil {
			return nil, errors.Wrap(err, "could not read choice")
		}
		selected = []string{answer}
	}

	c.AddThought(fmt.Sprintf("User selected: [%s] from [%s]",
		strings.Join(selected, ", "), strings.Join(payload.Choices, ", ")))
	return selected, nil
}

func (a *Actions) askMultiple(payload choicesPayload) ([]string, error) {
	var sb strings.Builder
	sb.WriteString(payload.Message + "\n\n")
	for i, choice := range payload.Choices {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, choice))
	}
	sb.WriteString("\nEnter numbers separated by commas")

	var selected []string
	_, err := a.UI.Ask(sb.String(), &input.Options{
		Required: true,
		Loop:     true,
		ValidateFunc: func(answer string) error {
			indices, err := parseIndices(answer, len(payload.Choices))
			if err != nil {
				return err
			}
			selected = selected[:0]
			for _, idx := range indices {
				selected = append(selected, payload.Choices[idx])
			}
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not read choices")
	}
	return selected, nil
}

func parseIndices(answer string, n int) ([]int, error) {
	var ret []int
	for _, field := range strings.Split(answer, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		i, err := strconv.Atoi(field)
		if err != nil || i < 1 || i > n {
			return nil, errors.Errorf("please enter numbers between 1 and %d", n)
		}
		ret = append(ret, i-1)
	}
	if len(ret) == 0 {
		return nil, errors.New("please select at least one choice")
	}
	return ret, nil
}

func (a *Actions) TextInput(ctx context.Context, c *agents.Context) (interface{}, error) {
	var payload textInputPayload
	if err := agents.Extract(ctx, a.Completer, c, textInputInstructions, &payload); err != nil {
		return nil, err
	}

	c.AddThought(fmt.Sprintf("Getting input from user because: %s", payload.Reasoning))

	answer, err := a.UI.Ask(payload.Prompt, &input.Options{
		Required: true,
		Loop:     true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not read input")
	}

	c.AddMessage(conversation.NewMessage(conversation.RoleHuman, answer))
	return answer, nil
}

// Terminate asks the driver to stop.
func Terminate(_ context.Context, c *agents.Context) (interface{}, error) {
	c.Stop()
	return nil, nil
}
