package cmds

import (
	"context"
	"strings"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/go-go-golems/socra/pkg/agents"
	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/pkg/errors"
)

type DecideSettings struct {
	Options []string `glazed.parameter:"option"`
	System  string   `glazed.parameter:"system"`
	Message []string `glazed.parameter:"message"`
}

type DecideCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*DecideCommand)(nil)

func NewDecideCommand() (*DecideCommand, error) {
	glazedParameterLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "could not create Glazed parameter layer")
	}

	return &DecideCommand{
		CommandDescription: cmds.NewCommandDescription(
			"decide",
			cmds.WithShort("Let the model pick one of the given options"),
			cmds.WithLong(`Options are given as key=name:description. The key may be left out,
it is then derived from the name. Separate several options with commas or
repeat the flag.

  socra decide --option "greet=say hello:Greet the user" \
    --option "leave=say goodbye:End the conversation" I have to go now`),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"option",
					parameters.ParameterTypeStringList,
					parameters.WithHelp("Option as key=name:description"),
					parameters.WithRequired(true),
				),
				parameters.NewParameterDefinition(
					"system",
					parameters.ParameterTypeString,
					parameters.WithHelp("System message"),
					parameters.WithDefault(""),
				),
			),
			cmds.WithArguments(
				parameters.NewParameterDefinition(
					"message",
					parameters.ParameterTypeStringList,
					parameters.WithHelp("Message the decision is made for"),
					parameters.WithRequired(true),
				),
			),
			cmds.WithLayersList(glazedParameterLayer),
		),
	}, nil
}

func (c *DecideCommand) RunIntoGlazeProcessor(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	gp middlewares.Processor,
) error {
	s := &DecideSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "could not initialize settings")
	}

	completer, err := NewCompleter()
	if err != nil {
		return err
	}

	d, err := decide(ctx, completer, s)
	if err != nil {
		return err
	}
	return gp.AddRow(ctx, decisionRow(d))
}

func decide(ctx context.Context, completer completion.Completer, s *DecideSettings) (*agents.Decision, error) {
	options, err := parseOptions(s.Options)
	if err != nil {
		return nil, err
	}

	var messages []*conversation.Message
	if s.System != "" {
		messages = append(messages, conversation.NewMessage(conversation.RoleSystem, s.System))
	}
	messages = append(messages, conversation.NewMessage(conversation.RoleHuman, strings.Join(s.Message, " ")))

	return agents.MakeDecision(ctx, completer, agents.NewContext(messages...), options)
}

func decisionRow(d *agents.Decision) types.Row {
	return types.NewRow(
		types.MRP("key", d.Key),
		types.MRP("name", d.Option.Name),
		types.MRP("description", d.Option.Description),
		types.MRP("reasoning", d.Reasoning),
		types.MRP("thought", d.Thought),
		types.MRP("cost", d.Cost.Total),
	)
}

// parseOption parses key=name:description. The key may be left out, it is
// then derived from the name.
func parseOption(s string) (agents.Option, error) {
	key := ""
	rest := s
	if i := strings.Index(s, "="); i >= 0 {
		key, rest = strings.TrimSpace(s[:i]), s[i+1:]
	}

	name, description, ok := strings.Cut(rest, ":")
	if !ok {
		return agents.Option{}, errors.Errorf("option %q is not of the form key=name:description", s)
	}
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" || description == "" {
		return agents.Option{}, errors.Errorf("option %q needs a name and a description", s)
	}

	// same rules as tree nodes
	leaf, err := agents.NewLeaf(key, name, description, noopHandler)
	if err != nil {
		return agents.Option{}, err
	}
	return agents.OptionFromNode(leaf), nil
}

func parseOptions(raw []string) ([]agents.Option, error) {
	ret := make([]agents.Option, 0, len(raw))
	seen := map[string]bool{}
	for _, s := range raw {
		o, err := parseOption(s)
		if err != nil {
			return nil, err
		}
		if seen[o.Key] {
			return nil, errors.Errorf("duplicate option key %s", o.Key)
		}
		seen[o.Key] = true
		ret = append(ret, o)
	}
	return ret, nil
}

var noopHandler agents.Handler = func(_ context.Context, _ *agents.Context) (interface{}, error) {
	return nil, nil
}
