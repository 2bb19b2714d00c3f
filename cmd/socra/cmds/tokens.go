package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/pkg/errors"
)

type CountSettings struct {
	Model        string   `glazed.parameter:"model"`
	Conversation bool     `glazed.parameter:"conversation"`
	Files        []string `glazed.parameter:"files"`
}

type CountCommand struct {
	*cmds.CommandDescription
}

var _ cmds.WriterCommand = (*CountCommand)(nil)

func NewCountCommand() (*CountCommand, error) {
	return &CountCommand{
		CommandDescription: cmds.NewCommandDescription(
			"count",
			cmds.WithShort("Count the tokens of files (- for stdin)"),
			cmds.WithFlags(
				parameters.NewParameterDefinition(
					"model",
					parameters.ParameterTypeString,
					parameters.WithHelp("Model whose encoding is used"),
					parameters.WithDefault("gpt-4o"),
				),
				parameters.NewParameterDefinition(
					"conversation",
					parameters.ParameterTypeBool,
					parameters.WithHelp("Files are JSON/YAML message lists"),
					parameters.WithDefault(false),
				),
			),
			cmds.WithArguments(
				parameters.NewParameterDefinition(
					"files",
					parameters.ParameterTypeStringList,
					parameters.WithHelp("Files to count"),
					parameters.WithRequired(true),
				),
			),
		),
	}, nil
}

func (cc *CountCommand) RunIntoWriter(
	ctx context.Context,
	parsedLayers *layers.ParsedLayers,
	w io.Writer,
) error {
	s := &CountSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "could not initialize settings")
	}

	counter, err := conversation.NewTokenizerCounter(s.Model)
	if err != nil {
		return err
	}
	return countFiles(w, counter, s, os.Stdin)
}

func countFiles(w io.Writer, counter conversation.TokenCounter, s *CountSettings, stdin io.Reader) error {
	total := 0
	for _, file := range s.Files {
		var n int
		var err error
		if s.Conversation {
			n, err = countConversation(counter, file)
		} else {
			n, err = countFile(counter, file, stdin)
		}
		if err != nil {
			return err
		}
		total += n
		if _, err = fmt.Fprintf(w, "%s: %d\n", file, n); err != nil {
			return errors.Wrap(err, "could not write to output")
		}
	}
	if len(s.Files) > 1 {
		if _, err := fmt.Fprintf(w, "Total tokens: %d\n", total); err != nil {
			return errors.Wrap(err, "could not write to output")
		}
	}
	return nil
}

func countFile(counter conversation.TokenCounter, file string, stdin io.Reader) (int, error) {
	var b []byte
	var err error
	if file == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(filepath.Clean(file))
	}
	if err != nil {
		return 0, errors.Wrapf(err, "could not read %s", file)
	}
	return counter.Count(string(b))
}

func countConversation(counter conversation.TokenCounter, file string) (int, error) {
	messages, err := conversation.LoadFromFile(file)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, m := range messages {
		n, err := counter.CountMessage(m)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
