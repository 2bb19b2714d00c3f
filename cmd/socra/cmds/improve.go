package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/go-go-golems/socra/pkg/events"
	"github.com/go-go-golems/socra/pkg/parse"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const improveSystemPrompt = `You are an expert code improver.
Given some code, you will improve it with the following prompt:
"%s"

Return only the improved code and nothing else.
`

func NewImproveCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "improve TARGET [PROMPT]",
		Short: "Rewrite a file with the model",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := ""
			if len(args) > 1 {
				prompt = args[1]
			}

			completer, err := NewCompleter()
			if err != nil {
				return err
			}

			improved, err := improveFile(cmd.Context(), completer, args[0], prompt, os.Stderr)
			if err != nil {
				return err
			}

			if dryRun {
				_, err = fmt.Fprint(cmd.OutOrStdout(), improved)
				return err
			}
			return writeFilePreservingMode(args[0], improved)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the improved file instead of overwriting it")
	return cmd
}

func readTarget(target string) (string, error) {
	fi, err := os.Stat(target)
	if err != nil {
		return "", errors.Wrapf(err, "target %s not found", target)
	}
	if !fi.Mode().IsRegular() {
		return "", errors.Errorf("target %s must be a file", target)
	}
	b, err := os.ReadFile(target)
	if err != nil {
		return "", errors.Wrapf(err, "could not read %s", target)
	}
	return string(b), nil
}

func improveFile(
	ctx context.Context,
	completer completion.Completer,
	target string,
	prompt string,
	progress io.Writer,
) (string, error) {
	content, err := readTarget(target)
	if err != nil {
		return "", err
	}

	p, err := conversation.NewPrompt(
		conversation.NewMessage(conversation.RoleSystem, fmt.Sprintf(improveSystemPrompt, prompt)),
		conversation.NewMessage(conversation.RoleHuman, content),
	)
	if err != nil {
		return "", err
	}

	s := newSpinner(progress, "Improving "+target, isTerminalWriter(progress))
	resp, err := completer.Complete(ctx, p, completion.WithOnChunk(s.OnChunk()))
	if err != nil {
		return "", err
	}
	s.Finish(resp.Cost)

	log.Debug().
		Str("target", target).
		Float64("cost", resp.Cost.Total).
		Int("tokens", resp.Usage.Total).
		Msg("improved file")

	return extractCode(resp.Content), nil
}

// extractCode returns the first fenced block of a markdown answer, or the
// answer with its fences stripped.
func extractCode(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		blocks, err := parse.ExtractCodeBlocks(content, "")
		if err == nil && len(blocks) > 0 {
			return blocks[0].Code
		}
	}
	ret := parse.StripFences(content)
	if !strings.HasSuffix(ret, "\n") {
		ret += "\n"
	}
	return ret
}

func writeFilePreservingMode(path string, content string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, []byte(content), fi.Mode().Perm()), "could not write %s", path)
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && events.IsTerminal(f)
}
