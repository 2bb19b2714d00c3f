package cmds

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/go-go-golems/socra/pkg/events"
	"github.com/go-go-golems/socra/pkg/parse"
	"github.com/spf13/cobra"
)

const describeSystemPrompt = `You are an expert code describer.
Given some code, you will provide a concise description/summary of the code.
%s

Return only your summary and nothing else.
`

func NewDescribeCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "describe TARGET [PROMPT]",
		Short: "Summarize a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := ""
			if len(args) > 1 {
				prompt = args[1]
			}

			content, err := readTarget(args[0])
			if err != nil {
				return err
			}

			completer, err := NewCompleter()
			if err != nil {
				return err
			}

			p, err := conversation.NewPrompt(
				conversation.NewMessage(conversation.RoleSystem, fmt.Sprintf(describeSystemPrompt, prompt)),
				conversation.NewMessage(conversation.RoleHuman, content),
			)
			if err != nil {
				return err
			}

			s := newSpinner(os.Stderr, "Describe "+args[0], events.IsTerminal(os.Stderr))
			resp, err := completer.Complete(cmd.Context(), p, completion.WithOnChunk(s.OnChunk()))
			if err != nil {
				return err
			}
			s.Finish(resp.Cost)

			summary := parse.StripFences(resp.Content)
			w := cmd.OutOrStdout()
			if !plain && isTerminalWriter(w) {
				styled, err := glamour.Render(summary, "dark")
				if err == nil {
					summary = styled
				}
			}
			_, err = fmt.Fprintln(w, summary)
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Do not render markdown")
	return cmd
}
