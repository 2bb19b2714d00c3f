package cmds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-go-golems/socra/pkg/actions/filesystem"
	"github.com/go-go-golems/socra/pkg/actions/userinput"
	"github.com/go-go-golems/socra/pkg/agents"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/go-go-golems/socra/pkg/events"
	"github.com/go-go-golems/socra/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const runTopic = "run"

type runSettings struct {
	MaxIterations int
	Retries       int
	Workspace     string
	MetricsAddr   string
	Tree          string
	Conversation  string
	Save          string
	PrintEvents   bool
	Verbose       bool
}

func NewRunCommand() *cobra.Command {
	s := &runSettings{}

	cmd := &cobra.Command{
		Use:   "run PROMPT...",
		Short: "Let the model work on the workspace until it terminates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runAgent(ctx, s, strings.Join(args, " "), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&s.MaxIterations, "max-iterations", agents.DefaultMaxIterations, "Maximum number of walks through the tree")
	fs.IntVar(&s.Retries, "retries", 0, "Retries of a decision the model answered with an unusable response")
	fs.StringVar(&s.Workspace, "workspace", ".", "Directory the file system actions are confined to")
	fs.StringVar(&s.MetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address (e.g. :9090)")
	fs.StringVar(&s.Tree, "tree", "", "YAML file describing the capability tree (default: builtin tree)")
	fs.StringVar(&s.Conversation, "conversation", "", "JSON or YAML file with messages to start from")
	fs.StringVar(&s.Save, "save-conversation", "", "Write the final conversation to this JSON file")
	fs.BoolVar(&s.PrintEvents, "print-events", false, "Print raw events instead of progress")
	fs.BoolVar(&s.Verbose, "verbose", false, "Log router internals")

	return cmd
}

func runAgent(ctx context.Context, s *runSettings, prompt string, r io.Reader, w io.Writer) error {
	completer, err := NewCompleter()
	if err != nil {
		return err
	}

	ws, err := filesystem.NewWorkspace(s.Workspace)
	if err != nil {
		return err
	}

	tb := newToolbox(completer, ws, w, r)
	var root agents.Node
	if s.Tree != "" {
		root, err = tb.LoadTree(s.Tree)
	} else {
		root, err = tb.DefaultTree()
	}
	if err != nil {
		return err
	}

	messages := []*conversation.Message{conversation.NewMessage(conversation.RoleSystem, systemPrompt)}
	if s.Conversation != "" {
		loaded, err := conversation.LoadFromFile(s.Conversation)
		if err != nil {
			return err
		}
		messages = append(messages, loaded...)
	}
	messages = append(messages, conversation.NewMessage(conversation.RoleHuman, prompt))
	c := agents.NewContext(messages...)

	router, err := events.NewEventRouter(events.WithVerbose(s.Verbose))
	if err != nil {
		return err
	}
	defer func() {
		_ = router.Close()
	}()

	pm := events.NewPublisherManager()
	pm.RegisterPublisher(runTopic, router.Publisher)
	if s.PrintEvents {
		router.AddHandler("raw-dump", runTopic, router.DumpRawEvents(os.Stderr))
	} else {
		router.AddHandler("progress", runTopic, events.ProgressPrinterFunc(os.Stderr, events.IsTerminal(os.Stderr)))
	}

	hooks := []agents.Hooks{events.NewHooks(pm)}

	eg, egCtx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(egCtx)
	defer cancel()

	if s.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		collector, err := metrics.NewCollector(reg)
		if err != nil {
			return err
		}
		hooks = append(hooks, collector.Hooks())

		srv := &http.Server{
			Addr:              s.MetricsAddr,
			Handler:           metrics.Handler(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		eg.Go(func() error {
			log.Info().Str("addr", s.MetricsAddr).Msg("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		eg.Go(func() error {
			<-runCtx.Done()
			return srv.Shutdown(context.Background())
		})
	}

	driver := &agents.Driver{
		Executor: agents.NewExecutor(completer,
			agents.WithHooks(hooks...),
			agents.WithRetryPolicy(agents.RetryPolicy{MaxRetries: s.Retries}),
		),
		MaxIterations: s.MaxIterations,
		StopKeys:      []string{userinput.KeyTerminate},
	}

	eg.Go(func() error {
		return router.Run(runCtx)
	})

	var outcomes []*agents.Outcome
	eg.Go(func() error {
		defer cancel()
		if err := waitRunning(runCtx, router.Running()); err != nil {
			return err
		}
		var err error
		outcomes, err = driver.Run(runCtx, root, c)
		return err
	})

	err = eg.Wait()
	printSummary(w, c, outcomes)

	if s.Save != "" {
		if saveErr := conversation.SaveToFile(s.Save, c.Messages()); saveErr != nil {
			log.Error().Err(saveErr).Str("file", s.Save).Msg("could not save conversation")
		}
	}
	return err
}

func printSummary(w io.Writer, c *agents.Context, outcomes []*agents.Outcome) {
	cost := c.Cost()
	usage := c.Usage()
	_, _ = fmt.Fprintf(w, "\nHistory: %s\n", strings.Join(c.History(), " -> "))
	_, _ = fmt.Fprintf(w, "Walks: %d\n", len(outcomes))
	_, _ = fmt.Fprintf(w, "Tokens: %d in, %d out, %d total\n", usage.Input, usage.Output, usage.Total)
	_, _ = fmt.Fprintf(w, "Cost: $%.6f ($%.6f in, $%.6f out)\n", cost.Total, cost.Input, cost.Output)
}

// waitRunning blocks until running is closed or ctx is done, whichever
// comes first. The router never closes running if it fails to start.
func waitRunning(ctx context.Context, running <-chan struct{}) error {
	select {
	case <-running:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
