package main

import (
	"fmt"
	"os"

	clay "github.com/go-go-golems/clay/pkg"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/socra/cmd/socra/cmds"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "socra",
	Short: "socra lets an LLM walk a tree of capabilities",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// reinitialize the logger because we can now parse --log-level and co
		// from the command line flag
		err := clay.InitLogger()
		cobra.CheckErr(err)
	},
	SilenceUsage: true,
}

func main() {
	cmds.AddCompletionFlags(rootCmd.PersistentFlags())

	err := clay.InitViper("socra", rootCmd)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing config: %s\n", err)
		os.Exit(1)
	}
	// the plain OpenAI variable works too
	err = viper.BindEnv("openai-api-key", "SOCRA_OPENAI_API_KEY", "OPENAI_API_KEY")
	cobra.CheckErr(err)

	err = clay.InitLogger()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logger: %s\n", err)
		os.Exit(1)
	}
	log.Debug().Str("config", viper.ConfigFileUsed()).Msg("Loaded configuration")

	decideCmd, err := cmds.NewDecideCommand()
	cobra.CheckErr(err)
	decideCobraCmd, err := cli.BuildCobraCommandFromGlazeCommand(decideCmd)
	cobra.CheckErr(err)

	countCmd, err := cmds.NewCountCommand()
	cobra.CheckErr(err)
	countCobraCmd, err := cli.BuildCobraCommandFromWriterCommand(countCmd)
	cobra.CheckErr(err)

	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Commands related to tokens",
	}
	tokensCmd.AddCommand(countCobraCmd)

	rootCmd.AddCommand(
		cmds.NewRunCommand(),
		decideCobraCmd,
		cmds.NewImproveCommand(),
		cmds.NewDescribeCommand(),
		tokensCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
