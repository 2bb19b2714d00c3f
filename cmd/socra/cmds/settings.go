package cmds

import (
	"time"

	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func AddCompletionFlags(fs *pflag.FlagSet) {
	fs.String("engine", completion.DefaultModelKey, "Model used for completions")
	fs.String("openai-api-key", "", "OpenAI API key")
	fs.String("openai-base-url", "", "OpenAI compatible base URL")
	fs.String("openai-organization", "", "OpenAI organization")
	fs.Float64("temperature", 0, "Sampling temperature")
	fs.Int("max-response-tokens", 0, "Maximum number of tokens in a response")
	fs.Bool("stream", false, "Always stream completions")
	fs.Duration("timeout", 60*time.Second, "Timeout of a single completion request")
	fs.String("mock-responses", "", "YAML file of canned responses, no network calls are made")
}

// NewSettingsFromViper collects the completion settings from flags, env and
// config file.
func NewSettingsFromViper() *completion.Settings {
	s := completion.NewSettings()
	if engine := viper.GetString("engine"); engine != "" {
		s.Engine = engine
	}
	s.APIKey = viper.GetString("openai-api-key")
	s.BaseURL = viper.GetString("openai-base-url")
	s.Organization = viper.GetString("openai-organization")
	s.Stream = viper.GetBool("stream")
	if timeout := viper.GetDuration("timeout"); timeout > 0 {
		s.Timeout = timeout
	}
	if viper.IsSet("temperature") {
		t := viper.GetFloat64("temperature")
		s.Temperature = &t
	}
	if n := viper.GetInt("max-response-tokens"); n > 0 {
		s.MaxResponseTokens = &n
	}
	return s
}

// NewCompleter returns a mock completer when --mock-responses is set, the
// OpenAI completer otherwise.
func NewCompleter() (completion.Completer, error) {
	settings := NewSettingsFromViper()

	if path := viper.GetString("mock-responses"); path != "" {
		responses, err := completion.LoadMockResponsesFromFile(path)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("file", path).Int("responses", len(responses)).Msg("using mock completer")
		var options []completion.MockOption
		if model, err := completion.ModelForKey(settings.Engine); err == nil {
			options = append(options, completion.WithMockModel(model))
		}
		return completion.NewMockCompleter(responses, options...), nil
	}

	c, err := completion.NewOpenAICompleter(settings)
	if err != nil {
		if errors.Is(err, completion.ErrMissingAPIKey) {
			return nil, errors.Wrap(err, "set --openai-api-key, SOCRA_OPENAI_API_KEY or OPENAI_API_KEY")
		}
		return nil, err
	}
	return c, nil
}
