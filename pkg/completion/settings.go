package completion

import (
	"net/http"
	"time"

	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
)

var ErrMissingAPIKey = errors.New("missing openai api key")

type Settings struct {
	Engine            string        `yaml:"engine,omitempty" mapstructure:"engine"`
	APIKey            string        `yaml:"api_key,omitempty" mapstructure:"api-key"`
	BaseURL           string        `yaml:"base_url,omitempty" mapstructure:"base-url"`
	Organization      string        `yaml:"organization,omitempty" mapstructure:"organization"`
	Temperature       *float64      `yaml:"temperature,omitempty" mapstructure:"temperature"`
	MaxResponseTokens *int          `yaml:"max_response_tokens,omitempty" mapstructure:"max-response-tokens"`
	Stream            bool          `yaml:"stream,omitempty" mapstructure:"stream"`
	Timeout           time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	HTTPClient        *http.Client  `yaml:"-" mapstructure:"-"`
}

func NewSettings() *Settings {
	return &Settings{
		Engine:  DefaultModelKey,
		Timeout: 60 * time.Second,
	}
}

// Clone deep copies the settings. The HTTP client is shared.
func (s *Settings) Clone() *Settings {
	c := *s
	c.HTTPClient = nil
	ret := clone.Clone(&c).(*Settings)
	ret.HTTPClient = s.HTTPClient
	return ret
}

func (s *Settings) Validate() error {
	if s.Engine == "" {
		return errors.New("no engine specified")
	}
	if s.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

func (s *Settings) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: s.Timeout}
}
