package conversation

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts the tokens a message occupies in a prompt.
type TokenCounter interface {
	Count(text string) (int, error)
	CountMessage(m *Message) (int, error)
}

type TokenizerCounter struct {
	codec tokenizer.Codec
}

var _ TokenCounter = (*TokenizerCounter)(nil)

// NewTokenizerCounter returns a counter for the given model. Unknown models fall back
// to cl100k_base, which is what the gpt-4 family uses.
func NewTokenizerCounter(model string) (*TokenizerCounter, error) {
	if model != "" {
		codec, err := tokenizer.ForModel(tokenizer.Model(model))
		if err == nil {
			return &TokenizerCounter{codec: codec}, nil
		}
		log.Debug().Err(err).Str("model", model).Msg("no tokenizer for model, using cl100k_base")
	}

	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, errors.Wrap(err, "could not load cl100k_base encoding")
	}
	return &TokenizerCounter{codec: codec}, nil
}

func (t *TokenizerCounter) Count(text string) (int, error) {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		return 0, errors.Wrap(err, "could not encode text")
	}
	return len(ids), nil
}

func (t *TokenizerCounter) CountMessage(m *Message) (int, error) {
	total := 0
	for _, p := range m.Content {
		n, err := t.Count(p.Text)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}
