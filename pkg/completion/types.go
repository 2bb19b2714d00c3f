package completion

import (
	"context"

	"github.com/go-go-golems/socra/pkg/conversation"
)

// Usage counts the tokens of a single completion, or a sum of several.
type Usage struct {
	Input  int `json:"input" yaml:"input"`
	Output int `json:"output" yaml:"output"`
	Total  int `json:"total" yaml:"total"`
}

func (u Usage) Add(other Usage) Usage {
	return Usage{
		Input:  u.Input + other.Input,
		Output: u.Output + other.Output,
		Total:  u.Total + other.Total,
	}
}

// Cost is the dollar cost of a completion, split by input and output tokens.
type Cost struct {
	Input  float64 `json:"input" yaml:"input"`
	Output float64 `json:"output" yaml:"output"`
	Total  float64 `json:"total" yaml:"total"`
}

func (c Cost) Add(other Cost) Cost {
	return Cost{
		Input:  c.Input + other.Input,
		Output: c.Output + other.Output,
		Total:  c.Total + other.Total,
	}
}

type Response struct {
	Content string `json:"content" yaml:"content"`
	Model   string `json:"model" yaml:"model"`
	Usage   Usage  `json:"usage" yaml:"usage"`
	Cost    Cost   `json:"cost" yaml:"cost"`
}

// ChunkPayload is handed to OnChunk callbacks while a completion streams.
// It has no influence on the final Response.
type ChunkPayload struct {
	Chunk     string `json:"chunk"`
	Aggregate string `json:"aggregate"`
}

type ChunkFunc func(ChunkPayload)

// Completer is the boundary to the LLM.
type Completer interface {
	Complete(ctx context.Context, prompt *conversation.Prompt, options ...Option) (*Response, error)
}

type Options struct {
	OnChunk ChunkFunc
}

type Option func(*Options)

func WithOnChunk(f ChunkFunc) Option {
	return func(o *Options) {
		o.OnChunk = f
	}
}

func NewOptions(options ...Option) *Options {
	ret := &Options{}
	for _, o := range options {
		o(ret)
	}
	return ret
}
