package completion

import (
	"sort"

	"github.com/pkg/errors"
)

const DefaultModelKey = "gpt-4o-mini-2024-07-18"

// Model holds the per-token pricing of an engine.
//
// Prices are dollars per token, e.g. $0.15 / 1M input tokens is 1.5e-7.
type Model struct {
	Key                string  `yaml:"key"`
	Name               string  `yaml:"name"`
	ContextWindow      int     `yaml:"context_window"`
	InputCostPerToken  float64 `yaml:"input_cost_per_token"`
	OutputCostPerToken float64 `yaml:"output_cost_per_token"`
}

func (m *Model) CostFor(u Usage) Cost {
	input := m.InputCostPerToken * float64(u.Input)
	output := m.OutputCostPerToken * float64(u.Output)
	return Cost{
		Input:  input,
		Output: output,
		Total:  input + output,
	}
}

var models = map[string]*Model{
	"gpt-4o-mini-2024-07-18": {
		Key:                "gpt-4o-mini-2024-07-18",
		Name:               "GPT-4o mini (2024-07-18)",
		ContextWindow:      128_000,
		InputCostPerToken:  1.5e-7,
		OutputCostPerToken: 6.0e-7,
	},
	"gpt-4o-mini": {
		Key:                "gpt-4o-mini",
		Name:               "GPT-4o mini",
		ContextWindow:      128_000,
		InputCostPerToken:  1.5e-7,
		OutputCostPerToken: 6.0e-7,
	},
	"gpt-4o-2024-08-06": {
		Key:                "gpt-4o-2024-08-06",
		Name:               "GPT-4o (2024-08-06)",
		ContextWindow:      128_000,
		InputCostPerToken:  2.5e-6,
		OutputCostPerToken: 1.0e-5,
	},
	"gpt-4o": {
		Key:                "gpt-4o",
		Name:               "GPT-4o",
		ContextWindow:      128_000,
		InputCostPerToken:  2.5e-6,
		OutputCostPerToken: 1.0e-5,
	},
}

var ErrUnknownModel = errors.New("unknown model")

func ModelForKey(key string) (*Model, error) {
	m, ok := models[key]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModel, "%s", key)
	}
	ret := *m
	return &ret, nil
}

func ModelKeys() []string {
	keys := make([]string, 0, len(models))
	for k := range models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
