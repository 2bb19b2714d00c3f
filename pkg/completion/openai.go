package completion

import (
	"context"
	"io"
	"strings"

	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
)

var _ Completer = &OpenAICompleter{}

type OpenAICompleter struct {
	Settings *Settings
	model    *Model
	client   *go_openai.Client
}

func NewOpenAICompleter(settings *Settings) (*OpenAICompleter, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	model, err := ModelForKey(settings.Engine)
	if err != nil {
		// Unknown engines still work, they are just priced at zero.
		log.Warn().Str("engine", settings.Engine).Msg("no pricing known for engine, cost will not be tracked")
		model = &Model{Key: settings.Engine, Name: settings.Engine}
	}

	config := go_openai.DefaultConfig(settings.APIKey)
	if settings.BaseURL != "" {
		config.BaseURL = settings.BaseURL
	}
	if settings.Organization != "" {
		config.OrgID = settings.Organization
	}
	config.HTTPClient = settings.httpClient()

	return &OpenAICompleter{
		Settings: settings,
		model:    model,
		client:   go_openai.NewClientWithConfig(config),
	}, nil
}

func (o *OpenAICompleter) Model() *Model {
	return o.model
}

func (o *OpenAICompleter) Complete(
	ctx context.Context,
	prompt *conversation.Prompt,
	options ...Option,
) (*Response, error) {
	if prompt == nil {
		return nil, errors.New("nil prompt")
	}
	if err := prompt.Validate(); err != nil {
		return nil, err
	}

	opts := NewOptions(options...)
	req, err := o.makeRequest(prompt)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("engine", req.Model).
		Int("messages", len(req.Messages)).
		Bool("stream", opts.OnChunk != nil || o.Settings.Stream).
		Msg("requesting completion")

	if opts.OnChunk != nil || o.Settings.Stream {
		return o.completeStream(ctx, req, opts)
	}

	resp, err := o.client.CreateChatCompletion(ctx, *req)
	if err != nil {
		return nil, errors.Wrap(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	return o.makeResponse(resp.Choices[0].Message.Content, resp.Model, resp.Usage), nil
}

func (o *OpenAICompleter) completeStream(
	ctx context.Context,
	req *go_openai.ChatCompletionRequest,
	opts *Options,
) (*Response, error) {
	req.Stream = true
	req.StreamOptions = &go_openai.StreamOptions{IncludeUsage: true}

	stream, err := o.client.CreateChatCompletionStream(ctx, *req)
	if err != nil {
		return nil, errors.Wrap(err, "chat completion stream failed")
	}
	defer stream.Close()

	var (
		sb    strings.Builder
		usage go_openai.Usage
		model = req.Model
	)

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "could not read completion stream")
		}

		if response.Model != "" {
			model = response.Model
		}
		if response.Usage != nil {
			usage = *response.Usage
		}
		if len(response.Choices) == 0 {
			continue
		}

		delta := response.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if opts.OnChunk != nil {
			opts.OnChunk(ChunkPayload{Chunk: delta, Aggregate: sb.String()})
		}
	}

	return o.makeResponse(sb.String(), model, usage), nil
}

func (o *OpenAICompleter) makeResponse(content string, model string, u go_openai.Usage) *Response {
	usage := Usage{
		Input:  u.PromptTokens,
		Output: u.CompletionTokens,
		Total:  u.TotalTokens,
	}
	if usage.Total == 0 {
		usage.Total = usage.Input + usage.Output
	}

	return &Response{
		Content: content,
		Model:   model,
		Usage:   usage,
		Cost:    o.model.CostFor(usage),
	}
}

func (o *OpenAICompleter) makeRequest(prompt *conversation.Prompt) (*go_openai.ChatCompletionRequest, error) {
	msgs := make([]go_openai.ChatCompletionMessage, 0, len(prompt.Messages))
	for _, m := range prompt.Messages {
		msg, err := messageToOpenAI(m)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}

	req := &go_openai.ChatCompletionRequest{
		Model:    o.Settings.Engine,
		Messages: msgs,
	}
	if o.Settings.Temperature != nil {
		req.Temperature = float32(*o.Settings.Temperature)
	}
	if o.Settings.MaxResponseTokens != nil {
		req.MaxTokens = *o.Settings.MaxResponseTokens
	}

	return req, nil
}

func roleToOpenAI(role conversation.Role) (string, error) {
	switch role {
	case conversation.RoleSystem:
		return go_openai.ChatMessageRoleSystem, nil
	case conversation.RoleHuman:
		return go_openai.ChatMessageRoleUser, nil
	case conversation.RoleAssistant:
		return go_openai.ChatMessageRoleAssistant, nil
	default:
		return "", errors.Errorf("unsupported role %q", role)
	}
}

func messageToOpenAI(m *conversation.Message) (go_openai.ChatCompletionMessage, error) {
	role, err := roleToOpenAI(m.Role)
	if err != nil {
		return go_openai.ChatCompletionMessage{}, err
	}

	ret := go_openai.ChatCompletionMessage{
		Role: role,
		Name: m.Name,
	}

	if len(m.Content) == 1 {
		ret.Content = m.Content[0].Text
		return ret, nil
	}

	for _, part := range m.Content {
		if part.Type != conversation.ContentPartTypeText {
			return go_openai.ChatCompletionMessage{}, errors.Errorf("unsupported content part type %q", part.Type)
		}
		ret.MultiContent = append(ret.MultiContent, go_openai.ChatMessagePart{
			Type: go_openai.ChatMessagePartTypeText,
			Text: part.Text,
		})
	}

	return ret, nil
}
