package agents

import (
	"context"
	"encoding/json"

	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/go-go-golems/socra/pkg/parse"
	"github.com/pkg/errors"
)

// Extract asks the completer for a JSON object shaped like target, given the
// conversation in c followed by instructions, and decodes it into target.
//
// The completion is accounted in c. A response that does not match the
// schema of target is a *MalformedResponseError.
func Extract(
	ctx context.Context,
	completer completion.Completer,
	c *Context,
	instructions string,
	target interface{},
	opts ...completion.Option,
) error {
	schema, err := parse.SchemaFor(target)
	if err != nil {
		return err
	}

	instruction, err := renderTemplate(extractTemplate, map[string]interface{}{
		"Instructions": instructions,
		"Schema":       schema,
	})
	if err != nil {
		return err
	}

	messages := append(c.Messages(), conversation.NewMessage(conversation.RoleHuman, instruction))
	prompt, err := conversation.NewPrompt(messages...)
	if err != nil {
		return errors.Wrap(err, "invalid extraction prompt")
	}

	resp, err := completer.Complete(ctx, prompt, opts...)
	if err != nil {
		return err
	}
	if resp == nil {
		return errors.New("completer returned no response")
	}
	c.TrackCompletion(resp)

	doc, err := validateResponse(resp.Content, schema)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(doc), target); err != nil {
		return &MalformedResponseError{Content: resp.Content, Reason: "could not decode response", Cause: err}
	}
	return nil
}
