package conversation

import (
	"github.com/pkg/errors"
)

var (
	ErrSystemMessageNotFirst  = errors.New("system message should be first message")
	ErrMultipleSystemMessages = errors.New("only one system message is allowed")
	ErrNilMessage             = errors.New("message is nil")
)

// Prompt is the ordered list of messages sent to a completion.
// At most one system message is allowed, and it has to come first.
type Prompt struct {
	Messages []*Message `json:"messages" yaml:"messages"`
}

func NewPrompt(messages ...*Message) (*Prompt, error) {
	p := &Prompt{Messages: messages}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Prompt) Validate() error {
	systemCount := 0
	for i, m := range p.Messages {
		if m == nil {
			return errors.Wrapf(ErrNilMessage, "message at index %d", i)
		}
		if m.Role != RoleSystem {
			continue
		}
		systemCount++
		if i != 0 {
			return ErrSystemMessageNotFirst
		}
	}
	if systemCount > 1 {
		return ErrMultipleSystemMessages
	}
	return nil
}

func (p *Prompt) AddMessage(m *Message) error {
	if m == nil {
		return ErrNilMessage
	}
	if m.Role == RoleSystem && len(p.Messages) > 0 {
		if p.Messages[0].Role == RoleSystem {
			return ErrMultipleSystemMessages
		}
		return ErrSystemMessageNotFirst
	}
	p.Messages = append(p.Messages, m)
	return nil
}

func (p *Prompt) Conversation() Conversation {
	return Conversation(p.Messages)
}

// LimitContextWindow returns a new prompt whose messages fit into maxTokens minus bufferTokens.
// The system message is always kept, the remaining messages are kept newest first until
// the budget runs out. Order is preserved in the returned prompt.
func (p *Prompt) LimitContextWindow(counter TokenCounter, maxTokens int, bufferTokens int) (*Prompt, error) {
	var system []*Message
	var others []*Message
	for _, m := range p.Messages {
		if m.Role == RoleSystem {
			system = append(system, m)
		} else {
			others = append(others, m)
		}
	}

	systemTokens := 0
	for _, m := range system {
		n, err := counter.CountMessage(m)
		if err != nil {
			return nil, err
		}
		systemTokens += n
	}

	budget := maxTokens - systemTokens - bufferTokens

	var kept []*Message
	used := 0
	for i := len(others) - 1; i >= 0; i-- {
		n, err := counter.CountMessage(others[i])
		if err != nil {
			return nil, err
		}
		if used+n > budget {
			break
		}
		kept = append(kept, others[i])
		used += n
	}

	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}

	messages := make([]*Message, 0, len(system)+len(kept))
	messages = append(messages, system...)
	messages = append(messages, kept...)

	return &Prompt{Messages: messages}, nil
}
