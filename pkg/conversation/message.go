package conversation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleHuman, RoleAssistant:
		return true
	}
	return false
}

type ContentPartType string

const (
	ContentPartTypeText ContentPartType = "text"
)

// ContentPart is an individual part of a message. Only text parts exist for now.
type ContentPart struct {
	Type ContentPartType `json:"type" yaml:"type"`
	Text string          `json:"text" yaml:"text"`
}

func NewTextPart(text string) ContentPart {
	return ContentPart{Type: ContentPartTypeText, Text: text}
}

func (p ContentPart) validate() error {
	if p.Type != ContentPartTypeText {
		return errors.Errorf("invalid content part type %q", p.Type)
	}
	return nil
}

// Message is a role-tagged list of content parts, with an optional name.
type Message struct {
	Role    Role
	Content []ContentPart
	Name    string
}

type MessageOption func(*Message)

func WithName(name string) MessageOption {
	return func(m *Message) {
		m.Name = name
	}
}

// NewMessage creates a message with a single text part.
func NewMessage(role Role, text string, options ...MessageOption) *Message {
	return NewMessageFromParts(role, []ContentPart{NewTextPart(text)}, options...)
}

func NewMessageFromParts(role Role, parts []ContentPart, options ...MessageOption) *Message {
	ret := &Message{
		Role:    role,
		Content: parts,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Text concatenates all text parts.
func (m *Message) Text() string {
	if len(m.Content) == 1 {
		return m.Content[0].Text
	}
	var sb strings.Builder
	for _, p := range m.Content {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func (m *Message) String() string {
	return fmt.Sprintf("[%s]: %s", m.Role, strings.TrimRight(m.Text(), "\n"))
}

// wireMessage is the serialized form. A single part is written as a bare string.
type wireMessage struct {
	Role    Role        `json:"role" yaml:"role"`
	Name    string      `json:"name,omitempty" yaml:"name,omitempty"`
	Content interface{} `json:"content" yaml:"content"`
}

var errNoContent = errors.New("message needs at least one content part")

func (m *Message) toWire() (wireMessage, error) {
	w := wireMessage{Role: m.Role, Name: m.Name}
	switch len(m.Content) {
	case 0:
		return w, errNoContent
	case 1:
		w.Content = m.Content[0].Text
	default:
		w.Content = m.Content
	}
	return w, nil
}

func (m *Message) MarshalJSON() ([]byte, error) {
	w, err := m.toWire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var aux struct {
		Role    Role            `json:"role"`
		Name    string          `json:"name"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(aux.Content) == 0 || bytes.Equal(bytes.TrimSpace(aux.Content), []byte("null")) {
		return errors.New("message content is missing")
	}

	var parts []ContentPart
	var text string
	if err := json.Unmarshal(aux.Content, &text); err == nil {
		parts = []ContentPart{NewTextPart(text)}
	} else if err := json.Unmarshal(aux.Content, &parts); err != nil {
		return errors.Wrap(err, "content must be a string or a list of parts")
	}

	return m.fill(aux.Role, aux.Name, parts)
}

func (m *Message) MarshalYAML() (interface{}, error) {
	return m.toWire()
}

func (m *Message) UnmarshalYAML(value *yaml.Node) error {
	var aux struct {
		Role    Role      `yaml:"role"`
		Name    string    `yaml:"name"`
		Content yaml.Node `yaml:"content"`
	}
	if err := value.Decode(&aux); err != nil {
		return err
	}

	var parts []ContentPart
	switch aux.Content.Kind {
	case yaml.ScalarNode:
		if aux.Content.Tag == "!!null" {
			return errors.New("message content is missing")
		}
		parts = []ContentPart{NewTextPart(aux.Content.Value)}
	case yaml.SequenceNode:
		if err := aux.Content.Decode(&parts); err != nil {
			return err
		}
	default:
		return errors.New("content must be a string or a list of parts")
	}

	return m.fill(aux.Role, aux.Name, parts)
}

func (m *Message) fill(role Role, name string, parts []ContentPart) error {
	if !role.Valid() {
		return errors.Errorf("invalid role %q for message", role)
	}
	if len(parts) == 0 {
		return errNoContent
	}
	for _, p := range parts {
		if err := p.validate(); err != nil {
			return err
		}
	}
	m.Role = role
	m.Name = name
	m.Content = parts
	return nil
}

type Conversation []*Message

// GetSinglePrompt concatenates all the messages, prefixed by their role.
func (messages Conversation) GetSinglePrompt() string {
	if len(messages) == 0 {
		return ""
	}
	if len(messages) == 1 {
		return messages[0].Text()
	}

	prompt := ""
	for _, message := range messages {
		prompt += fmt.Sprintf("[%s]: %s\n", message.Role, message.Text())
	}
	return prompt
}
