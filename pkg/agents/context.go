package agents

import (
	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/google/uuid"
	"github.com/huandu/go-clone"
)

// Context is the state threaded through one run: the conversation, the keys
// of every visited node, and the accumulated completion cost.
//
// A Context belongs to a single run and must not be shared between
// goroutines.
type Context struct {
	ID uuid.UUID

	messages    []*conversation.Message
	history     []string
	cost        completion.Cost
	usage       completion.Usage
	completions []*completion.Response
	stopped     bool
}

func NewContext(messages ...*conversation.Message) *Context {
	return &Context{
		ID:       uuid.New(),
		messages: append([]*conversation.Message{}, messages...),
	}
}

func (c *Context) AddMessage(m *conversation.Message) {
	c.messages = append(c.messages, m)
}

func (c *Context) AddInvocation(key string) {
	c.history = append(c.history, key)
}

// AddThought records text as if the assistant had said it.
func (c *Context) AddThought(text string) {
	c.AddMessage(conversation.NewMessage(conversation.RoleAssistant, text))
}

// TrackCompletion accounts the usage and cost of a completion. It must be
// called once for every completion call made on behalf of the run.
func (c *Context) TrackCompletion(resp *completion.Response) {
	if resp == nil {
		return
	}
	c.completions = append(c.completions, resp)
	c.cost = c.cost.Add(resp.Cost)
	c.usage = c.usage.Add(resp.Usage)
}

// Stop asks the driver to end the run after the current walk.
func (c *Context) Stop() {
	c.stopped = true
}

func (c *Context) Stopped() bool {
	return c.stopped
}

func (c *Context) Messages() []*conversation.Message {
	return append([]*conversation.Message{}, c.messages...)
}

func (c *Context) History() []string {
	return append([]string{}, c.history...)
}

func (c *Context) Cost() completion.Cost {
	return c.cost
}

func (c *Context) Usage() completion.Usage {
	return c.usage
}

func (c *Context) Completions() []*completion.Response {
	return append([]*completion.Response{}, c.completions...)
}

// Snapshot returns a deep copy, e.g. to keep the state of a failed run around.
func (c *Context) Snapshot() *Context {
	return clone.Clone(c).(*Context)
}
