package agents

import (
	"context"
	"time"

	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/go-go-golems/socra/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultRetryMessage = "Your previous response could not be used. Respond only in JSON format, with the key of one of the available actions."

// RetryPolicy re-runs a failed decision after telling the model what went
// wrong. The zero value disables retries.
type RetryPolicy struct {
	MaxRetries int
	Message    string
}

func (r RetryPolicy) feedback(err error) string {
	msg := r.Message
	if msg == "" {
		msg = DefaultRetryMessage
	}
	return msg + "\n\nError: " + err.Error()
}

type Outcome struct {
	Leaf   *Leaf
	Result interface{}
}

// Executor walks a tree from the root, deciding at every interior node, until
// a leaf handler has run.
type Executor struct {
	completer     completion.Completer
	hooks         Hooks
	retry         RetryPolicy
	decideOptions []DecideOption
}

type ExecutorOption func(*Executor)

func WithHooks(hooks ...Hooks) ExecutorOption {
	return func(e *Executor) {
		e.hooks = CombineHooks(append([]Hooks{e.hooks}, hooks...)...)
	}
}

func WithRetryPolicy(r RetryPolicy) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

func WithDecideOptions(opts ...DecideOption) ExecutorOption {
	return func(e *Executor) {
		e.decideOptions = append(e.decideOptions, opts...)
	}
}

func NewExecutor(completer completion.Completer, options ...ExecutorOption) *Executor {
	ret := &Executor{
		completer: completer,
	}
	for _, o := range options {
		o(ret)
	}
	return ret
}

func (e *Executor) Completer() completion.Completer {
	return e.completer
}

// Run validates and seals the tree, then walks it. Every visited node is
// recorded in the history of c before anything else happens, so a failed run
// still shows how far it got.
func (e *Executor) Run(ctx context.Context, root Node, c *Context) (*Outcome, error) {
	if err := Validate(root); err != nil {
		return nil, err
	}
	seal(root)

	node := root
	for depth := 0; ; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.AddInvocation(node.Key())
		fire(ctx, e.hooks.OnNodeEnter, &NodeEvent{RunID: c.ID, Node: node, Depth: depth})

		switch n := node.(type) {
		case *Interior:
			d, err := e.decide(ctx, n, c, depth)
			if err != nil {
				return nil, err
			}
			node = d.Selected

		case *Leaf:
			return e.runLeaf(ctx, n, c, depth)

		default:
			return nil, errors.Wrapf(ErrInvalidNode, "%T", node)
		}
	}
}

func (e *Executor) runLeaf(ctx context.Context, l *Leaf, c *Context, depth int) (*Outcome, error) {
	fire(ctx, e.hooks.OnLeafStart, &NodeEvent{RunID: c.ID, Node: l, Depth: depth})

	start := time.Now()
	costBefore := c.Cost()
	result, err := l.handler(ctx, c)

	fire(ctx, e.hooks.OnLeafEnd, &NodeEvent{
		RunID:    c.ID,
		Node:     l,
		Depth:    depth,
		Result:   result,
		Err:      err,
		Duration: time.Since(start),
		Cost:     costDelta(costBefore, c.Cost()),
	})

	if err != nil {
		return nil, errors.Wrapf(err, "%s failed", l.Key())
	}
	return &Outcome{Leaf: l, Result: result}, nil
}

func (e *Executor) decide(ctx context.Context, n *Interior, c *Context, depth int) (*Decision, error) {
	for attempt := 0; ; attempt++ {
		ev := &NodeEvent{RunID: c.ID, Node: n, Depth: depth, Attempt: attempt}
		fire(ctx, e.hooks.OnDecisionStart, ev)

		opts := append([]DecideOption{}, e.decideOptions...)
		if e.hooks.OnChunk != nil {
			opts = append(opts, e.chunkForwarder(ctx, ev, opts))
		}

		start := time.Now()
		costBefore := c.Cost()
		d, err := Decide(ctx, e.completer, c, n.children, opts...)
		ev.Duration = time.Since(start)
		ev.Cost = costDelta(costBefore, c.Cost())

		if err == nil {
			ev.Decision = d
			fire(ctx, e.hooks.OnDecision, ev)
			log.Debug().
				Str("node", n.Key()).
				Str("selected", d.Key).
				Str("reasoning", d.Reasoning).
				Msg("decision made")
			return d, nil
		}

		ev.Err = err
		fire(ctx, e.hooks.OnDecisionError, ev)

		if !IsDecisionError(err) || attempt >= e.retry.MaxRetries {
			return nil, err
		}

		log.Warn().Err(err).
			Str("node", n.Key()).
			Int("attempt", attempt+1).
			Msg("decision failed, retrying")
		c.AddMessage(conversation.NewMessage(conversation.RoleHuman, e.retry.feedback(err)))
	}
}

// chunkForwarder sends chunks to the OnChunk hook, in addition to a chunk
// handler already present in opts.
func (e *Executor) chunkForwarder(ctx context.Context, ev *NodeEvent, opts []DecideOption) DecideOption {
	s := &decideSettings{}
	for _, o := range opts {
		o(s)
	}
	previous := s.onChunk

	return WithChunkHandler(func(p completion.ChunkPayload) {
		if previous != nil {
			previous(p)
		}
		chunk := p
		e.hooks.OnChunk(ctx, &NodeEvent{
			RunID:   ev.RunID,
			Node:    ev.Node,
			Depth:   ev.Depth,
			Attempt: ev.Attempt,
			Chunk:   &chunk,
		})
	})
}

func costDelta(before, after completion.Cost) completion.Cost {
	return completion.Cost{
		Input:  after.Input - before.Input,
		Output: after.Output - before.Output,
		Total:  after.Total - before.Total,
	}
}
