package agents

import (
	"context"
	"time"

	"github.com/go-go-golems/socra/pkg/completion"
	"github.com/google/uuid"
)

// NodeEvent describes a step of a run to lifecycle hooks. Only the fields
// relevant to the hook are set.
type NodeEvent struct {
	RunID    uuid.UUID
	Node     Node
	Depth    int
	Attempt  int
	Decision *Decision
	Chunk    *completion.ChunkPayload
	Result   interface{}
	Err      error
	Duration time.Duration
	Cost     completion.Cost
}

// Hooks are callbacks for observing a run. They must not mutate the Context.
type Hooks struct {
	OnNodeEnter     func(context.Context, *NodeEvent)
	OnDecisionStart func(context.Context, *NodeEvent)
	OnChunk         func(context.Context, *NodeEvent)
	OnDecision      func(context.Context, *NodeEvent)
	OnDecisionError func(context.Context, *NodeEvent)
	OnLeafStart     func(context.Context, *NodeEvent)
	OnLeafEnd       func(context.Context, *NodeEvent)
}

// CombineHooks returns hooks calling each of hooks in order.
func CombineHooks(hooks ...Hooks) Hooks {
	pick := func(f func(Hooks) func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
		var fns []func(context.Context, *NodeEvent)
		for _, h := range hooks {
			if fn := f(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		switch len(fns) {
		case 0:
			return nil
		case 1:
			return fns[0]
		}
		return func(ctx context.Context, e *NodeEvent) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}

	return Hooks{
		OnNodeEnter:     pick(func(h Hooks) func(context.Context, *NodeEvent) { return h.OnNodeEnter }),
		OnDecisionStart: pick(func(h Hooks) func(context.Context, *NodeEvent) { return h.OnDecisionStart }),
		OnChunk:         pick(func(h Hooks) func(context.Context, *NodeEvent) { return h.OnChunk }),
		OnDecision:      pick(func(h Hooks) func(context.Context, *NodeEvent) { return h.OnDecision }),
		OnDecisionError: pick(func(h Hooks) func(context.Context, *NodeEvent) { return h.OnDecisionError }),
		OnLeafStart:     pick(func(h Hooks) func(context.Context, *NodeEvent) { return h.OnLeafStart }),
		OnLeafEnd:       pick(func(h Hooks) func(context.Context, *NodeEvent) { return h.OnLeafEnd }),
	}
}

func fire(ctx context.Context, f func(context.Context, *NodeEvent), e *NodeEvent) {
	if f != nil {
		f(ctx, e)
	}
}
