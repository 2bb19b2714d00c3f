package events

import (
	"context"

	"github.com/go-go-golems/socra/pkg/agents"
)

func metadataFor(e *agents.NodeEvent) EventMetadata {
	ret := EventMetadata{
		RunID:   e.RunID.String(),
		Depth:   e.Depth,
		Attempt: e.Attempt,
	}
	if e.Node != nil {
		ret.NodeKey = e.Node.Key()
		ret.NodeName = e.Node.Name()
	}
	return ret
}

// NewHooks publishes the lifecycle of every run through pm.
func NewHooks(pm *PublisherManager) agents.Hooks {
	return agents.Hooks{
		OnNodeEnter: func(_ context.Context, e *agents.NodeEvent) {
			pm.PublishBlind(NewNodeEnterEvent(metadataFor(e)))
		},
		OnDecisionStart: func(_ context.Context, e *agents.NodeEvent) {
			var candidates []string
			if i, ok := e.Node.(*agents.Interior); ok {
				for _, c := range i.Children() {
					candidates = append(candidates, c.Key())
				}
			}
			pm.PublishBlind(NewDecisionStartEvent(metadataFor(e), candidates))
		},
		OnChunk: func(_ context.Context, e *agents.NodeEvent) {
			if e.Chunk == nil {
				return
			}
			pm.PublishBlind(NewPartialEvent(metadataFor(e), e.Chunk.Chunk, e.Chunk.Aggregate))
		},
		OnDecision: func(_ context.Context, e *agents.NodeEvent) {
			ev := NewDecisionEvent(metadataFor(e))
			if d := e.Decision; d != nil {
				ev.Key = d.Key
				ev.Name = d.Option.Name
				ev.Reasoning = d.Reasoning
				ev.Thought = d.Thought
			}
			ev.Cost = e.Cost
			ev.DurationMs = e.Duration.Milliseconds()
			pm.PublishBlind(ev)
		},
		OnDecisionError: func(_ context.Context, e *agents.NodeEvent) {
			ev := NewDecisionErrorEvent(metadataFor(e), e.Err)
			ev.Cost = e.Cost
			ev.DurationMs = e.Duration.Milliseconds()
			pm.PublishBlind(ev)
		},
		OnLeafStart: func(_ context.Context, e *agents.NodeEvent) {
			pm.PublishBlind(NewLeafStartEvent(metadataFor(e)))
		},
		OnLeafEnd: func(_ context.Context, e *agents.NodeEvent) {
			ev := NewLeafEndEvent(metadataFor(e), e.Err)
			ev.Cost = e.Cost
			ev.DurationMs = e.Duration.Milliseconds()
			pm.PublishBlind(ev)
		},
	}
}
