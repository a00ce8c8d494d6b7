package runtime

import (
	"context"
	"time"

	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/domain"
)

func (e *Engine) emitRunStart(ctx context.Context, root *domain.ActionNode) {
	if e.hooks.OnRunStart == nil {
		return
	}
	e.hooks.OnRunStart(ctx, &domain.RunEvent{
		Timestamp: time.Now(),
		RootID:    root.ID,
	})
}

func (e *Engine) emitRunComplete(ctx context.Context, root *domain.ActionNode, status domain.Status, d time.Duration) {
	if e.hooks.OnRunComplete == nil {
		return
	}
	e.hooks.OnRunComplete(ctx, &domain.RunEvent{
		Timestamp: time.Now(),
		RootID:    root.ID,
		Status:    status,
		Duration:  d,
	})
}

func (e *Engine) emitNodeEnter(ctx context.Context, node *domain.ActionNode) {
	if e.hooks.OnNodeEnter == nil {
		return
	}
	e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		NodeID:    node.ID,
		NodeType:  node.Type,
	})
}

func (e *Engine) emitNodeLeave(ctx context.Context, node *domain.ActionNode, res *action.Result) {
	if e.hooks.OnNodeLeave == nil {
		return
	}
	e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
		Timestamp: time.Now(),
		NodeID:    node.ID,
		NodeType:  node.Type,
		Status:    res.Status,
		Redirect:  res.Redirect,
	})
}
