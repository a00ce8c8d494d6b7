package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arbor/pkg/domain"
)

// LoggingHooks logs run completion at Info and node transitions at Debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "node_id", e.NodeID, "type", e.NodeType)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_leave", "node_id", e.NodeID, "status", e.Status)
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_complete",
				"root_id", e.RootID,
				"status", e.Status,
				"duration", e.Duration,
			)
		},
	}
}

// Combine fans every hook out to each of the given hook sets, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, s := range sets {
		out.OnRunStart = chainRun(out.OnRunStart, s.OnRunStart)
		out.OnRunComplete = chainRun(out.OnRunComplete, s.OnRunComplete)
		out.OnNodeEnter = chainNode(out.OnNodeEnter, s.OnNodeEnter)
		out.OnNodeLeave = chainNode(out.OnNodeLeave, s.OnNodeLeave)
	}
	return out
}

func chainRun(a, b func(context.Context, *domain.RunEvent)) func(context.Context, *domain.RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainNode(a, b func(context.Context, *domain.NodeEvent)) func(context.Context, *domain.NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
