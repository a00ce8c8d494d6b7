package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// Engine is the action-tree interpreter.
// It implements action.Type, so it can itself be plugged in wherever an action type is expected.
type Engine struct {
	registry *registry.Registry
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates an interpreter resolving action types through reg.
func NewEngine(reg *registry.Registry, opts ...EngineOption) *Engine {
	if reg == nil {
		reg = registry.NewRegistry()
	}
	e := &Engine{
		registry: reg,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ action.Type = (*Engine)(nil)

// Execute runs the tree rooted at the context's current node.
//
// The transient contact is resolved and merged once, then the root is evaluated.
// If no log node was visited, a synthetic anonymous log node runs afterwards so every
// run leaves an audit event; its result is discarded.
// Domain outcomes are reported through the result status. Errors are reserved for
// programmer errors and collaborator failures, which abort the run.
func (e *Engine) Execute(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
	if ec == nil {
		return nil, domain.ErrNilContext
	}
	root := ec.Node()
	if root == nil {
		return nil, domain.ErrNilNode
	}

	started := time.Now()
	e.emitRunStart(ctx, root)

	if err := e.resolveContact(ctx, ec); err != nil {
		return nil, err
	}

	res, err := e.evaluateNode(ctx, ec)
	if err != nil {
		return nil, err
	}

	if !ec.LogSeen() {
		audit := ec.WithNode(&domain.ActionNode{
			ID:        root.ID,
			Type:      domain.TypeLog,
			Enabled:   true,
			Anonymous: true,
		})
		audit.Adopt(res)
		if _, err := e.evaluateNode(ctx, audit); err != nil {
			return nil, fmt.Errorf("audit log: %w", err)
		}
	}

	e.emitRunComplete(ctx, root, res.Status, time.Since(started))
	return res, nil
}

// evaluateNode runs the context's node and, when it succeeds, its children.
func (e *Engine) evaluateNode(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
	node := ec.Node()
	if node == nil {
		return nil, domain.ErrNilNode
	}

	if node.Type == domain.TypeLog {
		ec.MarkLogSeen()
	}

	e.emitNodeEnter(ctx, node)

	if !node.Enabled {
		e.logger.DebugContext(ctx, "node disabled", "node_id", node.ID, "type", node.Type)
		res := ec.Failed()
		e.emitNodeLeave(ctx, node, res)
		return res, nil
	}

	impl, ok := e.registry.Lookup(node.Type)
	if !ok {
		e.logger.WarnContext(ctx, "action type not registered", "node_id", node.ID, "type", node.Type)
		res := ec.Failed()
		e.emitNodeLeave(ctx, node, res)
		return res, nil
	}

	res, err := impl.Execute(ctx, ec)
	if err != nil {
		return nil, &domain.ActionError{NodeID: node.ID, Type: node.Type, Err: err}
	}
	if res == nil {
		e.logger.WarnContext(ctx, "action type returned no result", "node_id", node.ID, "type", node.Type)
		return nil, fmt.Errorf("%w: node %d (%s)", domain.ErrActivityResultRequired, node.ID, node.Type)
	}

	e.logger.DebugContext(ctx, "node evaluated",
		"node_id", node.ID,
		"type", node.Type,
		"status", res.Status,
		"redirect", res.Redirect,
	)

	if res.Status == domain.StatusSuccess && node.HasChildren() {
		ec.Adopt(res)
		res, err = e.evaluateChildren(ctx, ec, node.Children)
		if err != nil {
			return nil, err
		}
	}

	e.emitNodeLeave(ctx, node, res)
	return res, nil
}

// evaluateChildren evaluates siblings left to right.
// Each child runs on a clone of the previous sibling's context. Evaluation stops on
// Forbidden or on a Success carrying a redirect; anything else moves on to the next sibling.
// An empty list yields Failed.
func (e *Engine) evaluateChildren(ctx context.Context, ec *action.ExecutionContext, children []*domain.ActionNode) (*action.Result, error) {
	last := ec.Failed()
	current := ec

	for _, child := range children {
		next := current.WithNode(child)
		res, err := e.evaluateNode(ctx, next)
		if err != nil {
			return nil, err
		}
		last = res

		if res.IsTerminal() {
			return res, nil
		}

		next.Adopt(res)
		current = next
	}

	return last, nil
}
