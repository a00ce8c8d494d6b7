package arbor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/pkg/action"
	"github.com/aretw0/arbor/pkg/actions"
	"github.com/aretw0/arbor/pkg/contacts"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
)

// Engine is the high-level entry point for Arbor.
// It attaches a capability set to each run and forwards it to one designated action type,
// by default the tree interpreter.
type Engine struct {
	impl     action.Type
	registry *registry.Registry
	caps     *action.Capabilities
	loader   ports.TreeLoader
	contacts *contacts.Manager
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks on the default interpreter.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithCapabilities sets the collaborators injected into contexts that carry none.
// The engine keeps its own copy.
func WithCapabilities(caps *action.Capabilities) Option {
	return func(e *Engine) {
		e.caps = caps
	}
}

// WithRegistry replaces the default registry (built-in action types only).
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithImplementation designates the action type every run is forwarded to.
// Any action.Type is accepted; the tree interpreter is used when unset.
func WithImplementation(impl action.Type) Option {
	return func(e *Engine) {
		e.impl = impl
	}
}

// WithLoader sets the source of trees used by Trigger.
func WithLoader(l ports.TreeLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithContactManager persists contact changes after each Trigger.
func WithContactManager(m *contacts.Manager) Option {
	return func(e *Engine) {
		e.contacts = m
	}
}

// New initializes a new Arbor Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.registry == nil {
		eng.registry = registry.NewRegistry()
		actions.RegisterDefaults(eng.registry)
	}
	// Defaults are filled into a copy; the caller's struct is left untouched.
	var caps action.Capabilities
	if eng.caps != nil {
		caps = *eng.caps
	}
	if caps.Logger == nil {
		caps.Logger = eng.logger
	}
	eng.caps = &caps
	if eng.impl == nil {
		eng.impl = runtime.NewEngine(eng.registry,
			runtime.WithLogger(eng.logger),
			runtime.WithLifecycleHooks(eng.hooks),
		)
	}
	return eng
}

// Run injects the engine's capabilities into ec when it has none and executes it.
func (e *Engine) Run(ctx context.Context, ec *action.ExecutionContext) (*action.Result, error) {
	if ec == nil {
		return nil, domain.ErrNilContext
	}
	if ec.Capabilities() == nil {
		ec.SetCapabilities(e.caps)
	}
	return e.impl.Execute(ctx, ec)
}

// Trigger loads the tree rooted at actionID, runs it and persists the resulting
// contact changes when a contact manager is configured.
func (e *Engine) Trigger(ctx context.Context, actionID int32, opts ...action.ContextOption) (*action.Result, error) {
	if e.loader == nil {
		return nil, fmt.Errorf("%w: no tree loader configured", domain.ErrActionNotFound)
	}
	root, err := e.loader.Load(ctx, actionID)
	if err != nil {
		return nil, err
	}

	res, err := e.Run(ctx, action.NewContext(root, opts...))
	if err != nil {
		return nil, err
	}

	if e.contacts != nil {
		if _, err := e.contacts.Apply(ctx, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Registry returns the registry used by the default interpreter.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Capabilities returns the collaborator set injected into runs.
func (e *Engine) Capabilities() *action.Capabilities {
	return e.caps
}

// Loader returns the tree loader, which may be nil.
func (e *Engine) Loader() ports.TreeLoader {
	return e.loader
}
