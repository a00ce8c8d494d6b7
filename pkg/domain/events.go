package domain

import (
	"context"
	"time"
)

// Event is the audit record of one run.
// It is created when the run starts and completed by the log action.
type Event struct {
	ID          string         `json:"id"`
	ActionID    int32          `json:"action_id"`
	NodeID      int32          `json:"node_id,omitempty"`
	ContactID   int32          `json:"contact_id,omitempty"`
	AnonymousID string         `json:"anonymous_id,omitempty"`
	Identity    string         `json:"identity,omitempty"`
	Anonymous   bool           `json:"anonymous,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	LoggedAt    time.Time      `json:"logged_at,omitempty"`
}

// RunEvent describes the start or completion of a run.
type RunEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	RootID    int32         `json:"root_id"`
	Status    Status        `json:"status,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// NodeEvent describes entry into or exit from a node.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	NodeID    int32     `json:"node_id"`
	NodeType  string    `json:"node_type"`
	Status    Status    `json:"status,omitempty"`
	Redirect  string    `json:"redirect,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRunStart    func(context.Context, *RunEvent)
	OnNodeEnter   func(context.Context, *NodeEvent)
	OnNodeLeave   func(context.Context, *NodeEvent)
	OnRunComplete func(context.Context, *RunEvent)
}
