package domain

// Status is the outcome of a node or a whole run.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusForbidden Status = "forbidden"
)
