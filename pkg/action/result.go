package action

import "github.com/aretw0/arbor/pkg/domain"

// Result is the outcome of a node, or of a whole run.
// It snapshots the context it was produced from.
type Result struct {
	Status       domain.Status
	AnonymousID  string
	Identity     string
	Event        *domain.Event
	Contact      *domain.Contact
	ContactState domain.ContactState
	Errors       []error

	// Redirect is the destination a successful node asks the caller to send the visitor to.
	// A Success with a non-empty Redirect stops sibling evaluation.
	Redirect string

	LogSeen bool
}

// IsTerminal reports whether the result stops the evaluation of later siblings.
func (r *Result) IsTerminal() bool {
	switch r.Status {
	case domain.StatusForbidden:
		return true
	case domain.StatusSuccess:
		return r.Redirect != ""
	default:
		return false
	}
}

// Result snapshots the context into a result with the given status.
func (ec *ExecutionContext) Result(status domain.Status) *Result {
	return &Result{
		Status:       status,
		AnonymousID:  ec.anonymousID,
		Identity:     ec.identity,
		Event:        ec.run.event,
		Contact:      ec.contact,
		ContactState: ec.contactState,
		Errors:       ec.Errors(),
		LogSeen:      ec.run.logSeen,
	}
}

// Success returns a successful result that lets evaluation continue.
func (ec *ExecutionContext) Success() *Result {
	return ec.Result(domain.StatusSuccess)
}

// Failed returns a failed result. Failed does not stop sibling evaluation.
func (ec *ExecutionContext) Failed() *Result {
	return ec.Result(domain.StatusFailed)
}

// Forbidden returns a denial, which stops evaluation immediately.
func (ec *ExecutionContext) Forbidden() *Result {
	return ec.Result(domain.StatusForbidden)
}

// RedirectTo returns a successful result that ends the run with a destination.
func (ec *ExecutionContext) RedirectTo(destination string) *Result {
	res := ec.Result(domain.StatusSuccess)
	res.Redirect = destination
	return res
}

// Adopt carries the contact and contact state of a finished subtree into this context,
// so the next sibling observes changes made further down the tree.
func (ec *ExecutionContext) Adopt(res *Result) {
	if res == nil {
		return
	}
	ec.contact = res.Contact
	ec.SetContactState(res.ContactState)
}
