/*
Package action defines what an action type sees and returns during a run.

An ExecutionContext is created once per run and cloned once per node. Each clone
copies the per-node fields (node, contact, contact state) and shares one RunState
holding the property bag, the error list, the audit event and the "log seen" flag.
Action types return a Result whose Status tells the interpreter whether to continue,
stop with a redirect, or deny.
*/
package action
