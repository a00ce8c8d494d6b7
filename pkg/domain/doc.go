/*
Package domain contains the core domain models for the Arbor action-tree engine.

It defines the configured action tree, the contact profile a run operates on, the
audit event every run produces, and the outcome vocabulary shared by the interpreter
and every action type. The package has no I/O and no external dependencies.

# Key Entities

  - ActionNode: one configured step (redirect, log, send-mail...) in a hierarchical tree.
  - Contact: the visitor or lead a run resolves and possibly modifies.
  - ContactState: the pending persistence classification a run assigns to a contact.
  - Status: Success, Failed or Forbidden, the outcome of a node or a whole run.
  - Event: the audit record built during a run.
*/
package domain
