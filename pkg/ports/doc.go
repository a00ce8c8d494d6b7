/*
Package ports defines the driven ports (interfaces) for the Arbor engine.

These interfaces decouple the interpreter and the HTTP surface from storage and
delivery implementations, so the engine runs unchanged against memory, Redis or
file-backed collaborators.

# Key Interfaces

  - ContactStore: canonical contact lookups (by id, social id, email) and persistence.
  - EventStore: append-only audit log of runs.
  - TreeLoader: resolves the configured action tree for an action id.
  - Mailer: delivers messages produced by mail actions.
  - DistributedLocker: coordinates contact writes across replicas.
*/
package ports
