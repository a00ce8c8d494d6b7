/*
Package observability turns interpreter lifecycle hooks into logs and Prometheus metrics.

Hooks are plain domain.LifecycleHooks values, so they can be combined and passed to
arbor.WithLifecycleHooks.
*/
package observability
