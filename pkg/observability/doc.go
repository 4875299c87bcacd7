// Package observability composes lifecycle hooks.
//
// The engine accepts a single domain.LifecycleHooks value; Merge lets hosts combine
// structured logging, metrics and their own callbacks into one.
package observability
