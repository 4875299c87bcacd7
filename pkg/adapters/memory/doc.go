// Package memory provides an in-process RunStore for single-replica deployments and tests.
package memory
