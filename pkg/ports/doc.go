/*
Package ports defines the driven ports (interfaces) of the autofix engine.

These interfaces decouple the orchestration runtime from the collaborators it consults
and from persistence, so the same loop runs against Kubernetes, test doubles or
future decision policies.

# Key Interfaces

  - Supervisor: Decides routing and termination of the multi-turn loop.
  - ClusterFixer: Inspects and repairs a workload, returning a free-form report.
  - Notifier: Delivers human-help requests and incident alerts.
  - NotificationDispatch: Delivers the outcome of a single-shot remediation.
  - RunStore: Persists workflow reports for later lookup.
  - DistributedLocker: Coordinates remediation of the same target across replicas.
*/
package ports
