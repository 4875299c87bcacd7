/*
Package domain contains the core domain models of the autofix remediation engine.

It defines the entities shared by the orchestration runtime and its adapters: the
per-run WorkflowState, the transcript of routing decisions, the RemediationOutcome of a
single-shot repair attempt and the composite HealthReport. The package is free of I/O.

# Key Entities

  - WorkflowState: Mutable state owned by exactly one in-flight multi-turn run.
  - AgentID: Closed set of specialists the dispatcher knows how to invoke.
  - RemediationOutcome: Verdict of one repair attempt plus the actions taken.
  - WorkflowReport: Final report of a multi-turn run (completed or failed).
*/
package domain
