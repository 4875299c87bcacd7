// Package runtime implements the autofix orchestration core: the outcome classifier,
// the agent dispatcher, the single-shot remediation workflow, the supervisor-driven
// multi-turn loop and the health aggregator.
//
// Every call into an external capability goes through a result boundary that turns
// errors and panics into data, so a failing collaborator never aborts a workflow.
package runtime
