// Package graph draws workflow transcripts as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/autofix/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of the turns of a workflow report.
// Shapes:
// - Start / end: ((Circle))
// - ClusterFixer: [[Subroutine]]
// - Notifier: [/Parallelogram/]
// - Other agents: [Rectangle]
// The routing reasoning labels each edge. The terminal node is styled by outcome.
func GenerateMermaid(report *domain.WorkflowReport) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    start((\"start\"))\n")

	if report.Failed() {
		sb.WriteString(fmt.Sprintf("    failed((\"failed: %s\"))\n", escapeLabel(report.Error)))
		sb.WriteString("    start --> failed\n")
		writeStyles(&sb, "failed", "failed")
		return sb.String()
	}

	prev := "start"
	for _, entry := range report.Transcript {
		id := fmt.Sprintf("step%d_%s", entry.Step, sanitizeMermaidID(entry.Agent))
		opener, closer := "[", "]"
		switch domain.ParseAgent(entry.Agent) {
		case domain.AgentFinish:
			opener, closer = "((", "))"
		case domain.AgentClusterFixer:
			opener, closer = "[[", "]]"
		case domain.AgentNotifier:
			opener, closer = "[/", "/]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%d. %s\"%s\n", id, opener, entry.Step, entry.Agent, closer))

		arrow := "-->"
		if entry.Reasoning != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(entry.Reasoning))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", prev, arrow, id))
		prev = id
	}

	if report.TerminatedBy != domain.TerminatedByFinish {
		sb.WriteString(fmt.Sprintf("    stop((\"%s\"))\n", report.TerminatedBy))
		sb.WriteString(fmt.Sprintf("    %s -.-> stop\n", prev))
		prev = "stop"
	}
	writeStyles(&sb, prev, "current")
	return sb.String()
}

func writeStyles(sb *strings.Builder, node, class string) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef current fill:#c8e6c9,stroke:#2e7d32,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000;\n")
	sb.WriteString(fmt.Sprintf("    class %s %s;\n", node, class))
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 80 {
		s = string(r[:80]) + "..."
	}
	return s
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
