// Package tui renders service results for a terminal.
package tui

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/autofix/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// When stdout is not a terminal the markdown is returned as-is.
func NewRenderer() func(string) (string, error) {
	if !IsTerminal() {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// OutcomeMarkdown describes a single-shot remediation.
func OutcomeMarkdown(deployment, namespace string, outcome domain.RemediationOutcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Remediation `%s/%s`\n\n", namespace, deployment)
	fmt.Fprintf(&sb, "**Status:** %s\n\n", outcome.Status())
	if len(outcome.ActionsTaken) > 0 {
		sb.WriteString("## Actions\n\n")
		for _, action := range outcome.ActionsTaken {
			fmt.Fprintf(&sb, "- %s\n", action)
		}
		sb.WriteString("\n")
	}
	if outcome.ErrorMessage != "" {
		fmt.Fprintf(&sb, "> %s\n\n", outcome.ErrorMessage)
	}
	sb.WriteString("## Report\n\n")
	writeCodeBlock(&sb, outcome.Report)
	return sb.String()
}

// WorkflowMarkdown describes a multi-turn run as a table of turns.
func WorkflowMarkdown(report *domain.WorkflowReport) string {
	var sb strings.Builder
	sb.WriteString("# Workflow\n\n")
	if report.RunID != "" {
		fmt.Fprintf(&sb, "**Run:** `%s`  \n", report.RunID)
	}
	fmt.Fprintf(&sb, "**Status:** %s  \n", report.Status)
	if report.Failed() {
		fmt.Fprintf(&sb, "\n> %s\n", report.Error)
		return sb.String()
	}
	fmt.Fprintf(&sb, "**Iterations:** %d  \n", report.Iterations)
	fmt.Fprintf(&sb, "**Terminated by:** %s  \n", report.TerminatedBy)
	if report.FinalStep != "" {
		fmt.Fprintf(&sb, "**Final state:** %s  \n", report.FinalStep)
	}

	if len(report.Transcript) > 0 {
		sb.WriteString("\n| Step | Agent | Reasoning |\n|---|---|---|\n")
		for _, entry := range report.Transcript {
			fmt.Fprintf(&sb, "| %d | %s | %s |\n", entry.Step, entry.Agent, tableCell(entry.Reasoning))
		}
	}
	return sb.String()
}

// HealthMarkdown lists every probed component.
func HealthMarkdown(report domain.HealthReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Health: %s\n\n", report.Status)

	names := make([]string, 0, len(report.Components))
	for name := range report.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("| Component | Healthy |\n|---|---|\n")
	for _, name := range names {
		mark := "yes"
		if !report.Components[name] {
			mark = "**no**"
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", name, mark)
	}
	return sb.String()
}

// ReportMarkdown wraps a free-text capability report.
func ReportMarkdown(title, report string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	writeCodeBlock(&sb, report)
	return sb.String()
}

func writeCodeBlock(sb *strings.Builder, text string) {
	sb.WriteString("```\n")
	sb.WriteString(strings.TrimRight(text, "\n"))
	sb.WriteString("\n```\n")
}

func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
