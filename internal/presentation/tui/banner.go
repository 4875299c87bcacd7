package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/aretw0/autofix/pkg/domain"
)

// PrintBanner outputs the ASCII art banner shown when the server starts.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"     _         _         __ _       ", "#818cf8"},
		{"    / \\  _   _| |_ ___  / _(_)_  __", "#a78bfa"},
		{"   / _ \\| | | | __/ _ \\| |_| \\ \\/ /", "#c084fc"},
		{"  / ___ \\ |_| | || (_) |  _| |>  < ", "#e879f9"},
		{" /_/   \\_\\__,_|\\__\\___/|_| |_/_/\\_\\", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// StatusLine is a one-line colored verdict, e.g. "✔ success".
func StatusLine(ok bool, label string) string {
	p := termenv.ColorProfile()
	if ok {
		return termenv.String("✔ " + label).Foreground(p.Color("#22c55e")).Bold().String()
	}
	return termenv.String("✘ " + label).Foreground(p.Color("#ef4444")).Bold().String()
}

// HealthLine summarizes a health report in one line.
func HealthLine(report domain.HealthReport) string {
	return StatusLine(report.Status == domain.HealthHealthy, string(report.Status))
}
