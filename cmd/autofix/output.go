package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix/internal/presentation/tui"
)

const (
	outputAuto     = "auto"
	outputJSON     = "json"
	outputMarkdown = "markdown"
)

// outputMode resolves --output. auto renders markdown on a terminal and JSON otherwise.
func outputMode(cmd *cobra.Command) (string, error) {
	mode, _ := cmd.Flags().GetString("output")
	switch mode {
	case outputJSON, outputMarkdown:
		return mode, nil
	case outputAuto, "":
		if tui.IsTerminal() {
			return outputMarkdown, nil
		}
		return outputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: auto, json, markdown)", mode)
	}
}

// emit writes v as JSON or md() as rendered markdown, depending on --output.
func emit(cmd *cobra.Command, v any, md func() string) error {
	mode, err := outputMode(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if mode == outputJSON {
		return writeJSON(w, v)
	}
	render := tui.NewRenderer()
	out, err := render(md())
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
