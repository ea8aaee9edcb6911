package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/rotor-modal/client/internal/results"
)

var (
	boldColor     = color.New(color.Bold)
	positiveColor = color.New(color.FgGreen, color.Bold)
	negativeColor = color.New(color.FgRed, color.Bold)
	aboveColor    = color.New(color.FgGreen)
	belowColor    = color.New(color.FgRed)
)

// renderReport writes view as a summary block followed by an aligned table.
func renderReport(w io.Writer, view *results.ReportView) error {
	for _, field := range view.Summary {
		value := field.Value
		switch field.Tag {
		case "positive":
			value = positiveColor.Sprint(value)
		case "negative":
			value = negativeColor.Sprint(value)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", field.Label, value); err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
	}
	if len(view.Summary) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
	}

	if view.Empty {
		if _, err := fmt.Fprintln(w, view.Notice); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
		return nil
	}

	widths := make([]int, len(view.Headers))
	for i, h := range view.Headers {
		widths[i] = len(h)
	}
	for _, row := range view.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell.Text) > widths[i] {
				widths[i] = len(cell.Text)
			}
		}
	}

	parts := make([]string, len(view.Headers))
	for i, h := range view.Headers {
		parts[i] = boldColor.Sprintf("%-*s", widths[i], h)
	}
	if _, err := fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  ")); err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	for i, width := range widths {
		parts[i] = strings.Repeat("-", width)
	}
	if _, err := fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  ")); err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	for _, row := range view.Rows {
		for i := range view.Headers {
			var cell results.CellView
			if i < len(row) {
				cell = row[i]
			}
			display := cell.Text
			switch cell.Emphasis {
			case "positive":
				display = aboveColor.Sprint(cell.Text)
			case "negative":
				display = belowColor.Sprint(cell.Text)
			}
			// Padding is based on the raw text, not the ANSI-colored string.
			parts[i] = display + strings.Repeat(" ", widths[i]-len(cell.Text))
		}
		if _, err := fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  ")); err != nil {
			return fmt.Errorf("render table: %w", err)
		}
	}
	return nil
}
