// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/sonder-app/sonder-api/internal/db"
	"github.com/sonder-app/sonder-api/internal/promptgen"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxStepText is how much of each stage's text is shown
	maxStepText = 34
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintGenerated outputs one generation round: topic, raw reply, outcome and result.
func (p *Printer) PrintGenerated(g promptgen.Generated) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Topic:    %s\n", g.Topic))
	sb.WriteString(fmt.Sprintf("Outcome:  %s\n", g.Outcome))
	if g.Err != nil {
		sb.WriteString(fmt.Sprintf("Error:    %s\n", g.Err))
	}
	sb.WriteString(fmt.Sprintf("Words:    %d\n", promptgen.WordCount(g.Text)))
	sb.WriteString("\n")
	if g.Raw != "" {
		sb.WriteString("Raw:\n")
		for _, line := range strings.Split(g.Raw, "\n") {
			sb.WriteString("  " + line + "\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Question:\n")
	sb.WriteString("  " + g.Text)

	p.printBox("GENERATED PROMPT", sb.String())
	p.PrintSteps(g.Steps)
}

// PrintSteps outputs the normalizer trace, one line per stage.
func (p *Printer) PrintSteps(steps []promptgen.Step) {
	if len(steps) == 0 {
		return
	}

	var sb strings.Builder
	for i, step := range steps {
		text := strings.ReplaceAll(step.Text, "\n", "⏎")
		if text == "" {
			text = "(empty)"
		}
		sb.WriteString(fmt.Sprintf("%-21s %s", step.Stage, truncate(text, maxStepText)))
		if i < len(steps)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("NORMALIZER STAGES", sb.String())
}

// PrintPrompt outputs a stored prompt.
func (p *Printer) PrintPrompt(prompt *db.Prompt) {
	if prompt == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ID:       %s\n", prompt.ID))
	sb.WriteString(fmt.Sprintf("Source:   %s\n", prompt.Source))
	sb.WriteString(fmt.Sprintf("Active:   %t\n", prompt.IsActive))
	if prompt.Outcome != nil {
		sb.WriteString(fmt.Sprintf("Outcome:  %s\n", *prompt.Outcome))
	}
	sb.WriteString(fmt.Sprintf("Content:  %s", prompt.Content))

	p.printBox("SAVED PROMPT", sb.String())
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
