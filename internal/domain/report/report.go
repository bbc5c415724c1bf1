// Package report renders calculation results and pathway walks as plain text
// for pasting into clinical notes or printing. The output is for people and
// is not meant to be parsed back.
package report

import (
	"fmt"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// Format selects one of the two renderings.
type Format string

const (
	FormatText  Format = "text"
	FormatPrint Format = "print"
)

// ParseFormat accepts "text" (also the default for an empty string) and
// "print".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatPrint:
		return FormatPrint, nil
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

// Line is a label/value pair.
type Line struct {
	Label string
	Value string
}

// Calculation is a finished calculator run, already formatted for display.
type Calculation struct {
	Title          string
	Description    string
	Inputs         []Line
	Score          string
	Interpretation string
	Severity       string
	Details        []Line
	References     []string
	GeneratedAt    time.Time
}

// Step is one visited node of a pathway.
type Step struct {
	Title           string
	Kind            string
	Answers         []Line
	Recommendations []string
}

// Pathway is a walk through a clinical algorithm.
type Pathway struct {
	Title      string
	Steps      []Step
	Outcome    string
	Complete   bool
	References []string
	// Recommendations is set when the walk ended on a result node.
	Recommendations []string
	GeneratedAt     time.Time
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// RenderCalculation dispatches on f.
func RenderCalculation(f Format, c Calculation) string {
	if f == FormatPrint {
		return CalculationPrint(c)
	}
	return CalculationText(c)
}

// RenderPathway dispatches on f.
func RenderPathway(f Format, p Pathway) string {
	if f == FormatPrint {
		return PathwayPrint(p)
	}
	return PathwayText(p)
}

// CalculationText is the compact note format.
func CalculationText(c Calculation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", c.Title, c.Score)
	if c.Severity != "" {
		fmt.Fprintf(&b, " (%s)", c.Severity)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Interpretation: %s\n", c.Interpretation)
	if len(c.Inputs) > 0 {
		b.WriteString("Inputs: ")
		b.WriteString(joinLines(c.Inputs, "; "))
		b.WriteString("\n")
	}
	for _, d := range c.Details {
		fmt.Fprintf(&b, "%s: %s\n", d.Label, d.Value)
	}
	return b.String()
}

// CalculationPrint is the printer-friendly layout with headings and the
// reference list.
func CalculationPrint(c Calculation) string {
	var b strings.Builder
	heading(&b, c.Title, '=')
	if c.Description != "" {
		b.WriteString(c.Description)
		b.WriteString("\n")
	}
	if !c.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n", c.GeneratedAt.UTC().Format(time.RFC1123))
	}
	b.WriteString("\n")

	heading(&b, "Inputs", '-')
	writeAligned(&b, c.Inputs)
	b.WriteString("\n")

	heading(&b, "Result", '-')
	result := []Line{{Label: "Score", Value: c.Score}}
	if c.Severity != "" {
		result = append(result, Line{Label: "Severity", Value: c.Severity})
	}
	result = append(result, Line{Label: "Interpretation", Value: c.Interpretation})
	result = append(result, c.Details...)
	writeAligned(&b, result)

	writeReferences(&b, c.References)
	return b.String()
}

// PathwayText lists the visited steps with the answers given at each.
func PathwayText(p Pathway) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.Title)
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "%d. %s", i+1, s.Title)
		if len(s.Answers) > 0 {
			fmt.Fprintf(&b, " [%s]", joinLines(s.Answers, ", "))
		}
		b.WriteString("\n")
	}
	if p.Complete {
		fmt.Fprintf(&b, "Outcome: %s\n", p.Outcome)
	} else {
		b.WriteString("Outcome: pathway not completed\n")
	}
	for _, r := range p.Recommendations {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return b.String()
}

// PathwayPrint is the printer-friendly pathway summary.
func PathwayPrint(p Pathway) string {
	var b strings.Builder
	heading(&b, p.Title, '=')
	if !p.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated: %s\n", p.GeneratedAt.UTC().Format(time.RFC1123))
	}
	b.WriteString("\n")

	heading(&b, "Pathway", '-')
	for i, s := range p.Steps {
		fmt.Fprintf(&b, "Step %d: %s", i+1, s.Title)
		if s.Kind != "" {
			fmt.Fprintf(&b, " (%s)", s.Kind)
		}
		b.WriteString("\n")
		for _, a := range s.Answers {
			fmt.Fprintf(&b, "    %s: %s\n", a.Label, a.Value)
		}
		for _, r := range s.Recommendations {
			fmt.Fprintf(&b, "    * %s\n", r)
		}
	}
	b.WriteString("\n")

	heading(&b, "Outcome", '-')
	if p.Complete {
		b.WriteString(p.Outcome)
		b.WriteString("\n")
	} else {
		b.WriteString("Pathway not completed.\n")
	}
	for _, r := range p.Recommendations {
		fmt.Fprintf(&b, "  * %s\n", r)
	}

	writeReferences(&b, p.References)
	return b.String()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func heading(b *strings.Builder, title string, underline rune) {
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat(string(underline), len([]rune(title))))
	b.WriteString("\n")
}

func joinLines(lines []Line, sep string) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.Label + ": " + l.Value
	}
	return strings.Join(parts, sep)
}

func writeAligned(b *strings.Builder, lines []Line) {
	width := 0
	for _, l := range lines {
		if n := len([]rune(l.Label)); n > width {
			width = n
		}
	}
	for _, l := range lines {
		pad := width - len([]rune(l.Label))
		fmt.Fprintf(b, "  %s:%s %s\n", l.Label, strings.Repeat(" ", pad), l.Value)
	}
}

func writeReferences(b *strings.Builder, refs []string) {
	if len(refs) == 0 {
		return
	}
	b.WriteString("\n")
	heading(b, "References", '-')
	for i, r := range refs {
		fmt.Fprintf(b, "%d. %s\n", i+1, r)
	}
}
