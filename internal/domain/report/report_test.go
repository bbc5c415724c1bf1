package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCalculation() Calculation {
	return Calculation{
		Title:          "FIB-4 Index",
		Description:    "Non-invasive estimate of advanced liver fibrosis.",
		Inputs:         []Line{{Label: "Age", Value: "50 years"}, {Label: "AST", Value: "40 U/L"}},
		Score:          "2.43",
		Interpretation: "Indeterminate; consider elastography",
		Severity:       "moderate",
		References:     []string{"Sterling RK, et al. Hepatology. 2006."},
		GeneratedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat(" PRINT ")
	require.NoError(t, err)
	assert.Equal(t, FormatPrint, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestCalculationText(t *testing.T) {
	out := CalculationText(sampleCalculation())
	assert.True(t, strings.HasPrefix(out, "FIB-4 Index: 2.43 (moderate)\n"))
	assert.Contains(t, out, "Interpretation: Indeterminate; consider elastography")
	assert.Contains(t, out, "Inputs: Age: 50 years; AST: 40 U/L")
	assert.NotContains(t, out, "References")
}

func TestCalculationPrint(t *testing.T) {
	out := CalculationPrint(sampleCalculation())
	assert.Contains(t, out, "FIB-4 Index\n===========\n")
	assert.Contains(t, out, "  Age: 50 years\n")
	assert.Contains(t, out, "  Score:          2.43\n")
	assert.Contains(t, out, "References\n----------\n1. Sterling RK")
	assert.Contains(t, out, "Generated: Fri, 01 Mar 2024 12:00:00 UTC")
}

func TestPathwayText_Incomplete(t *testing.T) {
	p := Pathway{
		Title: "Chest Pain Triage",
		Steps: []Step{
			{Title: "ST elevation on ECG?", Answers: []Line{{Label: "STEMI", Value: "no"}}},
			{Title: "Haemodynamically unstable?"},
		},
	}
	out := PathwayText(p)
	assert.Contains(t, out, "1. ST elevation on ECG? [STEMI: no]\n")
	assert.Contains(t, out, "2. Haemodynamically unstable?\n")
	assert.Contains(t, out, "Outcome: pathway not completed")
}

func TestPathwayPrint_Complete(t *testing.T) {
	p := Pathway{
		Title:           "Chest Pain Triage",
		Steps:           []Step{{Title: "Activate cath lab", Kind: "result"}},
		Outcome:         "Activate cath lab",
		Complete:        true,
		Recommendations: []string{"Primary PCI within 90 minutes"},
	}
	out := RenderPathway(FormatPrint, p)
	assert.Contains(t, out, "Step 1: Activate cath lab (result)")
	assert.Contains(t, out, "Outcome\n-------\nActivate cath lab\n")
	assert.Contains(t, out, "  * Primary PCI within 90 minutes")
}
