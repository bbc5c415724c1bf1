package calculator

import (
	"math"

	"github.com/medcalc/medcalc/internal/domain/form"
)

var das28Ranges = []Range{
	{Min: 0, Max: bound(2.6), Interpretation: "Remission", Severity: SeverityLow},
	{Min: 2.6, Max: bound(3.2), Interpretation: "Low disease activity", Severity: SeverityLow},
	{Min: 3.2, Max: bound(5.1), Interpretation: "Moderate disease activity", Severity: SeverityModerate},
	{Min: 5.1, Interpretation: "High disease activity", Severity: SeverityHigh},
}

// DAS28 scores rheumatoid arthritis disease activity using ESR.
func DAS28() *Definition {
	return &Definition{
		ID:          "das28",
		Name:        "DAS28-ESR",
		Description: "Disease Activity Score in 28 joints for rheumatoid arthritis, using ESR.",
		Category:    "rheumatology",
		Parameters: []form.Parameter{
			form.Number("tender_joints", "Tender joint count", "joints", "Out of 28 joints"),
			form.Number("swollen_joints", "Swollen joint count", "joints", "Out of 28 joints"),
			form.Number("esr", "ESR", "mm/h", "Erythrocyte sedimentation rate").Cached(),
			form.Number("patient_global", "Patient global health", "mm", "Visual analogue scale, 0-100"),
		},
		Screening: []ScreeningQuestion{
			{
				ID:               "ra_diagnosis",
				Question:         "Does the patient have an established diagnosis of rheumatoid arthritis?",
				DisqualifiesOnNo: true,
				Warning:          "DAS28 measures disease activity in established rheumatoid arthritis only.",
			},
		},
		Ranges: das28Ranges,
		Constraints: []Constraint{
			{Param: "tender_joints", Min: 0},
			{Param: "swollen_joints", Min: 0},
			{Param: "esr", Min: 0, Exclusive: true},
		},
		References: []form.Reference{
			{Citation: "Prevoo ML, et al. Modified disease activity scores that include twenty-eight-joint counts. Arthritis Rheum. 1995;38(1):44-48."},
		},
		Calculate: calculateDAS28,
	}
}

func calculateDAS28(in form.Inputs) Result {
	raw := 0.56*math.Sqrt(in.Number("tender_joints")) +
		0.28*math.Sqrt(in.Number("swollen_joints")) +
		0.70*math.Log(in.Number("esr")) +
		0.014*in.Number("patient_global")
	severity, interpretation := classifyDAS28(raw)
	return Result{
		Score:          round2(raw),
		Interpretation: interpretation,
		Severity:       severity,
		Data: map[string]interface{}{
			"raw_score": raw,
		},
	}
}

// classifyDAS28 works on the unrounded score; each tier includes its upper
// cut-off.
func classifyDAS28(raw float64) (Severity, string) {
	r := classify(das28Ranges, "", raw)
	return r.Severity, r.Interpretation
}
