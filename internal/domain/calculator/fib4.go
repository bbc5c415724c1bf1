package calculator

import (
	"math"

	"github.com/medcalc/medcalc/internal/domain/form"
)

const (
	fib4LowCutoff        = 1.3
	fib4LowCutoffElderly = 2.0
	fib4HighCutoff       = 2.67
)

const (
	fib4Under65 = "age < 65"
	fib4From65  = "age >= 65"
)

func fib4Table(population string, lowCutoff float64) []Range {
	return []Range{
		{Population: population, Min: 0, Max: bound(lowCutoff), MaxExclusive: true, Interpretation: "Advanced fibrosis unlikely", Severity: SeverityLow},
		{Population: population, Min: lowCutoff, Max: bound(fib4HighCutoff), Interpretation: "Indeterminate; consider elastography", Severity: SeverityModerate},
		{Population: population, Min: fib4HighCutoff, Interpretation: "Advanced fibrosis likely; refer to hepatology", Severity: SeverityHigh},
	}
}

var fib4Ranges = append(fib4Table(fib4Under65, fib4LowCutoff), fib4Table(fib4From65, fib4LowCutoffElderly)...)

// FIB4 estimates liver fibrosis from routine labs.
func FIB4() *Definition {
	return &Definition{
		ID:          "fib-4",
		Name:        "FIB-4 Index",
		Description: "Non-invasive estimate of advanced liver fibrosis in chronic liver disease.",
		Category:    "hepatology",
		Parameters: []form.Parameter{
			form.Number("age", "Age", "years", "").Cached(),
			form.Number("ast", "AST", "U/L", "Aspartate aminotransferase").Cached(),
			form.Number("alt", "ALT", "U/L", "Alanine aminotransferase").Cached(),
			form.Number("platelets", "Platelet count", "10^9/L", "").Cached(),
		},
		Screening: []ScreeningQuestion{
			{
				ID:               "chronic_liver_disease",
				Question:         "Does the patient have chronic liver disease (NAFLD, hepatitis B or hepatitis C)?",
				DisqualifiesOnNo: true,
				Warning:          "FIB-4 was validated in chronic liver disease; results outside that population are unreliable.",
			},
			{
				ID:               "age_over_35",
				Question:         "Is the patient 35 years or older?",
				DisqualifiesOnNo: true,
				Warning:          "FIB-4 has poor accuracy in patients younger than 35.",
			},
		},
		Ranges: fib4Ranges,
		Constraints: []Constraint{
			{Param: "alt", Min: 0, Exclusive: true},
			{Param: "platelets", Min: 0, Exclusive: true},
			{Param: "age", Min: 0},
			{Param: "ast", Min: 0},
		},
		References: []form.Reference{
			{Citation: "Sterling RK, et al. Development of a simple noninvasive index to predict significant fibrosis in patients with HIV/HCV coinfection. Hepatology. 2006;43(6):1317-1325."},
			{Citation: "McPherson S, et al. Age as a confounding factor for the accurate non-invasive diagnosis of advanced NAFLD fibrosis. Am J Gastroenterol. 2017;112(5):740-751."},
		},
		Calculate: calculateFIB4,
	}
}

func calculateFIB4(in form.Inputs) Result {
	age := in.Number("age")
	raw := (age * in.Number("ast")) / (in.Number("platelets") * math.Sqrt(in.Number("alt")))
	severity, interpretation := classifyFIB4(raw, age)
	return Result{
		Score:          round2(raw),
		Interpretation: interpretation,
		Severity:       severity,
		Data: map[string]interface{}{
			"raw_score":   raw,
			"population":  fib4Population(age),
			"low_cutoff":  fib4LowCutoffFor(age),
			"high_cutoff": fib4HighCutoff,
		},
	}
}

func fib4Population(age float64) string {
	if age >= 65 {
		return fib4From65
	}
	return fib4Under65
}

func fib4LowCutoffFor(age float64) float64 {
	if age >= 65 {
		return fib4LowCutoffElderly
	}
	return fib4LowCutoff
}

// classifyFIB4 works on the unrounded score so values just under a cut-off
// are not promoted by display rounding.
func classifyFIB4(raw, age float64) (Severity, string) {
	r := classify(fib4Ranges, fib4Population(age), raw)
	return r.Severity, r.Interpretation
}
