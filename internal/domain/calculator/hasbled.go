package calculator

import (
	"fmt"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// hasbledBleedRate is the observed major bleeds per 100 patient-years for
// each HAS-BLED score in the derivation cohort. Higher scores had too few
// patients to report a rate.
var hasbledBleedRate = map[int]float64{
	0: 1.13,
	1: 1.02,
	2: 1.88,
	3: 3.74,
	4: 8.70,
	5: 12.50,
}

var hasbledRanges = []Range{
	{Min: 0, Max: bound(1), Interpretation: "Low bleeding risk; anticoagulation can be considered", Severity: SeverityLow},
	{Min: 2, Max: bound(3), Interpretation: "Moderate bleeding risk; address modifiable risk factors", Severity: SeverityModerate},
	{Min: 4, Max: bound(9), Interpretation: "High bleeding risk; use caution and review regularly", Severity: SeverityHigh},
}

// HASBLED estimates one-year major bleeding risk for patients with atrial
// fibrillation on anticoagulation.
func HASBLED() *Definition {
	return &Definition{
		ID:          "has-bled",
		Name:        "HAS-BLED",
		Description: "Estimates 1-year risk of major bleeding in patients with atrial fibrillation on anticoagulation.",
		Category:    "cardiology",
		Parameters: []form.Parameter{
			form.Flag("hypertension", "Uncontrolled hypertension", "Systolic blood pressure above 160 mmHg"),
			form.Flag("renal_disease", "Abnormal renal function", "Dialysis, transplant, or creatinine above 2.26 mg/dL"),
			form.Flag("liver_disease", "Abnormal liver function", "Cirrhosis, or bilirubin above 2x ULN with AST/ALT/ALP above 3x ULN"),
			form.Flag("stroke_history", "Stroke history", ""),
			form.Flag("bleeding_history", "Prior major bleeding or predisposition", ""),
			form.Flag("labile_inr", "Labile INR", "Unstable or high INRs, time in therapeutic range below 60%"),
			form.Number("age", "Age", "years", "Counts one point when older than 65").Cached(),
			form.Flag("medication", "Medication predisposing to bleeding", "Antiplatelet agents or NSAIDs"),
			form.Flag("alcohol", "Alcohol use", "8 or more drinks per week"),
		},
		Screening: []ScreeningQuestion{
			{
				ID:               "af_anticoagulation",
				Question:         "Does the patient have atrial fibrillation and take, or are they being considered for, anticoagulation?",
				DisqualifiesOnNo: true,
				Warning:          "HAS-BLED is validated only in patients with atrial fibrillation on anticoagulation.",
			},
		},
		Ranges:       hasbledRanges,
		IntegerScore: true,
		Constraints: []Constraint{
			{Param: "age", Min: 0},
		},
		References: []form.Reference{
			{Citation: "Pisters R, et al. A novel user-friendly score (HAS-BLED) to assess 1-year risk of major bleeding in patients with atrial fibrillation. Chest. 2010;138(5):1093-1100."},
		},
		Calculate: calculateHASBLED,
	}
}

func calculateHASBLED(in form.Inputs) Result {
	score := 0
	for _, id := range []string{
		"hypertension", "renal_disease", "liver_disease", "stroke_history",
		"bleeding_history", "labile_inr", "medication", "alcohol",
	} {
		if in.Bool(id) {
			score++
		}
	}
	if in.Number("age") > 65 {
		score++
	}

	r := classify(hasbledRanges, "", float64(score))
	interpretation := r.Interpretation

	data := map[string]interface{}{}
	if rate, ok := hasbledBleedRate[score]; ok {
		data["bleeds_per_100_patient_years"] = rate
		interpretation = fmt.Sprintf("%s (%.2f bleeds per 100 patient-years)", interpretation, rate)
	}
	return Result{
		Score:          float64(score),
		Interpretation: interpretation,
		Severity:       r.Severity,
		Data:           data,
	}
}
