package calculator

import (
	"fmt"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// strokeRiskByScore maps a CHA2DS2-VASc score to the adjusted annual stroke
// rate in percent.
var strokeRiskByScore = map[int]float64{
	0: 0,
	1: 1.3,
	2: 2.2,
	3: 3.2,
	4: 4.0,
	5: 6.7,
	6: 9.8,
	7: 9.6,
	8: 12.5,
	9: 15.2,
}

var cha2ds2vascRanges = []Range{
	{Min: 0, Max: bound(0), Interpretation: "Low risk; antithrombotic therapy not recommended", Severity: SeverityLow},
	{Min: 1, Max: bound(1), Interpretation: "Low to moderate risk; consider oral anticoagulation", Severity: SeverityLow},
	{Min: 2, Max: bound(9), Interpretation: "High risk; oral anticoagulation recommended", Severity: SeverityHigh},
}

// CHA2DS2VASc estimates stroke risk in non-valvular atrial fibrillation.
func CHA2DS2VASc() *Definition {
	return &Definition{
		ID:          "cha2ds2-vasc",
		Name:        "CHA₂DS₂-VASc",
		Description: "Estimates annual stroke risk in patients with non-valvular atrial fibrillation.",
		Category:    "cardiology",
		Parameters: []form.Parameter{
			form.Flag("chf", "Congestive heart failure", "Signs or symptoms of heart failure, or reduced ejection fraction"),
			form.Flag("hypertension", "Hypertension", "Resting BP above 140/90 mmHg on two occasions, or treated"),
			form.Number("age", "Age", "years", "65-74 scores 1 point, 75 or older scores 2").Cached(),
			form.Flag("diabetes", "Diabetes mellitus", ""),
			form.Flag("stroke", "Stroke, TIA or thromboembolism", ""),
			form.Flag("vascular", "Vascular disease", "Prior MI, peripheral artery disease or aortic plaque"),
			form.Select("sex", "Sex", "",
				form.Option{Value: "male", Label: "Male"},
				form.Option{Value: "female", Label: "Female"},
			).Cached(),
		},
		Screening: []ScreeningQuestion{
			{
				ID:               "nonvalvular_af",
				Question:         "Does the patient have non-valvular atrial fibrillation?",
				DisqualifiesOnNo: true,
				Warning:          "CHA₂DS₂-VASc does not apply to valvular AF (mechanical valve or moderate-to-severe mitral stenosis).",
			},
		},
		Ranges:       cha2ds2vascRanges,
		IntegerScore: true,
		Constraints: []Constraint{
			{Param: "age", Min: 0},
		},
		References: []form.Reference{
			{Citation: "Lip GY, et al. Refining clinical risk stratification for predicting stroke and thromboembolism in atrial fibrillation. Chest. 2010;137(2):263-272."},
		},
		Calculate: calculateCHA2DS2VASc,
	}
}

func calculateCHA2DS2VASc(in form.Inputs) Result {
	score := 0
	if in.Bool("chf") {
		score++
	}
	if in.Bool("hypertension") {
		score++
	}
	switch age := in.Number("age"); {
	case age >= 75:
		score += 2
	case age >= 65:
		score++
	}
	if in.Bool("diabetes") {
		score++
	}
	if in.Bool("stroke") {
		score += 2
	}
	if in.Bool("vascular") {
		score++
	}
	if in.String("sex") == "female" {
		score++
	}

	r := classify(cha2ds2vascRanges, "", float64(score))
	risk := strokeRiskByScore[score]
	return Result{
		Score:          float64(score),
		Interpretation: fmt.Sprintf("%s (annual stroke risk %.1f%%)", r.Interpretation, risk),
		Severity:       r.Severity,
		Data: map[string]interface{}{
			"annual_stroke_risk_percent": risk,
		},
	}
}
