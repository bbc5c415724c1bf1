package calculator

import (
	"fmt"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// riskCriterion is one rule of a first-match category chain. Criteria are
// evaluated in declaration order; the first match decides the category.
type riskCriterion struct {
	ID       string
	Label    string
	Severity Severity
	Match    func(form.Inputs) bool
}

func flagCriterion(id, label string, sev Severity) riskCriterion {
	return riskCriterion{
		ID:       id,
		Label:    label,
		Severity: sev,
		Match:    func(in form.Inputs) bool { return in.Bool(id) },
	}
}

func categoryLabel(sev Severity) string {
	switch sev {
	case SeverityVeryHigh:
		return "Very high cardiovascular risk"
	case SeverityHigh:
		return "High cardiovascular risk"
	case SeverityModerate:
		return "Moderate cardiovascular risk"
	}
	return "Low cardiovascular risk"
}

// evaluateCriteria walks the chain and falls back to the Framingham estimate
// when no criterion matches.
func evaluateCriteria(criteria []riskCriterion, in form.Inputs) Result {
	for _, c := range criteria {
		if !c.Match(in) {
			continue
		}
		return Result{
			Score:          0,
			Interpretation: fmt.Sprintf("%s: %s; 10-year estimate not applicable", categoryLabel(c.Severity), c.Label),
			Severity:       c.Severity,
			Data: map[string]interface{}{
				"matched_criterion": c.ID,
				"category_source":   "criterion",
			},
		}
	}

	est := estimateFramingham(in)
	severity := classify(cvRiskRanges, "", est.Percent).Severity
	return Result{
		Score:          est.Percent,
		Interpretation: fmt.Sprintf("%s: estimated 10-year CHD risk %s", categoryLabel(severity), est.Label),
		Severity:       severity,
		Data: map[string]interface{}{
			"category_source": "framingham",
			"points":          est.Points,
			"risk_label":      est.Label,
		},
	}
}

var cvRiskCriteria = []riskCriterion{
	flagCriterion("ascvd", "documented atherosclerotic cardiovascular disease", SeverityVeryHigh),
	flagCriterion("diabetes_organ_damage", "diabetes with target organ damage", SeverityVeryHigh),
	flagCriterion("severe_ckd", "severe chronic kidney disease", SeverityVeryHigh),
	flagCriterion("diabetes", "diabetes mellitus", SeverityHigh),
	flagCriterion("moderate_ckd", "moderate chronic kidney disease", SeverityHigh),
	flagCriterion("familial_hypercholesterolemia", "familial hypercholesterolaemia", SeverityHigh),
}

func cvRiskScreening() []ScreeningQuestion {
	return []ScreeningQuestion{
		{
			ID:               "age_over_40",
			Question:         "Is the patient 40 years or older?",
			DisqualifiesOnNo: true,
			Warning:          "Risk categories are calibrated for adults aged 40 and over.",
		},
	}
}

// cvRiskRanges classify the Framingham fallback with the same cut-offs as
// framinghamRanges.
var cvRiskRanges = []Range{
	{Min: 0, Max: bound(10), MaxExclusive: true, Interpretation: "Low risk (no categorical criterion met)", Severity: SeverityLow},
	{Min: 10, Max: bound(20), Interpretation: "Moderate risk (no categorical criterion met)", Severity: SeverityModerate},
	{Min: 20, Interpretation: "High risk by estimate; categorical criteria may raise this to very high", Severity: SeverityHigh},
}

// CVRisk assigns a cardiovascular risk category from documented conditions,
// falling back to the Framingham estimate.
func CVRisk() *Definition {
	params := []form.Parameter{
		form.Flag("ascvd", "Documented ASCVD", "Prior MI, ACS, coronary revascularisation, stroke, TIA or peripheral artery disease").Cached(),
		form.Flag("diabetes_organ_damage", "Diabetes with target organ damage", "Microalbuminuria, retinopathy or neuropathy").Cached(),
		form.Flag("severe_ckd", "Severe CKD", "eGFR below 30 mL/min/1.73m²").Cached(),
		form.Flag("diabetes", "Diabetes mellitus", "").Cached(),
		form.Flag("moderate_ckd", "Moderate CKD", "eGFR 30-59 mL/min/1.73m²").Cached(),
		form.Flag("familial_hypercholesterolemia", "Familial hypercholesterolaemia", "").Cached(),
	}
	return &Definition{
		ID:          "cv-risk",
		Name:        "CV Risk",
		Description: "Cardiovascular risk category from documented conditions, with a Framingham estimate otherwise.",
		Category:    "cardiology",
		Parameters:  append(params, framinghamParameters()...),
		Screening:   cvRiskScreening(),
		Ranges:      cvRiskRanges,
		Constraints: []Constraint{
			{Param: "age", Min: 0},
			{Param: "total_cholesterol", Min: 0, Exclusive: true},
			{Param: "hdl", Min: 0, Exclusive: true},
			{Param: "systolic_bp", Min: 0, Exclusive: true},
		},
		References: []form.Reference{
			{Citation: "Mach F, et al. 2019 ESC/EAS Guidelines for the management of dyslipidaemias. Eur Heart J. 2020;41(1):111-188."},
		},
		Calculate: func(in form.Inputs) Result { return evaluateCriteria(cvRiskCriteria, in) },
	}
}

var combinedCriteria = []riskCriterion{
	flagCriterion("ascvd", "documented atherosclerotic cardiovascular disease", SeverityVeryHigh),
	flagCriterion("diabetes_organ_damage", "diabetes with target organ damage", SeverityVeryHigh),
	{
		ID:       "egfr_below_30",
		Label:    "eGFR below 30 mL/min/1.73m²",
		Severity: SeverityVeryHigh,
		Match:    func(in form.Inputs) bool { return in.Number("egfr") < 30 },
	},
	flagCriterion("diabetes", "diabetes mellitus", SeverityHigh),
	{
		ID:       "egfr_30_59",
		Label:    "eGFR 30-59 mL/min/1.73m²",
		Severity: SeverityHigh,
		Match:    func(in form.Inputs) bool { return in.Number("egfr") < 60 },
	},
	flagCriterion("familial_hypercholesterolemia", "familial hypercholesterolaemia", SeverityHigh),
	{
		ID:       "total_cholesterol_above_310",
		Label:    "total cholesterol above 310 mg/dL",
		Severity: SeverityHigh,
		Match:    func(in form.Inputs) bool { return in.Number("total_cholesterol") > 310 },
	},
	{
		ID:       "severe_hypertension",
		Label:    "blood pressure 180/110 mmHg or higher",
		Severity: SeverityHigh,
		Match: func(in form.Inputs) bool {
			return in.Number("systolic_bp") >= 180 || in.Number("diastolic_bp") >= 110
		},
	},
}

// CombinedCVRisk folds numeric thresholds (eGFR, cholesterol, blood
// pressure) into the CV Risk chain.
func CombinedCVRisk() *Definition {
	params := []form.Parameter{
		form.Flag("ascvd", "Documented ASCVD", "Prior MI, ACS, coronary revascularisation, stroke, TIA or peripheral artery disease").Cached(),
		form.Flag("diabetes_organ_damage", "Diabetes with target organ damage", "Microalbuminuria, retinopathy or neuropathy").Cached(),
		form.Flag("diabetes", "Diabetes mellitus", "").Cached(),
		form.Flag("familial_hypercholesterolemia", "Familial hypercholesterolaemia", "").Cached(),
		form.Number("egfr", "eGFR", "mL/min/1.73m²", "Estimated glomerular filtration rate").Cached(),
		form.Number("diastolic_bp", "Diastolic blood pressure", "mmHg", "").Cached(),
	}
	return &Definition{
		ID:          "combined-cv-risk",
		Name:        "Combined CV Risk",
		Description: "Cardiovascular risk category combining documented conditions, kidney function, lipids and blood pressure.",
		Category:    "cardiology",
		Parameters:  append(params, framinghamParameters()...),
		Screening:   cvRiskScreening(),
		Ranges:      cvRiskRanges,
		Constraints: []Constraint{
			{Param: "age", Min: 0},
			{Param: "egfr", Min: 0},
			{Param: "total_cholesterol", Min: 0, Exclusive: true},
			{Param: "hdl", Min: 0, Exclusive: true},
			{Param: "systolic_bp", Min: 0, Exclusive: true},
			{Param: "diastolic_bp", Min: 0, Exclusive: true},
		},
		References: []form.Reference{
			{Citation: "Mach F, et al. 2019 ESC/EAS Guidelines for the management of dyslipidaemias. Eur Heart J. 2020;41(1):111-188."},
			{Citation: "Third Report of the National Cholesterol Education Program (NCEP) Expert Panel (Adult Treatment Panel III). Circulation. 2002;106(25):3143-3421."},
		},
		Calculate: func(in form.Inputs) Result { return evaluateCriteria(combinedCriteria, in) },
	}
}
