package calculator

import (
	"fmt"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// framinghamTable holds one sex's ATP III point tables. Rows indexed by age
// decade use 20-39, 40-49, 50-59, 60-69, 70-79.
type framinghamTable struct {
	// agePoints is indexed by 20-34, 35-39, 40-44, ... 75-79.
	agePoints    [10]int
	cholesterol  [5][5]int // [cholesterol band][age decade]
	smoker       [5]int
	sbpUntreated [5]int
	sbpTreated   [5]int
	// riskFloor is the point total at and below which risk reads "<1%".
	riskFloor int
	// risk holds the percent for riskFloor+1 upwards; totals past the end
	// read "≥30%".
	risk []float64
}

var framinghamMen = framinghamTable{
	agePoints: [10]int{-9, -4, 0, 3, 6, 8, 10, 11, 12, 13},
	cholesterol: [5][5]int{
		{0, 0, 0, 0, 0},
		{4, 3, 2, 1, 0},
		{7, 5, 3, 1, 0},
		{9, 6, 4, 2, 1},
		{11, 8, 5, 3, 1},
	},
	smoker:       [5]int{8, 5, 3, 1, 1},
	sbpUntreated: [5]int{0, 0, 1, 1, 2},
	sbpTreated:   [5]int{0, 1, 2, 2, 3},
	riskFloor:    -1,
	risk:         []float64{1, 1, 1, 1, 1, 2, 2, 3, 4, 5, 6, 8, 10, 12, 16, 20, 25},
}

var framinghamWomen = framinghamTable{
	agePoints: [10]int{-7, -3, 0, 3, 6, 8, 10, 12, 14, 16},
	cholesterol: [5][5]int{
		{0, 0, 0, 0, 0},
		{4, 3, 2, 1, 1},
		{8, 6, 4, 2, 1},
		{11, 8, 5, 3, 2},
		{13, 10, 7, 4, 2},
	},
	smoker:       [5]int{9, 7, 4, 2, 1},
	sbpUntreated: [5]int{0, 1, 2, 3, 4},
	sbpTreated:   [5]int{0, 3, 4, 5, 6},
	riskFloor:    8,
	risk:         []float64{1, 1, 1, 1, 2, 2, 3, 4, 5, 6, 8, 11, 14, 17, 22, 27},
}

// framinghamRanges: 10% and 20% are both intermediate.
var framinghamRanges = []Range{
	{Min: 0, Max: bound(10), MaxExclusive: true, Interpretation: "Low risk", Severity: SeverityLow},
	{Min: 10, Max: bound(20), Interpretation: "Intermediate risk", Severity: SeverityModerate},
	{Min: 20, Interpretation: "High risk", Severity: SeverityHigh},
}

const (
	framinghamRiskFloorPercent   = 1
	framinghamRiskCeilingPercent = 30
)

func framinghamParameters() []form.Parameter {
	return []form.Parameter{
		form.Number("age", "Age", "years", "Tables cover 20-79; other ages use the nearest band").Cached(),
		form.Select("sex", "Sex", "",
			form.Option{Value: "male", Label: "Male"},
			form.Option{Value: "female", Label: "Female"},
		).Cached(),
		form.Number("total_cholesterol", "Total cholesterol", "mg/dL", "").Cached(),
		form.Number("hdl", "HDL cholesterol", "mg/dL", "").Cached(),
		form.Number("systolic_bp", "Systolic blood pressure", "mmHg", "").Cached(),
		form.Flag("bp_treated", "On antihypertensive treatment", "").Cached(),
		form.Flag("smoker", "Current smoker", "Any cigarette smoking in the past month").Cached(),
	}
}

// Framingham estimates 10-year risk of hard coronary heart disease using the
// ATP III point tables.
func Framingham() *Definition {
	return &Definition{
		ID:          "framingham",
		Name:        "Framingham Risk Score",
		Description: "10-year risk of myocardial infarction or coronary death (ATP III point tables).",
		Category:    "cardiology",
		Parameters:  framinghamParameters(),
		Screening: []ScreeningQuestion{
			{
				ID:               "no_known_chd",
				Question:         "Is the patient free of known coronary heart disease?",
				DisqualifiesOnNo: true,
				Warning:          "Framingham estimates primary-prevention risk; patients with established CHD are already high risk.",
			},
			{
				ID:               "no_diabetes",
				Question:         "Is the patient free of diabetes?",
				DisqualifiesOnNo: true,
				Warning:          "ATP III treats diabetes as a CHD risk equivalent; the score underestimates risk.",
			},
		},
		Ranges: framinghamRanges,
		Constraints: []Constraint{
			{Param: "age", Min: 0},
			{Param: "total_cholesterol", Min: 0, Exclusive: true},
			{Param: "hdl", Min: 0, Exclusive: true},
			{Param: "systolic_bp", Min: 0, Exclusive: true},
		},
		References: []form.Reference{
			{Citation: "Third Report of the National Cholesterol Education Program (NCEP) Expert Panel (Adult Treatment Panel III). Circulation. 2002;106(25):3143-3421."},
		},
		Calculate: calculateFramingham,
	}
}

// framinghamEstimate is the outcome of the point tables before it is turned
// into a Result.
type framinghamEstimate struct {
	Points  int
	Percent float64
	Label   string
}

func estimateFramingham(in form.Inputs) framinghamEstimate {
	t := framinghamMen
	if in.String("sex") == "female" {
		t = framinghamWomen
	}
	age := in.Number("age")
	decade := ageDecadeIndex(age)

	points := t.agePoints[ageBandIndex(age)]
	points += t.cholesterol[cholesterolIndex(in.Number("total_cholesterol"))][decade]
	if in.Bool("smoker") {
		points += t.smoker[decade]
	}
	points += hdlPoints(in.Number("hdl"))
	sbp := sbpIndex(in.Number("systolic_bp"))
	if in.Bool("bp_treated") {
		points += t.sbpTreated[sbp]
	} else {
		points += t.sbpUntreated[sbp]
	}

	switch idx := points - t.riskFloor - 1; {
	case idx < 0:
		return framinghamEstimate{Points: points, Percent: framinghamRiskFloorPercent, Label: "<1%"}
	case idx >= len(t.risk):
		return framinghamEstimate{Points: points, Percent: framinghamRiskCeilingPercent, Label: "≥30%"}
	default:
		pct := t.risk[idx]
		return framinghamEstimate{Points: points, Percent: pct, Label: fmt.Sprintf("%g%%", pct)}
	}
}

func calculateFramingham(in form.Inputs) Result {
	est := estimateFramingham(in)
	severity, band := classifyFramingham(est.Percent)
	return Result{
		Score:          est.Percent,
		Interpretation: fmt.Sprintf("%s: %s risk of hard CHD in 10 years", band, est.Label),
		Severity:       severity,
		Data: map[string]interface{}{
			"points":     est.Points,
			"risk_label": est.Label,
		},
	}
}

func classifyFramingham(percent float64) (Severity, string) {
	r := classify(framinghamRanges, "", percent)
	return r.Severity, r.Interpretation
}

func ageBandIndex(age float64) int {
	switch {
	case age < 35:
		return 0
	case age >= 75:
		return 9
	default:
		return int(age-35)/5 + 1
	}
}

func ageDecadeIndex(age float64) int {
	switch {
	case age < 40:
		return 0
	case age >= 70:
		return 4
	default:
		return int(age-40)/10 + 1
	}
}

func cholesterolIndex(tc float64) int {
	switch {
	case tc < 160:
		return 0
	case tc < 200:
		return 1
	case tc < 240:
		return 2
	case tc < 280:
		return 3
	default:
		return 4
	}
}

func hdlPoints(hdl float64) int {
	switch {
	case hdl >= 60:
		return -1
	case hdl >= 50:
		return 0
	case hdl >= 40:
		return 1
	default:
		return 2
	}
}

func sbpIndex(sbp float64) int {
	switch {
	case sbp < 120:
		return 0
	case sbp < 130:
		return 1
	case sbp < 140:
		return 2
	case sbp < 160:
		return 3
	default:
		return 4
	}
}
