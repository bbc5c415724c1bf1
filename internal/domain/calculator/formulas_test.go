package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcalc/medcalc/internal/domain/form"
)

// -- HAS-BLED --

func TestHASBLED_AllCriteria(t *testing.T) {
	in := form.Inputs{"age": 70.0}
	for _, id := range []string{"hypertension", "renal_disease", "liver_disease", "stroke_history",
		"bleeding_history", "labile_inr", "medication", "alcohol"} {
		in[id] = true
	}
	res := calculateHASBLED(in)
	assert.Equal(t, 9.0, res.Score)
	assert.Equal(t, SeverityHigh, res.Severity)
	assert.NotContains(t, res.Data, "bleeds_per_100_patient_years")
}

func TestHASBLED_AgeBoundary(t *testing.T) {
	assert.Equal(t, 0.0, calculateHASBLED(form.Inputs{"age": 65.0}).Score)
	assert.Equal(t, 1.0, calculateHASBLED(form.Inputs{"age": 66.0}).Score)
}

func TestHASBLED_Bands(t *testing.T) {
	tests := []struct {
		name  string
		in    form.Inputs
		score float64
		sev   Severity
	}{
		{"none", form.Inputs{"age": 40.0}, 0, SeverityLow},
		{"one", form.Inputs{"age": 40.0, "alcohol": true}, 1, SeverityLow},
		{"two", form.Inputs{"age": 70.0, "alcohol": true}, 2, SeverityModerate},
		{"three", form.Inputs{"age": 70.0, "alcohol": true, "labile_inr": true}, 3, SeverityModerate},
		{"four", form.Inputs{"age": 70.0, "alcohol": true, "labile_inr": true, "stroke_history": true}, 4, SeverityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := calculateHASBLED(tt.in)
			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.sev, res.Severity)
		})
	}
	res := calculateHASBLED(form.Inputs{"age": 70.0, "alcohol": true})
	assert.Contains(t, res.Interpretation, "1.88 bleeds per 100 patient-years")
}

// -- CHA2DS2-VASc --

func TestCHA2DS2VASc(t *testing.T) {
	tests := []struct {
		name  string
		in    form.Inputs
		score float64
		sev   Severity
		risk  float64
	}{
		{"young male", form.Inputs{"age": 50.0, "sex": "male"}, 0, SeverityLow, 0},
		{"young female", form.Inputs{"age": 50.0, "sex": "female"}, 1, SeverityLow, 1.3},
		{"male 65", form.Inputs{"age": 65.0, "sex": "male"}, 1, SeverityLow, 1.3},
		{"male 75", form.Inputs{"age": 75.0, "sex": "male"}, 2, SeverityHigh, 2.2},
		{"female 76 hypertensive", form.Inputs{"age": 76.0, "sex": "female", "hypertension": true}, 4, SeverityHigh, 4.0},
		{"stroke counts two", form.Inputs{"age": 40.0, "sex": "male", "stroke": true}, 2, SeverityHigh, 2.2},
		{"maximum", form.Inputs{"age": 80.0, "sex": "female", "chf": true, "hypertension": true,
			"diabetes": true, "stroke": true, "vascular": true}, 9, SeverityHigh, 15.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := calculateCHA2DS2VASc(tt.in)
			assert.Equal(t, tt.score, res.Score)
			assert.Equal(t, tt.sev, res.Severity)
			assert.Equal(t, tt.risk, res.Data["annual_stroke_risk_percent"])
		})
	}
}

// -- FIB-4 --

func TestFIB4_Formula(t *testing.T) {
	res := calculateFIB4(form.Inputs{"age": 50.0, "ast": 40.0, "alt": 30.0, "platelets": 150.0})
	want := 2000 / (150 * math.Sqrt(30))
	assert.InDelta(t, want, res.Data["raw_score"].(float64), 1e-12)
	assert.Equal(t, 2.43, res.Score)
	assert.Equal(t, SeverityModerate, res.Severity)
}

func TestFIB4_RoundsForDisplay(t *testing.T) {
	res := calculateFIB4(form.Inputs{"age": 50.0, "ast": 40.0, "alt": 25.0, "platelets": 150.0})
	assert.Equal(t, 2.67, res.Score)
	assert.InDelta(t, 2.6667, res.Data["raw_score"].(float64), 1e-4)
	assert.Equal(t, SeverityModerate, res.Severity)
}

func TestFIB4_ClassifiesUnroundedValue(t *testing.T) {
	raw := 2.674
	assert.Equal(t, 2.67, round2(raw))
	sev, _ := classifyFIB4(raw, 50)
	assert.Equal(t, SeverityHigh, sev)
}

func TestFIB4_Bands(t *testing.T) {
	tests := []struct {
		raw float64
		age float64
		sev Severity
	}{
		{1.2, 50, SeverityLow},
		{1.3, 50, SeverityModerate},
		{2.67, 50, SeverityModerate},
		{3.0, 50, SeverityHigh},
		{1.5, 70, SeverityLow},
		{1.99, 65, SeverityLow},
		{2.0, 65, SeverityModerate},
		{3.0, 70, SeverityHigh},
	}
	for _, tt := range tests {
		sev, _ := classifyFIB4(tt.raw, tt.age)
		assert.Equal(t, tt.sev, sev, "raw=%v age=%v", tt.raw, tt.age)
	}
}

func TestFIB4_ElderlyCutoffReported(t *testing.T) {
	res := calculateFIB4(form.Inputs{"age": 70.0, "ast": 30.0, "alt": 36.0, "platelets": 200.0})
	assert.Equal(t, 1.75, res.Score)
	assert.Equal(t, SeverityLow, res.Severity)
	assert.Equal(t, 2.0, res.Data["low_cutoff"])
	assert.Equal(t, "age >= 65", res.Data["population"])
}

func TestFIB4_ElderlyRangeMatchesResult(t *testing.T) {
	// 70 * 15 / (100 * sqrt(49)) = 1.5
	res := calculateFIB4(form.Inputs{"age": 70.0, "ast": 15.0, "alt": 49.0, "platelets": 100.0})
	require.Equal(t, 1.5, res.Score)
	r, ok := RangeFor(FIB4().Ranges, fib4From65, 1.5)
	require.True(t, ok)
	assert.Equal(t, SeverityLow, r.Severity)
	assert.Equal(t, r.Severity, res.Severity)
	assert.Equal(t, r.Interpretation, res.Interpretation)
}

// -- DAS28 --

func TestDAS28_Formula(t *testing.T) {
	res := calculateDAS28(form.Inputs{"tender_joints": 4.0, "swollen_joints": 2.0, "esr": 16.0, "patient_global": 40.0})
	want := 0.56*2 + 0.28*math.Sqrt(2) + 0.70*math.Log(16) + 0.014*40
	assert.InDelta(t, want, res.Data["raw_score"].(float64), 1e-9)
	assert.Equal(t, 4.02, res.Score)
	assert.Equal(t, SeverityModerate, res.Severity)
	assert.Equal(t, "Moderate disease activity", res.Interpretation)
}

func TestDAS28_Tiers(t *testing.T) {
	tests := []struct {
		raw  float64
		sev  Severity
		text string
	}{
		{0, SeverityLow, "Remission"},
		{2.6, SeverityLow, "Remission"},
		{2.61, SeverityLow, "Low disease activity"},
		{3.2, SeverityLow, "Low disease activity"},
		{3.21, SeverityModerate, "Moderate disease activity"},
		{5.1, SeverityModerate, "Moderate disease activity"},
		{5.11, SeverityHigh, "High disease activity"},
	}
	for _, tt := range tests {
		sev, text := classifyDAS28(tt.raw)
		assert.Equal(t, tt.sev, sev, "raw=%v", tt.raw)
		assert.Equal(t, tt.text, text, "raw=%v", tt.raw)
	}
}

// -- Framingham --

func framinghamMan50() form.Inputs {
	return form.Inputs{
		"age": 50.0, "sex": "male", "total_cholesterol": 210.0,
		"hdl": 55.0, "systolic_bp": 125.0,
	}
}

func TestFramingham_LowRisk(t *testing.T) {
	res := calculateFramingham(framinghamMan50())
	assert.Equal(t, 9, res.Data["points"])
	assert.Equal(t, 5.0, res.Score)
	assert.Equal(t, SeverityLow, res.Severity)
}

func TestFramingham_SmokingRaisesToIntermediate(t *testing.T) {
	in := framinghamMan50()
	in["smoker"] = true
	res := calculateFramingham(in)
	assert.Equal(t, 12, res.Data["points"])
	assert.Equal(t, 10.0, res.Score)
	assert.Equal(t, SeverityModerate, res.Severity)
}

func TestFramingham_CeilingSaturates(t *testing.T) {
	res := calculateFramingham(form.Inputs{
		"age": 55.0, "sex": "male", "total_cholesterol": 250.0, "hdl": 45.0,
		"systolic_bp": 135.0, "smoker": true,
	})
	assert.Equal(t, 17, res.Data["points"])
	assert.Equal(t, 30.0, res.Score)
	assert.Equal(t, "≥30%", res.Data["risk_label"])
	assert.Equal(t, SeverityHigh, res.Severity)
}

func TestFramingham_FloorSaturates(t *testing.T) {
	res := calculateFramingham(form.Inputs{
		"age": 45.0, "sex": "female", "total_cholesterol": 180.0, "hdl": 65.0, "systolic_bp": 115.0,
	})
	assert.Equal(t, 5, res.Data["points"])
	assert.Equal(t, 1.0, res.Score)
	assert.Equal(t, "<1%", res.Data["risk_label"])
	assert.Equal(t, SeverityLow, res.Severity)
}

func TestFramingham_WomanTreatedBP(t *testing.T) {
	res := calculateFramingham(form.Inputs{
		"age": 60.0, "sex": "female", "total_cholesterol": 220.0, "hdl": 45.0,
		"systolic_bp": 150.0, "bp_treated": true, "smoker": true,
	})
	assert.Equal(t, 20, res.Data["points"])
	assert.Equal(t, 11.0, res.Score)
	assert.Equal(t, SeverityModerate, res.Severity)
}

func TestFramingham_AgeOutsideTableUsesBoundaryBand(t *testing.T) {
	old := framinghamMan50()
	old["age"] = 79.0
	older := framinghamMan50()
	older["age"] = 94.0
	assert.Equal(t, calculateFramingham(old), calculateFramingham(older))

	young := framinghamMan50()
	young["age"] = 20.0
	younger := framinghamMan50()
	younger["age"] = 16.0
	assert.Equal(t, calculateFramingham(young), calculateFramingham(younger))
}

// -- CV Risk --

func TestCVRisk_FirstMatchWins(t *testing.T) {
	def := CVRisk()

	in := framinghamMan50()
	in["ascvd"] = true
	in["diabetes"] = true
	res := def.Calculate(in)
	assert.Equal(t, SeverityVeryHigh, res.Severity)
	assert.Equal(t, "ascvd", res.Data["matched_criterion"])

	in = framinghamMan50()
	in["diabetes"] = true
	in["familial_hypercholesterolemia"] = true
	res = def.Calculate(in)
	assert.Equal(t, SeverityHigh, res.Severity)
	assert.Equal(t, "diabetes", res.Data["matched_criterion"])
}

func TestCVRisk_FallsBackToFramingham(t *testing.T) {
	res := CVRisk().Calculate(framinghamMan50())
	assert.Equal(t, "framingham", res.Data["category_source"])
	assert.Equal(t, 5.0, res.Score)
	assert.Equal(t, SeverityLow, res.Severity)

	in := framinghamMan50()
	in["smoker"] = true
	res = CVRisk().Calculate(in)
	assert.Equal(t, 10.0, res.Score)
	assert.Equal(t, SeverityModerate, res.Severity)
}

func TestCombinedCVRisk(t *testing.T) {
	base := func(extra form.Inputs) form.Inputs {
		in := framinghamMan50()
		in["egfr"] = 90.0
		in["diastolic_bp"] = 80.0
		return in.Merge(extra)
	}
	tests := []struct {
		name      string
		in        form.Inputs
		sev       Severity
		criterion interface{}
	}{
		{"egfr below 30 beats diabetes", base(form.Inputs{"egfr": 25.0, "diabetes": true}), SeverityVeryHigh, "egfr_below_30"},
		{"egfr 30-59", base(form.Inputs{"egfr": 45.0}), SeverityHigh, "egfr_30_59"},
		{"egfr 60 is not moderate ckd", base(form.Inputs{"egfr": 60.0}), SeverityLow, nil},
		{"cholesterol above 310", base(form.Inputs{"total_cholesterol": 320.0}), SeverityHigh, "total_cholesterol_above_310"},
		{"diastolic 110", base(form.Inputs{"diastolic_bp": 110.0}), SeverityHigh, "severe_hypertension"},
		{"systolic 180", base(form.Inputs{"systolic_bp": 180.0}), SeverityHigh, "severe_hypertension"},
		{"ascvd first", base(form.Inputs{"ascvd": true, "total_cholesterol": 320.0}), SeverityVeryHigh, "ascvd"},
		{"no criterion", base(nil), SeverityLow, nil},
	}
	def := CombinedCVRisk()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := def.Calculate(tt.in)
			assert.Equal(t, tt.sev, res.Severity)
			assert.Equal(t, tt.criterion, res.Data["matched_criterion"])
		})
	}
}
