package algorithm

import "github.com/medcalc/medcalc/internal/domain/form"

// ChestPainTriage triages acute chest pain in the emergency department.
func ChestPainTriage() *Definition {
	return &Definition{
		ID:          "chest-pain-triage",
		Name:        "Chest Pain Triage",
		Description: "Initial assessment of suspected acute coronary syndrome.",
		Category:    "cardiology",
		StartNodeID: "ecg",
		Nodes: nodeMap(
			&Node{
				ID:      "ecg",
				Type:    NodeQuestion,
				Content: "Does the 12-lead ECG show ST-segment elevation?",
				Inputs:  []form.Parameter{form.YesNo("st_elevation", "ST elevation on ECG", "New ST elevation in two contiguous leads")},
				Branches: []Branch{
					{Label: "ST elevation", When: when("st_elevation eq true"), Target: "stemi"},
					{Label: "No ST elevation", Target: "haemodynamics"},
				},
			},
			&Node{
				ID:      "stemi",
				Type:    NodeResult,
				Content: "STEMI: activate the catheterisation laboratory",
				Recommendations: []string{
					"Primary PCI within 90 minutes of first medical contact",
					"Aspirin 300 mg loading dose",
				},
			},
			&Node{
				ID:      "haemodynamics",
				Type:    NodeQuestion,
				Content: "Is the patient haemodynamically stable?",
				Inputs: []form.Parameter{
					form.Number("systolic_bp", "Systolic blood pressure", "mmHg", "").Cached(),
					form.Number("heart_rate", "Heart rate", "bpm", ""),
				},
				Branches: []Branch{
					{Label: "Unstable", When: when("systolic_bp lt 90 or heart_rate gt 120"), Target: "resuscitate"},
					{Label: "Stable", Target: "troponin"},
				},
			},
			&Node{
				ID:      "resuscitate",
				Type:    NodeResult,
				Content: "Haemodynamic compromise: resuscitate and request senior review",
				Recommendations: []string{
					"Move to resuscitation bay",
					"Urgent bedside echocardiography",
				},
			},
			&Node{
				ID:      "troponin",
				Type:    NodeDecision,
				Content: "Initial high-sensitivity troponin",
				Inputs:  []form.Parameter{form.YesNo("troponin_elevated", "Troponin above 99th percentile", "")},
				Branches: []Branch{
					{Label: "Elevated", When: when("troponin_elevated eq true"), Target: "nstemi"},
					{Label: "Normal", Target: "heart_score"},
				},
			},
			&Node{
				ID:      "nstemi",
				Type:    NodeResult,
				Content: "Manage as NSTEMI",
				Recommendations: []string{
					"Dual antiplatelet therapy",
					"Risk-stratify for timing of angiography",
				},
			},
			&Node{
				ID:          "heart_score",
				Type:        NodeQuestion,
				Content:     "What is the HEART score?",
				Description: "History, ECG, Age, Risk factors and Troponin, 0 to 10.",
				Inputs:      []form.Parameter{form.Number("heart_score", "HEART score", "", "0 to 10")},
				Branches: []Branch{
					{Label: "High (7-10)", When: when("heart_score ge 7"), Target: "invasive"},
					{Label: "Moderate (4-6)", When: when("heart_score ge 4"), Target: "observe"},
					{Label: "Low (0-3)", Target: "discharge"},
				},
			},
			&Node{
				ID:      "observe",
				Type:    NodeAction,
				Content: "Observe and repeat troponin at 3 hours",
				Inputs:  []form.Parameter{form.YesNo("repeat_troponin_elevated", "Repeat troponin rising", "")},
				Branches: []Branch{
					{Label: "Rising", When: when("repeat_troponin_elevated eq true"), Target: "nstemi"},
					{Label: "Unchanged", Target: "stress_test"},
				},
			},
			&Node{
				ID:              "invasive",
				Type:            NodeResult,
				Content:         "High risk: admit for an early invasive strategy",
				Recommendations: []string{"Cardiology referral", "Angiography within 24 hours"},
			},
			&Node{
				ID:              "stress_test",
				Type:            NodeResult,
				Content:         "Arrange non-invasive testing",
				Recommendations: []string{"Outpatient CT coronary angiography or stress testing"},
			},
			&Node{
				ID:              "discharge",
				Type:            NodeResult,
				Content:         "Low risk: discharge with follow-up",
				Recommendations: []string{"Primary care follow-up within 2 weeks", "Return if symptoms recur"},
			},
		),
		References: []form.Reference{
			{Citation: "Six AJ, Backus BE, Kelder JC. Chest pain in the emergency room: value of the HEART score. Neth Heart J. 2008;16(6):191-196."},
			{Citation: "Byrne RA et al. 2023 ESC Guidelines for the management of acute coronary syndromes. Eur Heart J. 2023;44(38):3720-3826."},
		},
	}
}

// StrokeWorkup guides the acute ischaemic stroke pathway.
func StrokeWorkup() *Definition {
	return &Definition{
		ID:          "stroke-workup",
		Name:        "Acute Stroke Workup",
		Description: "Reperfusion decisions for suspected acute stroke.",
		Category:    "neurology",
		StartNodeID: "onset",
		Nodes: nodeMap(
			&Node{
				ID:      "onset",
				Type:    NodeQuestion,
				Content: "How long since the patient was last known well?",
				Inputs:  []form.Parameter{form.Number("hours_since_lkw", "Time since last known well", "hours", "")},
				Branches: []Branch{
					{Label: "Within 24 hours", When: when("hours_since_lkw le 24"), Target: "imaging"},
					{Label: "Beyond 24 hours", Target: "subacute"},
				},
			},
			&Node{
				ID:              "subacute",
				Type:            NodeResult,
				Content:         "Outside the reperfusion window",
				Recommendations: []string{"Admit to stroke unit", "Secondary prevention workup"},
			},
			&Node{
				ID:      "imaging",
				Type:    NodeDecision,
				Content: "Non-contrast CT head",
				Inputs: []form.Parameter{form.Select("ct_finding", "CT finding", "",
					form.Option{Value: "haemorrhage", Label: "Haemorrhage"},
					form.Option{Value: "no_haemorrhage", Label: "No haemorrhage"},
				)},
				Branches: []Branch{
					{Label: "Haemorrhage", When: when("ct_finding eq haemorrhage"), Target: "haemorrhage"},
					{Label: "No haemorrhage", When: when("ct_finding eq no_haemorrhage"), Target: "thrombolysis_check"},
				},
			},
			&Node{
				ID:      "haemorrhage",
				Type:    NodeResult,
				Content: "Intracerebral haemorrhage",
				Recommendations: []string{
					"Reverse anticoagulation",
					"Target systolic blood pressure 140 mmHg",
					"Neurosurgical referral",
				},
			},
			&Node{
				ID:      "thrombolysis_check",
				Type:    NodeQuestion,
				Content: "Is there a contraindication to thrombolysis?",
				Inputs:  []form.Parameter{form.YesNo("thrombolysis_contraindicated", "Contraindication to thrombolysis", "")},
				Branches: []Branch{
					{Label: "Eligible", When: when("hours_since_lkw le 4.5 and thrombolysis_contraindicated eq false"), Target: "thrombolysis"},
					{Label: "Not eligible", Target: "vessel_imaging"},
				},
			},
			&Node{
				ID:      "thrombolysis",
				Type:    NodeAction,
				Content: "Give intravenous thrombolysis",
				Branches: []Branch{
					{Label: "Then", When: when("true"), Target: "vessel_imaging"},
				},
			},
			&Node{
				ID:      "vessel_imaging",
				Type:    NodeQuestion,
				Content: "Does CT angiography show a large vessel occlusion?",
				Inputs:  []form.Parameter{form.YesNo("lvo", "Large vessel occlusion", "")},
				Branches: []Branch{
					{Label: "Occlusion", When: when("lvo eq true"), Target: "thrombectomy"},
					{Label: "No occlusion", Target: "stroke_unit"},
				},
			},
			&Node{
				ID:              "thrombectomy",
				Type:            NodeResult,
				Content:         "Refer for mechanical thrombectomy",
				Recommendations: []string{"Contact the neurointerventional team"},
			},
			&Node{
				ID:              "stroke_unit",
				Type:            NodeResult,
				Content:         "Admit to the stroke unit",
				Recommendations: []string{"Swallow screen before oral intake", "Antiplatelet therapy if not thrombolysed"},
			},
		),
		References: []form.Reference{
			{Citation: "Powers WJ et al. Guidelines for the Early Management of Patients With Acute Ischemic Stroke: 2019 Update. Stroke. 2019;50(12):e344-e418."},
		},
	}
}

// AFAnticoagulation decides anticoagulation in atrial fibrillation from the
// CHA2DS2-VASc and HAS-BLED scores.
func AFAnticoagulation() *Definition {
	return &Definition{
		ID:          "af-anticoagulation",
		Name:        "AF Anticoagulation",
		Description: "Stroke prevention in atrial fibrillation.",
		Category:    "cardiology",
		StartNodeID: "valvular",
		Nodes: nodeMap(
			&Node{
				ID:      "valvular",
				Type:    NodeQuestion,
				Content: "Mechanical heart valve or moderate to severe mitral stenosis?",
				Inputs:  []form.Parameter{form.YesNo("valvular_af", "Valvular AF", "")},
				Branches: []Branch{
					{Label: "Yes", When: when("valvular_af eq true"), Target: "vka"},
					{Label: "No", Target: "stroke_risk"},
				},
			},
			&Node{
				ID:              "vka",
				Type:            NodeResult,
				Content:         "Anticoagulate with a vitamin K antagonist",
				Recommendations: []string{"Target INR by valve type", "DOACs are contraindicated"},
			},
			&Node{
				ID:          "stroke_risk",
				Type:        NodeDecision,
				Content:     "CHA2DS2-VASc score",
				Description: "Thresholds differ by sex since female sex scores one point.",
				Inputs: []form.Parameter{
					form.Number("cha2ds2_vasc_score", "CHA2DS2-VASc score", "", ""),
					form.Select("sex", "Sex", "",
						form.Option{Value: "male", Label: "Male"},
						form.Option{Value: "female", Label: "Female"},
					).Cached(),
				},
				Branches: []Branch{
					{
						Label:  "High stroke risk",
						When:   when("(sex eq male and cha2ds2_vasc_score ge 2) or (sex eq female and cha2ds2_vasc_score ge 3)"),
						Target: "bleeding_risk",
					},
					{
						Label:  "Intermediate stroke risk",
						When:   when("(sex eq male and cha2ds2_vasc_score eq 1) or (sex eq female and cha2ds2_vasc_score eq 2)"),
						Target: "consider",
					},
					{Label: "Low stroke risk", Target: "no_therapy"},
				},
			},
			&Node{
				ID:      "bleeding_risk",
				Type:    NodeQuestion,
				Content: "HAS-BLED score",
				Inputs:  []form.Parameter{form.Number("has_bled_score", "HAS-BLED score", "", "")},
				Branches: []Branch{
					{Label: "High bleeding risk", When: when("has_bled_score ge 3"), Target: "anticoagulate_caution"},
					{Label: "Acceptable bleeding risk", Target: "anticoagulate"},
				},
			},
			&Node{
				ID:              "anticoagulate",
				Type:            NodeResult,
				Content:         "Start a direct oral anticoagulant",
				Recommendations: []string{"Dose by renal function, age and weight"},
			},
			&Node{
				ID:      "anticoagulate_caution",
				Type:    NodeResult,
				Content: "Start a direct oral anticoagulant and address bleeding risk",
				Recommendations: []string{
					"Correct modifiable bleeding risk factors",
					"Review within 4 weeks",
				},
			},
			&Node{
				ID:              "consider",
				Type:            NodeResult,
				Content:         "Consider anticoagulation",
				Recommendations: []string{"Shared decision with the patient"},
			},
			&Node{
				ID:              "no_therapy",
				Type:            NodeResult,
				Content:         "No antithrombotic therapy",
				Recommendations: []string{"Reassess stroke risk annually"},
			},
		),
		References: []form.Reference{
			{Citation: "Hindricks G et al. 2020 ESC Guidelines for the diagnosis and management of atrial fibrillation. Eur Heart J. 2021;42(5):373-498."},
		},
	}
}
