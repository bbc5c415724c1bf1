package algorithm

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medcalc/medcalc/internal/domain/diagram"
	"github.com/medcalc/medcalc/internal/domain/form"
	"github.com/medcalc/medcalc/internal/domain/report"
)

func TestBuildReport_Complete(t *testing.T) {
	nav, err := Replay(ChestPainTriage(), chestPainToStressTest)
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := BuildReport(nav, now)

	assert.Equal(t, "Chest Pain Triage", p.Title)
	assert.True(t, p.Complete)
	assert.Equal(t, "Arrange non-invasive testing", p.Outcome)
	assert.Equal(t, []string{"Outpatient CT coronary angiography or stress testing"}, p.Recommendations)
	require.Len(t, p.Steps, 5)
	assert.Equal(t, []report.Line{
		{Label: "Systolic blood pressure", Value: "130 mmHg"},
		{Label: "Heart rate", Value: "88 bpm"},
	}, p.Steps[1].Answers)
	assert.Equal(t, "question", p.Steps[0].Kind)
	assert.Equal(t, "no", p.Steps[0].Answers[0].Value)
	assert.Len(t, p.References, 2)
	assert.Equal(t, now, p.GeneratedAt)

	text := report.PathwayText(p)
	assert.Contains(t, text, "Outcome: Arrange non-invasive testing")
	assert.Contains(t, text, "4. What is the HEART score? [HEART score: 5]")
}

func TestBuildReport_Incomplete(t *testing.T) {
	nav, err := Replay(StrokeWorkup(), []form.Inputs{{"hours_since_lkw": 3.0}})
	require.NoError(t, err)

	p := BuildReport(nav, time.Time{})
	assert.False(t, p.Complete)
	assert.Empty(t, p.Outcome)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, "Non-contrast CT head", p.Steps[1].Title)
	assert.Empty(t, p.Steps[1].Answers)
	assert.True(t, strings.Contains(report.PathwayText(p), "pathway not completed"))
}

func TestGraph(t *testing.T) {
	g := Graph(ChestPainTriage())
	assert.Equal(t, "ecg", g.Start)
	require.Len(t, g.Nodes, 11)
	assert.Equal(t, "ecg", g.Nodes[0].ID)
	assert.Len(t, g.Edges, 11)
	assert.Equal(t, diagram.Edge{From: "ecg", To: "stemi", Label: "ST elevation"}, g.Edges[0])
}

func TestGraph_LayoutLevels(t *testing.T) {
	nav, err := Replay(ChestPainTriage(), chestPainToStressTest)
	require.NoError(t, err)

	d := diagram.Layout(Graph(nav.Definition()), nav.Path(), diagram.Options{})
	levels := map[string]int{}
	for _, n := range d.Nodes {
		levels[n.ID] = n.Level
	}
	want := map[string]int{
		"ecg":           0,
		"stemi":         1,
		"haemodynamics": 1,
		"resuscitate":   2,
		"troponin":      2,
		"nstemi":        3,
		"heart_score":   3,
		"invasive":      4,
		"observe":       4,
		"discharge":     4,
		"stress_test":   5,
	}
	if diff := cmp.Diff(want, levels); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, d.Levels)
}
