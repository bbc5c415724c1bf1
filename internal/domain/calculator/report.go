package calculator

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/medcalc/medcalc/internal/domain/form"
	"github.com/medcalc/medcalc/internal/domain/report"
)

// BuildReport turns a finished calculation into a report.Calculation.
func BuildReport(def *Definition, in form.Inputs, res *Result, now time.Time) report.Calculation {
	rc := report.Calculation{
		Title:          def.Name,
		Description:    def.Description,
		Score:          strconv.FormatFloat(res.Score, 'f', -1, 64),
		Interpretation: res.Interpretation,
		Severity:       string(res.Severity),
		GeneratedAt:    now,
	}
	if label, ok := res.Data["risk_label"].(string); ok {
		rc.Score = label
	}
	for _, p := range def.Parameters {
		if !in.Has(p.ID) && !p.Optional {
			continue
		}
		rc.Inputs = append(rc.Inputs, report.Line{Label: p.Name, Value: form.FormatValue(p, in)})
	}
	keys := make([]string, 0, len(res.Data))
	for k := range res.Data {
		if k == "raw_score" || k == "risk_label" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rc.Details = append(rc.Details, report.Line{Label: k, Value: fmt.Sprint(res.Data[k])})
	}
	for _, r := range def.References {
		rc.References = append(rc.References, r.Citation)
	}
	return rc
}
