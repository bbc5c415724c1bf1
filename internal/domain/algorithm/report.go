package algorithm

import (
	"time"

	"github.com/medcalc/medcalc/internal/domain/diagram"
	"github.com/medcalc/medcalc/internal/domain/form"
	"github.com/medcalc/medcalc/internal/domain/report"
)

// BuildReport summarizes a traversal. Every visited node becomes a step with
// the answers given there; a result node at the end becomes the outcome.
func BuildReport(nav *Navigator, now time.Time) report.Pathway {
	def := nav.Definition()
	in := nav.Inputs()
	p := report.Pathway{
		Title:       def.Name,
		Complete:    nav.Complete(),
		GeneratedAt: now,
	}
	for _, id := range nav.Path() {
		n := def.Node(id)
		if n == nil {
			continue
		}
		if n.Type == NodeResult {
			p.Outcome = n.Content
			p.Recommendations = n.Recommendations
			continue
		}
		step := report.Step{Title: n.Content, Kind: n.Type.String(), Recommendations: n.Recommendations}
		for _, param := range n.Inputs {
			if !in.Has(param.ID) {
				continue
			}
			step.Answers = append(step.Answers, report.Line{Label: param.Name, Value: form.FormatValue(param, in)})
		}
		p.Steps = append(p.Steps, step)
	}
	for _, r := range def.References {
		p.References = append(p.References, r.Citation)
	}
	return p
}

// Graph converts the definition into a diagram graph. Nodes are listed from
// the start node, then in id order; edges follow branch order.
func Graph(def *Definition) diagram.Graph {
	g := diagram.Graph{Start: def.StartNodeID}
	ids := def.NodeIDs()
	if def.Node(def.StartNodeID) != nil {
		ids = append([]string{def.StartNodeID}, without(ids, def.StartNodeID)...)
	}
	for _, id := range ids {
		n := def.Nodes[id]
		g.Nodes = append(g.Nodes, diagram.Node{ID: id, Label: n.Content, Kind: n.Type.String()})
		for _, b := range n.Branches {
			g.Edges = append(g.Edges, diagram.Edge{From: id, To: b.Target, Label: b.Label})
		}
	}
	return g
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
