package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/medcalc/medcalc/internal/domain/form"
	"github.com/medcalc/medcalc/internal/platform/db"
)

func printMigrationStatus(w io.Writer, schema string, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "Migration status for schema: %s\n", schema)
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func printParameters(w io.Writer, params []form.Parameter) {
	for _, p := range params {
		kind := string(p.Type)
		if p.Unit != "" {
			kind += " (" + p.Unit + ")"
		}
		var notes []string
		if p.Optional {
			notes = append(notes, "optional")
		}
		if p.Cacheable {
			notes = append(notes, "cached")
		}
		fmt.Fprintf(w, "  %-28s %-24s %s\n", p.ID, kind, strings.Join(notes, ","))
		for _, o := range p.Options {
			fmt.Fprintf(w, "      %s = %s\n", o.Value, o.Label)
		}
	}
}

// parseAssignments turns "k=v" pairs into inputs. Each argument may hold
// several pairs separated by commas.
func parseAssignments(args []string) (form.Inputs, error) {
	in := form.Inputs{}
	for _, arg := range args {
		for _, pair := range strings.Split(arg, ",") {
			pair = strings.TrimSpace(pair)
			if pair == "" {
				continue
			}
			k, v, ok := strings.Cut(pair, "=")
			k = strings.TrimSpace(k)
			if !ok || k == "" {
				return nil, fmt.Errorf("invalid assignment %q (want key=value)", pair)
			}
			in[k] = form.ParseValue(v)
		}
	}
	return in, nil
}
