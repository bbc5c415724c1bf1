package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medcalc/medcalc/internal/domain/calculator"
	"github.com/medcalc/medcalc/internal/domain/form"
	"github.com/medcalc/medcalc/internal/domain/report"
)

func calculatorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculators",
		Short: "List, inspect and run risk calculators",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List calculators",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-20s %-16s %s\n", "ID", "CATEGORY", "NAME")
			for _, d := range calculator.DefaultRegistry().List(category) {
				fmt.Fprintf(w, "%-20s %-16s %s\n", d.ID, d.Category, d.Name)
			}
			return nil
		},
	}
	listCmd.Flags().String("category", "", "Only list calculators in this category")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show a calculator's parameters and interpretation ranges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := calculator.DefaultRegistry().Get(args[0])
			if err != nil {
				return err
			}
			printCalculator(cmd.OutOrStdout(), def)
			return nil
		},
	})

	runCmd := &cobra.Command{
		Use:   "calc <id>",
		Short: "Run a calculator",
		Example: `  medcalc calculators calc has-bled --set age=70,hypertension=true
  medcalc calculators calc fib-4 --set age=55 --set ast=40 --set alt=30 --set platelets=200 --format print`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, _ := cmd.Flags().GetStringArray("set")
			format, _ := cmd.Flags().GetString("format")
			in, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			return runCalculator(cmd, args[0], in, format)
		},
	}
	runCmd.Flags().StringArray("set", nil, "Input as key=value; repeat or comma-separate")
	runCmd.Flags().String("format", "text", "Output format: text, print or json")
	cmd.AddCommand(runCmd)

	return cmd
}

func runCalculator(cmd *cobra.Command, id string, in form.Inputs, format string) error {
	svc := calculator.NewService(calculator.DefaultRegistry(), zerolog.Nop())
	res, err := svc.Calculate(cmd.Context(), id, in)
	if err != nil {
		var missing *form.MissingInputError
		if errors.As(err, &missing) {
			return fmt.Errorf("missing inputs: %v (set them with --set id=value)", missing.IDs())
		}
		return err
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"calculator_id": id, "inputs": in, "result": res})
	}
	rf, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	def, _ := svc.Get(id)
	fmt.Fprint(w, report.RenderCalculation(rf, calculator.BuildReport(def, in, res, time.Now())))
	return nil
}

// rangeBounds renders a range as "1.3-2.67", "0-<1.3" or "2.67+".
func rangeBounds(r calculator.Range) string {
	switch {
	case r.Max == nil:
		return fmt.Sprintf("%g+", r.Min)
	case r.MaxExclusive:
		return fmt.Sprintf("%g-<%g", r.Min, *r.Max)
	default:
		return fmt.Sprintf("%g-%g", r.Min, *r.Max)
	}
}

func printCalculator(w io.Writer, def *calculator.Definition) {
	fmt.Fprintf(w, "%s (%s)\n%s\n\nParameters:\n", def.Name, def.ID, def.Description)
	printParameters(w, def.Parameters)

	if len(def.Screening) > 0 {
		fmt.Fprintln(w, "\nScreening:")
		for _, q := range def.Screening {
			fmt.Fprintf(w, "  %-28s %s\n", q.ID, q.Question)
		}
	}

	fmt.Fprintln(w, "\nInterpretation:")
	population := ""
	for _, r := range def.Ranges {
		if r.Population != population {
			population = r.Population
			fmt.Fprintf(w, " %s:\n", population)
		}
		fmt.Fprintf(w, "  %-12s %-10s %s\n", rangeBounds(r), r.Severity, r.Interpretation)
	}

	if len(def.References) > 0 {
		fmt.Fprintln(w, "\nReferences:")
		for _, ref := range def.References {
			fmt.Fprintf(w, "  - %s\n", ref.Citation)
		}
	}
}
