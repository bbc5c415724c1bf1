package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medcalc/medcalc/internal/domain/algorithm"
	"github.com/medcalc/medcalc/internal/domain/form"
	"github.com/medcalc/medcalc/internal/domain/report"
)

func algorithmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "algorithms",
		Aliases: []string{"algo"},
		Short:   "List, walk, validate and export clinical pathways",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pathways",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-22s %-14s %-6s %s\n", "ID", "CATEGORY", "NODES", "NAME")
			for _, d := range algorithm.DefaultRegistry().List(category) {
				fmt.Fprintf(w, "%-22s %-14s %-6d %s\n", d.ID, d.Category, len(d.Nodes), d.Name)
			}
			return nil
		},
	}
	listCmd.Flags().String("category", "", "Only list pathways in this category")
	cmd.AddCommand(listCmd)

	walkCmd := &cobra.Command{
		Use:   "walk <id>",
		Short: "Walk a pathway with one --step per visited node",
		Example: `  medcalc algorithms walk stroke-workup \
    --step hours_since_lkw=2 --step ct_finding=no_haemorrhage \
    --step thrombolysis_contraindicated=false --step "" --step lvo=true`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawSteps, _ := cmd.Flags().GetStringArray("step")
			format, _ := cmd.Flags().GetString("format")
			steps := make([]form.Inputs, 0, len(rawSteps))
			for _, raw := range rawSteps {
				in, err := parseAssignments([]string{raw})
				if err != nil {
					return err
				}
				steps = append(steps, in)
			}
			return runWalk(cmd, args[0], steps, format)
		},
	}
	walkCmd.Flags().StringArray("step", nil, "Answers for one node as key=value[,key=value]")
	walkCmd.Flags().String("format", "text", "Output format: text, print or json")
	cmd.AddCommand(walkCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a JSON or YAML pathway definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return validateDefinition(cmd.OutOrStdout(), data, algorithm.FormatFromPath(args[0]))
		},
	})

	exportCmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a built-in pathway as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("output")
			f, err := algorithm.ParseFormat(format)
			if err != nil {
				return err
			}
			def, err := algorithm.DefaultRegistry().Get(args[0])
			if err != nil {
				return err
			}
			data, err := algorithm.Encode(def, f)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	exportCmd.Flags().String("format", "yaml", "Output format: json or yaml")
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	cmd.AddCommand(exportCmd)

	return cmd
}

func runWalk(cmd *cobra.Command, id string, steps []form.Inputs, format string) error {
	svc := algorithm.NewService(algorithm.DefaultRegistry(), zerolog.Nop())
	nav, walkErr := svc.Walk(cmd.Context(), id, steps)
	if nav == nil {
		return walkErr
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		body := map[string]interface{}{
			"algorithm_id": id,
			"path":         nav.Path(),
			"inputs":       nav.Inputs(),
			"complete":     nav.Complete(),
		}
		if walkErr != nil {
			body["error"] = walkErr.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(body); err != nil {
			return err
		}
		return walkErr
	}

	rf, err := report.ParseFormat(format)
	if err != nil {
		return err
	}
	fmt.Fprint(w, report.RenderPathway(rf, algorithm.BuildReport(nav, time.Now())))
	if walkErr != nil {
		return walkErr
	}
	if !nav.Complete() {
		node := nav.CurrentNode()
		fmt.Fprintf(w, "\nStopped at %q: %s\n", node.ID, node.Content)
		printParameters(w, node.Inputs)
	}
	return nil
}

func validateDefinition(w io.Writer, data []byte, f algorithm.Format) error {
	def, err := algorithm.Decode(data, f)
	if err != nil {
		return fmt.Errorf("decode definition: %w", err)
	}
	if err := algorithm.Validate(def); err != nil {
		var verr *algorithm.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(w, "%s is invalid:\n", def.ID)
			for _, p := range verr.Problems {
				fmt.Fprintf(w, "  - %s\n", p)
			}
		}
		return err
	}
	fmt.Fprintf(w, "%s is valid (%d nodes)\n", def.ID, len(def.Nodes))
	return nil
}
