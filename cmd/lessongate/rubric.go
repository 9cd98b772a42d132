package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kitbuilder587/lesson-gate/internal/config"
)

func newRubricCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rubric",
		Short: "Print the active rubric and policy presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadCore()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return printRubric(cmd.OutOrStdout(), &cfg.Gate)
		},
	}
}

func printRubric(out io.Writer, gate *config.GateConfig) error {
	r := gate.Rubric
	fmt.Fprintf(out, "%s (overall threshold %.2f)\n", bold("Rubric"), r.OverallThreshold)
	for _, d := range r.Dimensions {
		fmt.Fprintf(out, "  %-24s weight %.2f  threshold %.2f\n", d.Name, d.Weight, d.Threshold)
	}

	fmt.Fprintf(out, "\n%s\n", bold("Policies"))
	for _, t := range policyTypes {
		p, err := gate.Policy(t)
		if err != nil {
			return err
		}
		marker := " "
		if string(t) == gate.DefaultPolicy {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-9s attempts %d  brief %d  timeout %s\n",
			marker, t, p.MaxAttempts, p.BriefSize, time.Duration(p.TimeoutSeconds)*time.Second)
	}
	return nil
}
