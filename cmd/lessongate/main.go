package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "lessongate: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lessongate",
		Short:         "Quality-gated lesson generation",
		Long:          "lessongate writes lessons with an LLM author and revises them until a critic's rubric scores pass the gate.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newBotCommand())
	root.AddCommand(newGenerateCommand())
	root.AddCommand(newRubricCommand())
	return root
}
