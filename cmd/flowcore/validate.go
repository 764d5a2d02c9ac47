package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <sectionId>",
	Short: "Inspect a section's direct questions and actions",
	Long:  `Resolves the latest active version of a section and lists the questions and actions its outgoing edges reach, without evaluating any predicate. Useful for spotting a section whose edges point at a vertex with no active version.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Config error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		eng, err := newEngine(ctx, cfg)
		if err != nil {
			fmt.Printf("Error initializing flowcore: %v\n", err)
			os.Exit(1)
		}
		defer eng.Close(ctx)

		section, questions, actions, err := eng.Inspect(ctx, args[0])
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Section %s (v%d)\n", section.ID, section.Version)
		fmt.Printf("  %d question(s):\n", len(questions))
		for _, q := range questions {
			fmt.Printf("    - %s: %s\n", q.ID, q.Prompt)
		}
		fmt.Printf("  %d action(s):\n", len(actions))
		for _, a := range actions {
			fmt.Printf("    - %s: %s\n", a.ID, a.Type)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
