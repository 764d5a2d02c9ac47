package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowcoreio/flowcore/pkg/domain"
	"github.com/flowcoreio/flowcore/pkg/session"
)

var runCmd = &cobra.Command{
	Use:   "run <sectionId> [key=value ...]",
	Short: "Run a single next_question_flow traversal and print the response",
	Long:  `Runs one stateless traversal starting at the given section, with the supplied key=value pairs as input parameters, and prints the JSON response.`,
	Args:  cobra.MinimumNArgs(1),
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

		sectionID := args[0]
		inputs, err := parseInputArgs(args[1:])
		if err != nil {
			fmt.Printf("Error parsing inputs: %v\n", err)
			os.Exit(1)
		}

		resp, err := eng.NextQuestionFlow(ctx, session.Request{SectionID: sectionID, Inputs: inputs})
		if err != nil {
			fmt.Printf("Traversal failed: %v\n", err)
			os.Exit(1)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(resp)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// parseInputArgs turns "key=value" CLI args into a domain.Value input map.
// Values are parsed as JSON when possible (so `age=30` becomes a number and
// `active=true` a bool); anything that fails to parse as JSON is kept as a
// plain string.
func parseInputArgs(args []string) (map[string]domain.Value, error) {
	inputs := make(map[string]domain.Value, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid input %q, expected key=value", arg)
		}
		key, raw := parts[0], parts[1]

		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			decoded = raw
		}
		val, err := domain.FromAny(decoded)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", key, err)
		}
		inputs[key] = val
	}
	return inputs, nil
}
