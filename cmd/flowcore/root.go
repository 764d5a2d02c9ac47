package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowcore",
	Short: "flowcore is a stateless graph-traversal engine for dynamic questionnaires",
	Long:  `flowcore walks a property graph of Sections, Questions, and Actions to answer "what's next" for a given applicant, fresh on every request.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a flowcore.yaml config file")
}
