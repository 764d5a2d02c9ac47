package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowcoreio/flowcore"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowcore",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowcore version %s\n", flowcore.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
