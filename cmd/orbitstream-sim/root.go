package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orbitstream-sim",
	Short: "OrbitStream load generation toolkit",
	Long:  "orbitstream-sim drives a synthetic satellite swarm against a telemetry ingestion endpoint.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(fetchTLECmd)
}
