package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"htem/fanc/pkg/cli"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "fanc",
	Short: "FANC annotation policy engine",
	Long: `fanc decides whether a proposed annotation is valid for a governed table
and whether it may be posted to a segment given the annotations the
segment already carries.

It runs as an HTTP service with an optional chat bot endpoint, and as a
command line tool for checking, posting and auditing annotations.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code for its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults and FANC_* environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
