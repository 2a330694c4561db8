package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khulnasoft/DataLineup/cmd/datalineup/commands"
)

var verbosity int

var rootCmd = &cobra.Command{
	Use:   "datalineup",
	Short: "datalineup — distributed job-processing worker and manager client",
	Long: `datalineup runs a worker that polls its assigned inventories, schedules
work through a concurrency-aware executor pipeline, acquires typed
resources under rate limits, and publishes results to topics — against
either a manager process or a local declarative topology file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		return commands.InitLogger(jsonOutput, verbosity)
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "verbosity count (-v, -vv, -vvv); does not change the log level, which stays at info")
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit structured JSON logs instead of the console encoder")

	rootCmd.AddCommand(commands.VersionCmd)
	rootCmd.AddCommand(commands.WorkerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
