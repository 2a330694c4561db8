package commands

import (
	"fmt"

	"github.com/khulnasoft/DataLineup/sym"
	"github.com/khulnasoft/DataLineup/version"
)

// printStartupBanner prints the worker's identity and the mode it's
// about to run in before the sync loop starts.
func printStartupBanner(workerID string, standalone bool, target string, syncPeriod string) {
	cyan := "\033[36m"
	green := "\033[32m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	fmt.Printf("\n%s%sdatalineup worker%s %s\n", cyan, bold, reset, versionInfo.Short())
	fmt.Printf("%s│%s worker_id:   %s\n", green, reset, workerID)
	if standalone {
		fmt.Printf("%s│%s mode:        standalone (topology %s)\n", green, reset, target)
	} else {
		fmt.Printf("%s│%s mode:        manager at %s\n", green, reset, target)
	}
	fmt.Printf("%s│%s sync_period: %s\n", green, reset, syncPeriod)
	fmt.Printf("%s│%s stages:      %s poll  %s schedule  %s submit  %s execute  %s publish\n",
		green, reset, sym.Poll, sym.Schedule, sym.Submit, sym.Execute, sym.Publish)
	fmt.Printf("\nPress Ctrl+C to stop\n\n")
}
