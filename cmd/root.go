package cmd

import (
	"fmt"
	"os"

	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/cmd/call"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/cmd/events"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/cmd/perf"
	"github.com/SteveSun-qixing/PotatoEcosystem-SDK-sub002/cmd/serve"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "coreconn",
		Short: "core connector client",
		Long: fmt.Sprintf(`coreconn (v%s)

Command-line client for the core connector: route service calls to a
running core process, listen for and publish events, benchmark the
connection, or host a mock core for development.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of coreconn",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("coreconn v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(call.CallCmd)
	RootCmd.AddCommand(events.EventsCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
