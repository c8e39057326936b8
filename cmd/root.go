package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dCMD/cmd/coverage"
	"github.com/ValentinKolb/dCMD/cmd/dt"
	"github.com/ValentinKolb/dCMD/cmd/serve"
	"github.com/ValentinKolb/dCMD/cmd/ts"
	"github.com/ValentinKolb/dCMD/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dcmd",
		Short: "distributed data types and timeseries node",
		Long: fmt.Sprintf(`dCMD (v%s)

A node and client for convergent data types (counters, sets, maps,
hyperloglogs), coverage planned key listing and timeseries tables.
Every client command is executed asynchronously and adapted into a
typed response.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dCMD",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dCMD v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(dt.DatatypeCommands)
	RootCmd.AddCommand(coverage.CoverageCommands)
	RootCmd.AddCommand(ts.TimeseriesCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
