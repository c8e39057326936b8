package dt

import (
	"github.com/ValentinKolb/dCMD/cmd/util"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/spf13/cobra"
)

var (
	rpcCluster cluster.ICluster

	// DatatypeCommands represents the data type command group
	DatatypeCommands = &cobra.Command{
		Use:                "dt",
		Short:              "Fetch and update convergent data types",
		PersistentPreRunE:  setupDtClient,
		PersistentPostRunE: closeDtClient,
	}
)

func init() {
	// Add common RPC flags to the dt command
	util.SetupRPCClientFlags(DatatypeCommands, 100)
	util.SetupNamespaceFlags(DatatypeCommands)

	key := "include-context"
	DatatypeCommands.PersistentFlags().Bool(key, false, util.WrapString("Print the causal context returned by the node (hex)"))
	key = "context"
	DatatypeCommands.PersistentFlags().String(key, "", util.WrapString("Causal context (hex) of a previous fetch, required to remove elements"))

	// Add subcommands
	DatatypeCommands.AddCommand(fetchCounterCmd)
	DatatypeCommands.AddCommand(updateCounterCmd)
	DatatypeCommands.AddCommand(fetchSetCmd)
	DatatypeCommands.AddCommand(addSetCmd)
	DatatypeCommands.AddCommand(removeSetCmd)
	DatatypeCommands.AddCommand(fetchHllCmd)
	DatatypeCommands.AddCommand(addHllCmd)
	DatatypeCommands.AddCommand(fetchMapCmd)
	DatatypeCommands.AddCommand(deleteCmd)
	DatatypeCommands.AddCommand(perfTestCmd)
}

// setupDtClient connects the cluster handle used by all subcommands
func setupDtClient(cmd *cobra.Command, _ []string) error {
	var err error
	rpcCluster, err = util.ConnectCluster(cmd)
	return err
}

func closeDtClient(_ *cobra.Command, _ []string) error {
	if rpcCluster == nil {
		return nil
	}
	return rpcCluster.Close()
}
