package coverage

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/dCMD/api/commands"
	"github.com/ValentinKolb/dCMD/api/commands/kv"
	"github.com/ValentinKolb/dCMD/cmd/util"
	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rpcCluster cluster.ICluster

	// CoverageCommands represents the coverage command group
	CoverageCommands = &cobra.Command{
		Use:                "coverage",
		Short:              "Inspect how a namespace is spread over the cluster",
		PersistentPreRunE:  setupCoverageClient,
		PersistentPostRunE: closeCoverageClient,
	}
	planCmd = &cobra.Command{
		Use:   "plan",
		Short: "Requests and prints the coverage plan of the namespace",
		Args:  cobra.NoArgs,
		RunE:  runPlan,
	}
	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Lists all keys of the namespace",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
)

func init() {
	util.SetupRPCClientFlags(CoverageCommands, 100)
	util.SetupNamespaceFlags(CoverageCommands)

	planCmd.Flags().Uint32("min-partitions", 0, util.WrapString("Minimum number of entries the plan should be split into (0 uses the ring size)"))

	CoverageCommands.AddCommand(planCmd)
	CoverageCommands.AddCommand(scanCmd)
}

func setupCoverageClient(cmd *cobra.Command, _ []string) error {
	var err error
	rpcCluster, err = util.ConnectCluster(cmd)
	return err
}

func closeCoverageClient(_ *cobra.Command, _ []string) error {
	if rpcCluster == nil {
		return nil
	}
	return rpcCluster.Close()
}

// runPlan prints one line per coverage entry, grouped by host
func runPlan(_ *cobra.Command, _ []string) error {
	plan, err := kv.NewCoveragePlanBuilder(util.GetNamespace()).
		WithMinPartitions(viper.GetUint32("min-partitions")).
		Build()
	if err != nil {
		return err
	}

	resp, err := commands.Execute(rpcCluster, plan)
	if err != nil {
		return err
	}

	fmt.Printf("namespace=%s, entries=%d, hosts=%d\n", resp.Namespace(), len(resp.Entries()), len(resp.Hosts()))
	for _, host := range resp.Hosts() {
		fmt.Printf("%s\n", host)
		for _, entry := range resp.EntriesFor(host) {
			fmt.Printf("  %s\n", entry.Description)
		}
	}
	return nil
}

// runScan lists every key of the namespace, one per line
func runScan(_ *cobra.Command, _ []string) error {
	scan := kv.FullScan(rpcCluster, util.GetNamespace())
	keys, err := scan.GetTimeout(util.GetTimeout())
	if errors.Is(err, future.ErrTimeout) {
		scan.Cancel()
	}
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}
