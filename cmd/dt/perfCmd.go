package dt

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/dCMD/api/commands"
	"github.com/ValentinKolb/dCMD/api/commands/datatypes"
	"github.com/ValentinKolb/dCMD/cmd/util"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dCMD nodes",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix  = "__perf"
	perfNumThreads = 10
	perfKeySpread  = 100
	perfSkip       = make([]string, 0)

	// perfRegistry holds one latency timer per benchmark
	perfRegistry = gometrics.NewRegistry()
)

// perfTests are executed in this order
var perfTests = []struct {
	name string
	// prepare runs once per key before the benchmark
	prepare func(loc query.Location) error
	op      func(loc query.Location, i int) error
}{
	{
		name: "update-counter",
		op: func(loc query.Location, _ int) error {
			return update(datatypes.NewUpdateCounterBuilder(loc, datatypes.NewCounterUpdate(1)))
		},
	},
	{
		name: "fetch-counter",
		prepare: func(loc query.Location) error {
			return update(datatypes.NewUpdateCounterBuilder(loc, datatypes.NewCounterUpdate(1)))
		},
		op: func(loc query.Location, _ int) error {
			return fetch(datatypes.NewFetchCounterBuilder(loc))
		},
	},
	{
		name: "add-set",
		op: func(loc query.Location, i int) error {
			return update(datatypes.NewUpdateSetBuilder(loc, datatypes.NewSetUpdate().AddString(strconv.Itoa(i%64))))
		},
	},
	{
		name: "fetch-set",
		prepare: func(loc query.Location) error {
			return update(datatypes.NewUpdateSetBuilder(loc, datatypes.NewSetUpdate().AddString("a").AddString("b")))
		},
		op: func(loc query.Location, _ int) error {
			return fetch(datatypes.NewFetchSetBuilder(loc))
		},
	},
	{
		name: "add-hll",
		op: func(loc query.Location, i int) error {
			return update(datatypes.NewUpdateHllBuilder(loc, datatypes.NewHllUpdate().AddString(strconv.Itoa(i))))
		},
	},
	{
		name: "fetch-missing",
		op: func(loc query.Location, _ int) error {
			return fetch(datatypes.NewFetchCounterBuilder(query.NewLocation(loc.Namespace, loc.Key+"-missing")))
		},
	},
}

func init() {
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. add-set,fetch-set)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	perfKeySpread = max(viper.GetInt("keys"), 1)
	perfNumThreads = max(viper.GetInt("threads"), 1)
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	// the namespace flags are optional for perf
	if viper.GetString("bucket") == "" {
		viper.Set("bucket", perfKeyPrefix)
	}
	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Performance testing tool for dCMD nodes")

	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Namespace: %s\n", util.GetNamespace())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("starting tests...")

	results := make(map[string]testing.BenchmarkResult)

	for _, test := range perfTests {
		test := test
		timer := gometrics.GetOrRegisterTimer(test.name, perfRegistry)

		result := testing.Benchmark(func(b *testing.B) {
			if shouldSkip(test.name) {
				return
			}

			getLoc, iter := getLocations(test.name)

			if test.prepare != nil {
				iter(func(loc query.Location) {
					if err := test.prepare(loc); err != nil {
						fmt.Printf("(%s) - error preparing key: %v\n", test.name, err)
					}
				})
			}

			// cleanup
			b.Cleanup(func() {
				iter(func(loc query.Location) {
					if err := remove(loc); err != nil {
						fmt.Printf("(%s) - error deleting key: %v\n", test.name, err)
					}
				})
			})

			b.SetParallelism(perfNumThreads)

			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				counter := 0
				for pb.Next() {
					start := time.Now()
					if err := test.op(getLoc(counter), counter); err != nil {
						fmt.Printf("(%s) - error: %v\n", test.name, err)
					}
					timer.UpdateSince(start)
					counter++
				}
			})
		})

		results[test.name] = result
		printResult(test.name, result, timer)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func update[T crdt.Datatype](b *datatypes.UpdateBuilder[T]) error {
	cmd, err := b.WithTimeout(util.GetTimeout()).Build()
	if err != nil {
		return err
	}
	_, err = commands.Execute(rpcCluster, cmd)
	return err
}

func fetch[T crdt.Datatype](b *datatypes.FetchBuilder[T]) error {
	cmd, err := b.WithTimeout(util.GetTimeout()).Build()
	if err != nil {
		return err
	}
	_, err = commands.Execute(rpcCluster, cmd)
	return err
}

func remove(loc query.Location) error {
	cmd, err := datatypes.NewDeleteBuilder(loc).WithTimeout(util.GetTimeout()).Build()
	if err != nil {
		return err
	}
	_, err = commands.Execute(rpcCluster, cmd)
	return err
}

func shouldSkip(test string) bool {
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// getLocations creates the test locations of one benchmark and functions to work with them
func getLocations(prefix string) (func(int) query.Location, func(func(query.Location))) {
	ns := util.GetNamespace()
	locs := make([]query.Location, perfKeySpread)
	for i := range locs {
		locs[i] = query.NewLocation(ns, fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i))
	}

	getLoc := func(i int) query.Location {
		return locs[i%perfKeySpread]
	}

	iterate := func(fn func(query.Location)) {
		for _, loc := range locs {
			fn(loc)
		}
	}

	return getLoc, iterate
}

// printResult prints the result of a benchmark together with the latency percentiles
func printResult(test string, result testing.BenchmarkResult, timer gometrics.Timer) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1)
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	ps := timer.Snapshot().Percentiles([]float64{0.5, 0.99})
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s\tp99=%s\n",
		test, nsPerOp, time.Duration(nsPerOp), opsPerSec, time.Duration(ps[0]), time.Duration(ps[1]))
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "P50", "P99", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport", "Threads", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for _, test := range perfTests {
		result, ok := results[test.name]
		if !ok {
			continue
		}

		var nsPerOp, opsPerSec float64
		skipped := "true"
		if result.NsPerOp() != 0 {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		ps := gometrics.GetOrRegisterTimer(test.name, perfRegistry).Snapshot().Percentiles([]float64{0.5, 0.99})

		row := []string{
			test.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			time.Duration(ps[0]).String(),
			time.Duration(ps[1]).String(),
			skipped,
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test.name, err)
		}
	}

	return nil
}
