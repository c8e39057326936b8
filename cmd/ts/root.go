package ts

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/ValentinKolb/dCMD/api/commands"
	tsCommands "github.com/ValentinKolb/dCMD/api/commands/timeseries"
	"github.com/ValentinKolb/dCMD/cmd/util"
	"github.com/ValentinKolb/dCMD/lib/timeseries"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/spf13/cobra"
)

var (
	rpcCluster cluster.ICluster

	// TimeseriesCommands represents the timeseries command group
	TimeseriesCommands = &cobra.Command{
		Use:   "ts",
		Short: "Create timeseries tables and store, fetch or delete rows",
		Long: `Create timeseries tables and store, fetch or delete rows.

Cells are written as TYPE:VALUE (e.g. varchar:hash1, timestamp:2024-01-01T00:00:00Z,
double:3.5, sint64:7, boolean:true, null:). Columns are written as
NAME:TYPE[:FLAG,...] where FLAG is one of pk (partition key), lk (local key)
or null (nullable).`,
		PersistentPreRunE:  setupTsClient,
		PersistentPostRunE: closeTsClient,
	}
	createCmd = &cobra.Command{
		Use:   "create [table] [column...]",
		Short: "Creates a table",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			columns := make([]timeseries.ColumnDescription, 0, len(args)-1)
			for _, arg := range args[1:] {
				column, err := parseColumn(arg)
				if err != nil {
					return err
				}
				columns = append(columns, column)
			}

			create, err := tsCommands.NewCreateTableBuilder(args[0]).WithColumns(columns...).Build()
			if err != nil {
				return err
			}
			if _, err := commands.Execute(rpcCluster, create); err != nil {
				return err
			}
			fmt.Printf("table %s created successfully\n", args[0])
			return nil
		},
	}
	storeCmd = &cobra.Command{
		Use:   "store [table] [cell...]",
		Short: "Stores one row",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cells, err := parseCells(args[1:])
			if err != nil {
				return err
			}
			store, err := tsCommands.NewStoreBuilder(args[0]).WithRows(timeseries.NewRow(cells...)).Build()
			if err != nil {
				return err
			}
			if _, err := commands.Execute(rpcCluster, store); err != nil {
				return err
			}
			fmt.Println("stored successfully")
			return nil
		},
	}
	fetchCmd = &cobra.Command{
		Use:   "fetch [table] [key cell...]",
		Short: "Fetches the row with the given key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCells(args[1:])
			if err != nil {
				return err
			}
			fetch, err := tsCommands.NewFetchBuilder(args[0], key).WithTimeout(util.GetTimeout()).Build()
			if err != nil {
				return err
			}
			result, err := commands.Execute(rpcCluster, fetch)
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [table] [key cell...]",
		Short: "Deletes the row with the given key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseCells(args[1:])
			if err != nil {
				return err
			}
			del, err := tsCommands.NewDeleteBuilder(args[0], key).WithTimeout(util.GetTimeout()).Build()
			if err != nil {
				return err
			}
			if _, err := commands.Execute(rpcCluster, del); err != nil {
				return err
			}
			fmt.Println("deleted successfully")
			return nil
		},
	}
)

func init() {
	util.SetupRPCClientFlags(TimeseriesCommands, 100)

	TimeseriesCommands.AddCommand(createCmd)
	TimeseriesCommands.AddCommand(storeCmd)
	TimeseriesCommands.AddCommand(fetchCmd)
	TimeseriesCommands.AddCommand(deleteCmd)
}

func setupTsClient(cmd *cobra.Command, _ []string) error {
	var err error
	rpcCluster, err = util.ConnectCluster(cmd)
	return err
}

func closeTsClient(_ *cobra.Command, _ []string) error {
	if rpcCluster == nil {
		return nil
	}
	return rpcCluster.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseColumn parses NAME:TYPE[:FLAG,...]
func parseColumn(s string) (timeseries.ColumnDescription, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return timeseries.ColumnDescription{}, fmt.Errorf("invalid column %q (expected NAME:TYPE[:FLAGS])", s)
	}

	t, err := timeseries.ParseColumnType(parts[1])
	if err != nil {
		return timeseries.ColumnDescription{}, err
	}
	column := timeseries.ColumnDescription{Name: parts[0], Type: t}

	if len(parts) == 3 {
		for _, flag := range strings.Split(parts[2], ",") {
			switch flag {
			case "pk":
				column.PartitionKey = true
			case "lk":
				column.LocalKey = true
			case "null":
				column.Nullable = true
			default:
				return timeseries.ColumnDescription{}, fmt.Errorf("unknown column flag %q in %q", flag, s)
			}
		}
	}
	return column, nil
}

// parseCells parses a list of TYPE:VALUE cells
func parseCells(args []string) ([]timeseries.Cell, error) {
	cells := make([]timeseries.Cell, 0, len(args))
	for _, arg := range args {
		typ, value, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("invalid cell %q (expected TYPE:VALUE)", arg)
		}
		if typ == "null" {
			cells = append(cells, timeseries.Cell{})
			continue
		}
		t, err := timeseries.ParseColumnType(typ)
		if err != nil {
			return nil, err
		}
		cell, err := timeseries.ParseCell(t, value)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

// printResult prints the result as an aligned table
func printResult(result timeseries.QueryResult) error {
	if len(result.Rows) == 0 {
		fmt.Println("no rows found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	names := make([]string, len(result.Columns))
	for i, c := range result.Columns {
		names[i] = c.Name
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))

	for _, row := range result.Rows {
		values := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			values[i] = cell.String()
		}
		fmt.Fprintln(w, strings.Join(values, "\t"))
	}
	return w.Flush()
}
