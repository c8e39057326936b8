package dt

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/ValentinKolb/dCMD/api/commands"
	"github.com/ValentinKolb/dCMD/api/commands/datatypes"
	"github.com/ValentinKolb/dCMD/cmd/util"
	"github.com/ValentinKolb/dCMD/lib/crdt"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	fetchCounterCmd = &cobra.Command{
		Use:   "fetch-counter [key]",
		Short: "Fetches a counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(datatypes.NewFetchCounterBuilder(location(args[0])))
		},
	}
	updateCounterCmd = &cobra.Command{
		Use:   "update-counter [key] [delta]",
		Short: "Increments (or decrements) a counter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("delta must be a number: %w", err)
			}
			return runUpdate(datatypes.NewUpdateCounterBuilder(location(args[0]), datatypes.NewCounterUpdate(delta)))
		},
	}
	fetchSetCmd = &cobra.Command{
		Use:   "fetch-set [key]",
		Short: "Fetches a set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(datatypes.NewFetchSetBuilder(location(args[0])))
		},
	}
	addSetCmd = &cobra.Command{
		Use:   "add-set [key] [element...]",
		Short: "Adds elements to a set",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := datatypes.NewSetUpdate()
			for _, elem := range args[1:] {
				update.AddString(elem)
			}
			return runUpdate(datatypes.NewUpdateSetBuilder(location(args[0]), update))
		},
	}
	removeSetCmd = &cobra.Command{
		Use:   "remove-set [key] [element...]",
		Short: "Removes elements from a set",
		Long:  "Removes elements from a set. Without --context the set is fetched first and its context is used.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc := location(args[0])
			ctx, err := contextFor(loc)
			if err != nil {
				return err
			}
			update := datatypes.NewSetUpdate()
			for _, elem := range args[1:] {
				update.RemoveString(elem)
			}
			return runUpdate(datatypes.NewUpdateSetBuilder(loc, update).WithContext(ctx))
		},
	}
	fetchHllCmd = &cobra.Command{
		Use:   "fetch-hll [key]",
		Short: "Fetches the cardinality estimate of a hyperloglog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(datatypes.NewFetchHllBuilder(location(args[0])))
		},
	}
	addHllCmd = &cobra.Command{
		Use:   "add-hll [key] [element...]",
		Short: "Adds elements to a hyperloglog",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := datatypes.NewHllUpdate()
			for _, elem := range args[1:] {
				update.AddString(elem)
			}
			return runUpdate(datatypes.NewUpdateHllBuilder(location(args[0]), update))
		},
	}
	fetchMapCmd = &cobra.Command{
		Use:   "fetch-map [key]",
		Short: "Fetches a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(datatypes.NewFetchMapBuilder(location(args[0])))
		},
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [key]",
		Short: "Deletes the value at a key, whatever its kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			del, err := datatypes.NewDeleteBuilder(location(args[0])).WithTimeout(util.GetTimeout()).Build()
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

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

type output struct {
	Location string `json:"location"`
	NotFound bool   `json:"notFound,omitempty"`
	Value    any    `json:"value,omitempty"`
	Context  string `json:"context,omitempty"`
}

func location(key string) query.Location {
	return query.NewLocation(util.GetNamespace(), key)
}

func runFetch[T crdt.Datatype](b *datatypes.FetchBuilder[T]) error {
	fetch, err := b.
		WithTimeout(util.GetTimeout()).
		WithIncludeContext(viper.GetBool("include-context")).
		Build()
	if err != nil {
		return err
	}

	resp, err := commands.Execute(rpcCluster, fetch)
	if err != nil {
		return err
	}

	return util.PrintJSON(output{
		Location: resp.Location().String(),
		NotFound: resp.NotFound(),
		Value:    render(resp.Datatype()),
		Context:  hex.EncodeToString(resp.Context()),
	})
}

func runUpdate[T crdt.Datatype](b *datatypes.UpdateBuilder[T]) error {
	update, err := b.
		WithTimeout(util.GetTimeout()).
		WithReturnBody(true).
		Build()
	if err != nil {
		return err
	}

	resp, err := commands.Execute(rpcCluster, update)
	if err != nil {
		return err
	}

	out := output{Location: resp.Location().String()}
	if resp.HasBody() {
		out.Value = render(resp.Datatype())
	}
	if viper.GetBool("include-context") {
		out.Context = hex.EncodeToString(resp.Context())
	}
	return util.PrintJSON(out)
}

// contextFor returns the --context flag, or the context of a fresh fetch of loc
func contextFor(loc query.Location) (crdt.Context, error) {
	if raw := viper.GetString("context"); raw != "" {
		ctx, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid context: %w", err)
		}
		return ctx, nil
	}

	fetch, err := datatypes.NewFetchSetBuilder(loc).
		WithTimeout(util.GetTimeout()).
		WithIncludeContext(true).
		Build()
	if err != nil {
		return nil, err
	}
	resp, err := commands.Execute(rpcCluster, fetch)
	if err != nil {
		return nil, err
	}
	return resp.Context(), nil
}

// render converts a data type into a value that prints well as json
func render(dt crdt.Datatype) any {
	switch v := dt.(type) {
	case *crdt.Counter:
		return v.View()
	case *crdt.Set:
		return asStrings(v.View())
	case *crdt.GSet:
		return asStrings(v.View())
	case *crdt.Register:
		return string(v.View())
	case *crdt.Flag:
		return v.View()
	case *crdt.Hll:
		return v.View()
	case *crdt.Map:
		out := make(map[string]any, v.Size())
		for _, f := range v.Fields() {
			out[fmt.Sprintf("%s_%s", f.Name, f.Kind)] = render(v.Get(f))
		}
		return out
	default:
		return nil
	}
}

func asStrings(elements [][]byte) []string {
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = string(e)
	}
	return out
}
