package kv

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/ValentinKolb/dCMD/api/commands"
	"github.com/ValentinKolb/dCMD/api/commands/datatypes"
	cmdtesting "github.com/ValentinKolb/dCMD/api/commands/testing"
	"github.com/ValentinKolb/dCMD/lib/coverage"
	"github.com/ValentinKolb/dCMD/lib/future"
	"github.com/ValentinKolb/dCMD/lib/query"
	"github.com/ValentinKolb/dCMD/lib/store"
	"github.com/ValentinKolb/dCMD/rpc/cluster"
	"github.com/ValentinKolb/dCMD/rpc/common"
)

var ns = query.NewNamespace("kv", "scan")

// fakeCluster answers every request with respond
type fakeCluster struct {
	respond func(req *common.Message) (*common.Message, error)
}

func (f *fakeCluster) Submit(req *common.Message) *future.Future[*common.Message] {
	resp, err := f.respond(req)
	if err != nil {
		return future.Failed[*common.Message](err)
	}
	return future.Succeeded(resp)
}

func (f *fakeCluster) Close() error { return nil }

func planWith(ranges ...coverage.Range) *fakeCluster {
	return &fakeCluster{respond: func(req *common.Message) (*common.Message, error) {
		var entries []coverage.Entry
		for i, r := range ranges {
			entries = append(entries, coverage.Entry{Endpoint: fmt.Sprintf("n%d", i), Token: coverage.EncodeToken(r)})
		}
		return common.NewResponse(req.MsgType, common.CoveragePlanResponse{Entries: entries})
	}}
}

func fill(t *testing.T, c cluster.ICluster, n int) []string {
	t.Helper()
	var keys []string
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("key-%03d", i)
		cmd, err := datatypes.NewUpdateCounterBuilder(query.NewLocation(ns, key), datatypes.NewCounterUpdate(1)).Build()
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if _, err := commands.Execute(c, cmd); err != nil {
			t.Fatalf("update %s error = %v", key, err)
		}
		keys = append(keys, key)
	}
	return keys
}

func TestCoveragePlan(t *testing.T) {
	c := cmdtesting.NewLocalCluster(t, cmdtesting.WithRing(8, "n1", "n2", "n3"))

	tests := []struct {
		name          string
		minPartitions uint32
		entries       int
	}{
		{"ring size", 0, 8},
		{"more partitions", 20, 20},
		{"fewer partitions", 2, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewCoveragePlanBuilder(ns).WithMinPartitions(tt.minPartitions).Build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			plan, err := commands.Execute(c, cmd)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if len(plan.Entries()) != tt.entries {
				t.Errorf("entries = %d, want %d", len(plan.Entries()), tt.entries)
			}
			if !reflect.DeepEqual(plan.Hosts(), []string{"n1", "n2", "n3"}) {
				t.Errorf("hosts = %v", plan.Hosts())
			}

			// sorted, disjoint and exhaustive
			var next uint64
			for i, e := range plan.Entries() {
				r, err := e.Range()
				if err != nil {
					t.Fatalf("entry %d: %v", i, err)
				}
				if r.Start != next {
					t.Fatalf("entry %d starts at %x, want %x", i, r.Start, next)
				}
				next = r.End + 1
				if i == len(plan.Entries())-1 && r.End != coverage.MaxPosition {
					t.Errorf("last entry ends at %x", r.End)
				}
			}
		})
	}
}

func TestCoveragePlanUnavailable(t *testing.T) {
	half := uint64(coverage.MaxPosition / 2)

	tests := []struct {
		name string
		c    cluster.ICluster
	}{
		{"node cannot plan", &fakeCluster{respond: func(req *common.Message) (*common.Message, error) {
			return nil, &cluster.TransportError{Op: req.MsgType, Code: store.RetCPlanUnavailable, Err: errors.New("ring has no endpoints")}
		}}},
		{"gap", planWith(coverage.Range{Start: 0, End: half}, coverage.Range{Start: half + 2, End: coverage.MaxPosition})},
		{"overlap", planWith(coverage.Range{Start: 0, End: half}, coverage.Range{Start: half, End: coverage.MaxPosition})},
		{"not exhaustive", planWith(coverage.Range{Start: 0, End: half})},
		{"empty", planWith()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := NewCoveragePlanBuilder(ns).Build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			_, err = commands.Execute(tt.c, cmd)
			if !errors.Is(err, coverage.ErrPlanUnavailable) {
				t.Errorf("Execute() error = %v, want ErrPlanUnavailable", err)
			}
		})
	}

	other := &fakeCluster{respond: func(req *common.Message) (*common.Message, error) {
		return nil, &cluster.TransportError{Op: req.MsgType, Code: store.RetCInternalError, Err: errors.New("down")}
	}}
	cmd, _ := NewCoveragePlanBuilder(ns).Build()
	if _, err := commands.Execute(other, cmd); errors.Is(err, coverage.ErrPlanUnavailable) || !cluster.HasCode(err, store.RetCInternalError) {
		t.Errorf("internal error mapped to %v", err)
	}
}

func TestFullScan(t *testing.T) {
	c := cmdtesting.NewLocalCluster(t, cmdtesting.WithRing(16, "n1", "n2"))
	want := fill(t, c, 40)

	other := query.NewNamespace("kv", "other")
	cmd, _ := datatypes.NewUpdateCounterBuilder(query.NewLocation(other, "key-000"), datatypes.NewCounterUpdate(1)).Build()
	if _, err := commands.Execute(c, cmd); err != nil {
		t.Fatalf("update error = %v", err)
	}

	got, err := FullScan(c, ns).Get()
	if err != nil {
		t.Fatalf("FullScan() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FullScan() = %v, want %v", got, want)
	}

	empty, err := FullScan(c, query.NewNamespace("kv", "empty")).Get()
	if err != nil || len(empty) != 0 {
		t.Errorf("FullScan() of an empty namespace = %v, %v", empty, err)
	}
}

func TestListKeysBuild(t *testing.T) {
	var mpe *commands.MissingParameterError
	if _, err := NewListKeysBuilder(ns, nil).Build(); !errors.As(err, &mpe) {
		t.Errorf("Build() without entry error = %v", err)
	}
	if _, err := NewCoveragePlanBuilder(query.Namespace{}).Build(); !errors.As(err, &mpe) {
		t.Errorf("Build() without namespace error = %v", err)
	}

	var ipe *commands.InvalidParameterError
	bad := &coverage.Entry{Endpoint: "n1", Token: coverage.Token{0}}
	if _, err := NewListKeysBuilder(ns, bad).Build(); !errors.As(err, &ipe) {
		t.Errorf("Build() with a broken token error = %v", err)
	}
}
