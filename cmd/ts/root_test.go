package ts

import (
	"reflect"
	"testing"
	"time"

	"github.com/ValentinKolb/dCMD/lib/timeseries"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		in      string
		want    timeseries.ColumnDescription
		wantErr bool
	}{
		{"region:varchar:pk", timeseries.ColumnDescription{Name: "region", Type: timeseries.TypeVarchar, PartitionKey: true}, false},
		{"time:timestamp:pk,lk", timeseries.ColumnDescription{Name: "time", Type: timeseries.TypeTimestamp, PartitionKey: true, LocalKey: true}, false},
		{"temperature:double:null", timeseries.ColumnDescription{Name: "temperature", Type: timeseries.TypeDouble, Nullable: true}, false},
		{"weather:varchar", timeseries.ColumnDescription{Name: "weather", Type: timeseries.TypeVarchar}, false},
		{"weather", timeseries.ColumnDescription{}, true},
		{"weather:text", timeseries.ColumnDescription{}, true},
		{"weather:varchar:unique", timeseries.ColumnDescription{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseColumn(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseColumn(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseColumn(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCells(t *testing.T) {
	cells, err := parseCells([]string{
		"varchar:hash1",
		"timestamp:2024-01-01T00:00:00Z",
		"double:3.5",
		"sint64:-7",
		"boolean:true",
		"null:",
	})
	if err != nil {
		t.Fatalf("parseCells failed: %v", err)
	}

	want := []timeseries.Cell{
		timeseries.NewCell("hash1"),
		timeseries.NewTimestampCell(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		timeseries.NewDoubleCell(3.5),
		timeseries.NewSInt64Cell(-7),
		timeseries.NewBooleanCell(true),
		{},
	}
	if len(cells) != len(want) {
		t.Fatalf("expected %d cells, got %d", len(want), len(cells))
	}
	for i := range want {
		if !cells[i].Equal(want[i]) || cells[i].Type() != want[i].Type() {
			t.Errorf("cell %d: expected %v (%s), got %v (%s)", i, want[i], want[i].Type(), cells[i], cells[i].Type())
		}
	}

	for _, bad := range []string{"hash1", "double:abc", "text:x"} {
		if _, err := parseCells([]string{bad}); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}
