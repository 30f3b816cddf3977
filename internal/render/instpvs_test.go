package render

import (
	"testing"

	"github.com/beamline-io/dataweb/internal/model"
)

func TestHumanizeSeconds(t *testing.T) {
	cases := []struct {
		value string
		want  string
	}{
		{"42", "42 s"},
		{"59", "59 s"},
		{"60", "1 min 0 s"},
		{"125", "2 min 5 s"},
		{"3600", "1 hr 0 min 0 s"},
		{"3725", "1 hr 2 min 5 s"},
		{"2 min 5 s", "2 min 5 s"}, // already humanized
		{"", ""},
	}
	for _, tc := range cases {
		b := model.Block{Value: tc.value, Status: model.StatusConnected, Visibility: true}
		if got := humanizeSeconds(b); got != tc.want {
			t.Errorf("humanizeSeconds(%q) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestHumanizeSecondsSkipsDisconnected(t *testing.T) {
	b := model.Block{Value: "42", Status: model.StatusDisconnected}
	if got := humanizeSeconds(b); got != "42" {
		t.Errorf("disconnected duration rewritten to %q", got)
	}
}

func TestDurationPVsHumanizedInPanels(t *testing.T) {
	snap := &model.Snapshot{
		InstPVs: map[string]model.Block{
			"RUNDURATION": {Value: "125", Status: model.StatusConnected, Visibility: true},
		},
	}
	d := Build(snap, Options{ShowPrivate: true})

	row, ok := findRow(d.TimeInfo, "Total Run Time")
	if !ok {
		t.Fatalf("Total Run Time missing from time panel")
	}
	if row.Value != "2 min 5 s" {
		t.Errorf("panel duration = %q, want humanized", row.Value)
	}

	row, ok = findRow(d.InstPVs, "Total Run Time")
	if !ok {
		t.Fatalf("Total Run Time missing from instrument PVs")
	}
	if row.Value != "2 min 5 s" {
		t.Errorf("list duration = %q, want humanized", row.Value)
	}
}
