package store

import (
	"errors"
	"testing"

	"github.com/beamline-io/dataweb/internal/model"
)

func TestGetUnknownInstrument(t *testing.T) {
	s := New([]string{"DEMO"})
	if _, ok := s.Get("NOPE"); ok {
		t.Fatalf("unknown instrument reported as known")
	}
}

func TestGetBeforeFirstPoll(t *testing.T) {
	s := New([]string{"DEMO"})
	entry, ok := s.Get("DEMO")
	if !ok {
		t.Fatalf("configured instrument reported as unknown")
	}
	if entry.Ok() {
		t.Fatalf("empty entry reported as usable")
	}
}

func TestSetSnapshotSupersedesError(t *testing.T) {
	s := New([]string{"DEMO"})

	s.SetError("DEMO", "host:60000", errors.New("boom"))
	entry, _ := s.Get("DEMO")
	if entry.Ok() || entry.Err == nil {
		t.Fatalf("error entry = %+v", entry)
	}
	firstCycle := entry.CycleID

	snap := &model.Snapshot{ConfigName: "demo"}
	s.SetSnapshot("DEMO", "host:60000", snap)
	entry, _ = s.Get("DEMO")
	if !entry.Ok() {
		t.Fatalf("snapshot entry not usable: %+v", entry)
	}
	if entry.Err != nil {
		t.Errorf("stale error kept alongside snapshot")
	}
	if entry.CycleID == firstCycle || entry.CycleID == "" {
		t.Errorf("cycle id not refreshed: %q", entry.CycleID)
	}
}

func TestActiveMap(t *testing.T) {
	s := New([]string{"A", "B", "C"})
	s.SetSnapshot("A", "a:60000", &model.Snapshot{})
	s.SetError("B", "b:60000", errors.New("down"))

	active := s.ActiveMap()
	if !active["A"] || active["B"] || active["C"] {
		t.Errorf("active map = %v", active)
	}
}

func TestNamesKeepConfiguredOrder(t *testing.T) {
	s := New([]string{"ZOOM", "ALF", "IRIS"})
	names := s.Names()
	want := []string{"ZOOM", "ALF", "IRIS"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestLastFetch(t *testing.T) {
	s := New([]string{"A"})
	if !s.LastFetch().IsZero() {
		t.Fatalf("last fetch non-zero before any poll")
	}
	s.SetSnapshot("A", "a:60000", &model.Snapshot{})
	if s.LastFetch().IsZero() {
		t.Fatalf("last fetch still zero after poll")
	}
}
