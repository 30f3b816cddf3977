package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/beamline-io/dataweb/internal/archive"
	"github.com/beamline-io/dataweb/internal/config"
	"github.com/beamline-io/dataweb/internal/store"
)

type fakeArchive struct {
	mu      sync.Mutex
	records []*archive.Record
}

func (f *fakeArchive) Store(ctx context.Context, rec *archive.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeArchive) Latest(ctx context.Context, instrument string) (*archive.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].Instrument == instrument {
			return f.records[i], nil
		}
	}
	return nil, nil
}

func (f *fakeArchive) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.records)), nil
}

func (f *fakeArchive) Cleanup(ctx context.Context, maxAge time.Duration) error { return nil }

func (f *fakeArchive) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Poll: config.PollConfig{
			Interval:           10 * time.Millisecond,
			FailedInterval:     50 * time.Millisecond,
			Timeout:            time.Second,
			RetriesBetweenLogs: 60,
		},
		Archive: config.ArchiveConfig{MaxAge: time.Hour},
	}
}

func TestPollOnceStoresSnapshotAndArchives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"config_name":"demo_base","groups":{},"inst_pvs":{"RUNSTATE":{"value":"RUNNING","status":"Connected","alarm":"","visibility":true}}}`))
	}))
	defer srv.Close()

	inst := instrumentFor(t, srv, "DEMO")
	st := store.New([]string{"DEMO"})
	arch := &fakeArchive{}
	m := NewManager(testLogger(), testConfig(), []config.InstrumentConfig{inst}, NewClient(testLogger(), time.Second), st, arch)

	failures, tries := 0, 0
	m.pollOnce(context.Background(), inst, &failures, &tries)

	entry, ok := st.Get("DEMO")
	if !ok || !entry.Ok() {
		t.Fatalf("store entry = %+v ok=%v, want snapshot", entry, ok)
	}
	if entry.Snapshot.ConfigName != "demo_base" {
		t.Errorf("config name = %q", entry.Snapshot.ConfigName)
	}
	if entry.CycleID == "" {
		t.Errorf("cycle id not assigned")
	}
	if failures != 0 {
		t.Errorf("failures = %d after success", failures)
	}

	if len(arch.records) != 1 {
		t.Fatalf("archived %d records, want 1", len(arch.records))
	}
	if arch.records[0].RunState != "RUNNING" {
		t.Errorf("archived runstate = %q", arch.records[0].RunState)
	}
}

func TestPollOnceStoresErrorOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	inst := instrumentFor(t, srv, "DEMO")
	st := store.New([]string{"DEMO"})
	m := NewManager(testLogger(), testConfig(), []config.InstrumentConfig{inst}, NewClient(testLogger(), time.Second), st, nil)

	failures, tries := 0, 0
	m.pollOnce(context.Background(), inst, &failures, &tries)

	entry, ok := st.Get("DEMO")
	if !ok || entry.Ok() {
		t.Fatalf("store entry = %+v, want error state", entry)
	}
	if entry.Err == nil {
		t.Fatalf("entry error not set")
	}
	if entry.Target != Target(inst) {
		t.Errorf("target = %q, want %q", entry.Target, Target(inst))
	}
	if failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
}

func TestFailureCountResetsOnRecovery(t *testing.T) {
	healthy := false
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ok := healthy
		mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"config_name":"demo","groups":{},"inst_pvs":{}}`))
	}))
	defer srv.Close()

	inst := instrumentFor(t, srv, "DEMO")
	st := store.New([]string{"DEMO"})
	m := NewManager(testLogger(), testConfig(), []config.InstrumentConfig{inst}, NewClient(testLogger(), time.Second), st, nil)

	failures, tries := 0, 0
	m.pollOnce(context.Background(), inst, &failures, &tries)
	m.pollOnce(context.Background(), inst, &failures, &tries)
	if failures != 2 {
		t.Fatalf("failures = %d, want 2", failures)
	}

	mu.Lock()
	healthy = true
	mu.Unlock()

	m.pollOnce(context.Background(), inst, &failures, &tries)
	if failures != 0 || tries != 0 {
		t.Errorf("counters = %d/%d after recovery, want 0/0", failures, tries)
	}
	entry, _ := st.Get("DEMO")
	if !entry.Ok() {
		t.Errorf("entry still in error state after recovery")
	}
}

func TestManagerStartStop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"config_name":"demo","groups":{},"inst_pvs":{}}`))
	}))
	defer srv.Close()

	inst := instrumentFor(t, srv, "DEMO")
	st := store.New([]string{"DEMO"})
	m := NewManager(testLogger(), testConfig(), []config.InstrumentConfig{inst}, NewClient(testLogger(), time.Second), st, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if entry, _ := st.Get("DEMO"); entry.Ok() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("no snapshot stored before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}

	m.Stop()
}
