package storage

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/orbitsim/internal/nbody"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func sampleRun(t *testing.T) Run {
	t.Helper()

	bodies := nbody.Bodies{
		{Name: "Body1", Mass: 5e10},
		{Name: "Body2", Mass: 5e10, Position: nbody.Vector3{Y: 1e5}},
	}
	cfg := nbody.Config{Dt: 1, Steps: 100, ReportFrequency: 10}

	res, err := nbody.Run(context.Background(), bodies, cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	return Run{
		Config:  cfg,
		Seed:    42,
		Initial: res.Initial,
		History: res.History,
		Metrics: map[string]float64{"energy_drift": 1.5e-9, "min_separation": math.Inf(1)},
		Plot:    []byte("<svg/>"),
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	st.now = fixedClock(time.Date(2024, 3, 7, 14, 5, 0, 0, time.UTC))

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run := sampleRun(t)
	runID, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID != "run_24-03-07-14-05" {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Samples != 9 {
		t.Errorf("expected 9 samples, got %d", meta.Samples)
	}
	if meta.Metrics["energy_drift"] != 1.5e-9 {
		t.Errorf("expected energy_drift 1.5e-9, got %g", meta.Metrics["energy_drift"])
	}
	if _, ok := meta.Metrics["min_separation"]; ok {
		t.Error("non-finite metric should not be stored")
	}
	if meta.LogFile != "orbits_24-03-07-14-05.txt" || meta.PlotFile != "orbits_24-03-07-14-05.svg" {
		t.Errorf("unexpected artifact names: %s %s", meta.LogFile, meta.PlotFile)
	}

	history, err := st.LoadHistory(runID)
	if err != nil {
		t.Fatalf("load history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 trajectories, got %d", len(history))
	}
	for i, tr := range history {
		want := run.History[i]
		if tr.Name != want.Name || tr.Len() != want.Len() {
			t.Fatalf("trajectory %d: got %s/%d, want %s/%d", i, tr.Name, tr.Len(), want.Name, want.Len())
		}
		for k := 0; k < tr.Len(); k++ {
			if tr.Point(k) != want.Point(k) {
				t.Errorf("trajectory %d sample %d: got %v, want %v", i, k, tr.Point(k), want.Point(k))
			}
		}
	}

	initial, cfg, err := st.LoadInitial(runID)
	if err != nil {
		t.Fatalf("load initial failed: %v", err)
	}
	if cfg != run.Config {
		t.Errorf("config = %+v, want %+v", cfg, run.Config)
	}
	for i := range initial {
		if initial[i] != run.Initial[i] {
			t.Errorf("initial body %d = %+v, want %+v", i, initial[i], run.Initial[i])
		}
	}
}

func TestStoreSameMinute(t *testing.T) {
	st := New(t.TempDir())
	st.now = fixedClock(time.Date(2024, 3, 7, 14, 5, 0, 0, time.UTC))
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run := sampleRun(t)
	first, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct run ids")
	}
	if second != first+"_2" {
		t.Errorf("unexpected second id %q", second)
	}

	m1, err := st.Load(first)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := st.Load(second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(m1.UUID); err != nil {
		t.Errorf("bad uuid %q: %v", m1.UUID, err)
	}
	if m1.UUID == m2.UUID {
		t.Error("runs in the same minute share a uuid")
	}
}

func TestStoreSaveFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	st.now = fixedClock(time.Date(2024, 3, 7, 14, 5, 0, 0, time.UTC))
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	// encoding/json rejects NaN, so the metadata write fails after every
	// other file is already on disk.
	run := sampleRun(t)
	run.Config.Dt = math.NaN()
	if _, err := st.Save(run); err == nil {
		t.Fatal("expected save to fail")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("failed save left %d entries behind", len(entries))
	}

	run.Config.Dt = 1
	runID, err := st.Save(run)
	if err != nil {
		t.Fatalf("save after failure: %v", err)
	}
	if runID != "run_24-03-07-14-05" {
		t.Errorf("expected the freed id to be reused, got %s", runID)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(sampleRun(t)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("run_nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	st.now = fixedClock(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC))

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(sampleRun(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{
		"metadata.json",
		"trajectories.csv",
		"config.yaml",
		"orbits_25-12-31-23-59.txt",
		"orbits_25-12-31-23-59.svg",
	} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	logPath, err := st.LogPath(runID)
	if err != nil {
		t.Fatalf("log path failed: %v", err)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "Name: Body1\nMass: 5e+10\n") {
		t.Errorf("unexpected log header: %q", string(data[:40]))
	}
}

func TestWriteLog(t *testing.T) {
	initial := nbody.Bodies{
		{Name: "a", Mass: 1, Position: nbody.Vector3{X: 1}},
		{Name: "b", Mass: 2},
	}
	history := nbody.NewHistory(initial, 2)
	history[0].Append(nbody.Vector3{X: 1.5, Y: 0, Z: -2})
	history[0].Append(nbody.Vector3{X: 2, Y: 0.25, Z: 0})

	var buf bytes.Buffer
	if err := WriteLog(&buf, initial, history); err != nil {
		t.Fatalf("write log failed: %v", err)
	}

	expected := "Name: a\nMass: 1\nInitial Position: (1,0,0)\nInitial Velocity: (0,0,0)\n" +
		"Name: b\nMass: 2\nInitial Position: (0,0,0)\nInitial Velocity: (0,0,0)\n" +
		"a\n[(1.5, 0, -2), (2, 0.25, 0)]\n" +
		"b\n[]\n"
	if buf.String() != expected {
		t.Errorf("log mismatch:\n got %q\nwant %q", buf.String(), expected)
	}
}

func TestReadCSV_BadRows(t *testing.T) {
	bodies := nbody.Bodies{{Name: "a"}}
	tests := []struct {
		name string
		data string
	}{
		{"bad index", "body,name,sample,x,y,z\n5,a,0,1,2,3\n"},
		{"bad float", "body,name,sample,x,y,z\n0,a,0,1,oops,3\n"},
		{"short row", "body,name,sample,x,y,z\n0,a,0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.data), bodies); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExportJSON(t *testing.T) {
	run := sampleRun(t)
	meta := &RunMetadata{ID: "run_x", Dt: 1, Steps: 100, ReportFrequency: 10, Metrics: map[string]float64{}}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, NewExportData(meta, run.Initial, run.History)); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"id": "run_x"`, `"name": "Body2"`, `"samples": [`} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %s", want)
		}
	}
}
