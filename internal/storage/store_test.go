package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/swarmsim/internal/config"
	"github.com/san-kum/swarmsim/internal/metrics"
)

func testSamples() []metrics.Sample {
	return []metrics.Sample{
		{Frame: 0, KinematicsUS: 120, DensityUS: 80, CompositeUS: 40, TotalUS: 240, InRange: 1000},
		{Frame: 1, KinematicsUS: 110, TotalUS: 200, InRange: 998, InlineJobs: 1, Skipped: true},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta := RunMetadata{
		Preset:  "classic",
		Frames:  2,
		Kernel:  "lanes",
		Workers: 4,
		Config:  config.GetPreset("classic"),
		Metrics: map[string]float64{"frame_ms": 0.22},
	}

	runID, err := st.Save(meta, testSamples())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	got, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Preset != "classic" || got.Kernel != "lanes" || got.Workers != 4 {
		t.Errorf("metadata = %+v", got)
	}
	if got.Metrics["frame_ms"] != 0.22 {
		t.Errorf("frame_ms = %v", got.Metrics["frame_ms"])
	}
	if got.Config == nil || *got.Config != *config.GetPreset("classic") {
		t.Errorf("config did not survive: %+v", got.Config)
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	want := testSamples()
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %+v, want %+v", i, samples[i], want[i])
		}
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		meta := RunMetadata{Preset: "default", Timestamp: base.Add(time.Duration(i) * time.Hour)}
		if _, err := st.Save(meta, nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if !runs[0].Timestamp.After(runs[2].Timestamp) {
		t.Error("runs not sorted newest first")
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(RunMetadata{}, nil)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "frames.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	samples, err := st.LoadSamples(runID)
	if err != nil || len(samples) != 0 {
		t.Errorf("empty run: samples=%v err=%v", samples, err)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, RunMetadata{ID: "x", Frames: 2}, testSamples()); err != nil {
		t.Fatal(err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Run.ID != "x" || len(got.Samples) != 2 {
		t.Errorf("export = %+v", got)
	}

	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, RunMetadata{ID: "y"}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error(err)
	}
}
