package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/physics"
	"github.com/san-kum/mbsim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Frames:    10,
		Elapsed:   0.3,
		Speeds:    []float64{1.25, 0.5, 2.0},
		Positions: []r2.Vec{{X: 1, Y: 2}, {X: 3.5, Y: 0.25}, {X: 15.1, Y: 7}},
		Theory:    physics.Speeds{MostProbable: 1.414214, Mean: 1.595769, RMS: 1.732051},
		Metrics: map[string]float64{
			"mean_speed": 1.25,
		},
		Reflections: 4,
		Impulse:     6.5,
	}
}

func testInfo() RunInfo {
	return RunInfo{Mode: dynamo.Temperature, Param: 1, Count: 3, Seed: 42}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testInfo(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !strings.HasPrefix(runID, "temperature_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Mode != "temperature" || meta.Seed != 42 || meta.Count != 3 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.DomainSize != dynamo.DefaultDomainSize || meta.Dt != dynamo.DefaultDt {
		t.Errorf("expected default geometry, got size %v dt %v", meta.DomainSize, meta.Dt)
	}
	if meta.Metrics["mean_speed"] != 1.25 {
		t.Errorf("expected mean_speed 1.25, got %f", meta.Metrics["mean_speed"])
	}
	if meta.Summary == nil || meta.Summary.N != 3 {
		t.Errorf("expected a summary of 3 speeds, got %+v", meta.Summary)
	}

	speeds, err := st.LoadSpeeds(runID)
	if err != nil {
		t.Fatalf("load speeds failed: %v", err)
	}
	if len(speeds) != 3 || speeds[0] != 1.25 || speeds[2] != 2 {
		t.Errorf("unexpected speeds %v", speeds)
	}

	positions, err := st.LoadPositions(runID)
	if err != nil {
		t.Fatalf("load positions failed: %v", err)
	}
	if len(positions) != 3 || positions[1] != (r2.Vec{X: 3.5, Y: 0.25}) {
		t.Errorf("unexpected positions %v", positions)
	}
}

func TestStoreNamedRun(t *testing.T) {
	st := New(t.TempDir())

	info := testInfo()
	info.Name = "baseline"
	runID, err := st.Save(info, testResult())
	if err != nil {
		t.Fatal(err)
	}
	if runID != "baseline" {
		t.Errorf("expected run id baseline, got %s", runID)
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

	for _, name := range []string{"a", "b"} {
		info := testInfo()
		info.Name = name
		if _, err := st.Save(info, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreList_MissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v (%v)", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(testInfo(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, speedsFile, positionsFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestWriteSpeedsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSpeedsCSV(&buf, []float64{0.5, 1}); err != nil {
		t.Fatal(err)
	}
	want := "particle,speed\n0,0.500000\n1,1.000000\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	info := testInfo()
	info.Name = "export"

	if err := ExportJSON(path, info, testResult()); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if data.ID != "export" || len(data.Speeds) != 3 || data.Positions[2] != [2]float64{15.1, 7} {
		t.Errorf("unexpected export %+v", data)
	}
	if data.Theory.Mean != 1.595769 {
		t.Errorf("theory not exported: %+v", data.Theory)
	}
}

func TestStoreExport(t *testing.T) {
	st := New(t.TempDir())
	info := testInfo()
	info.Name = "saved"
	if _, err := st.Save(info, testResult()); err != nil {
		t.Fatal(err)
	}

	data, err := st.Export("saved")
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if data.ID != "saved" || len(data.Speeds) != 3 || data.Speeds[0] != 1.25 {
		t.Errorf("unexpected export %+v", data)
	}
	if data.Positions[2] != [2]float64{15.1, 7} {
		t.Errorf("unexpected positions %v", data.Positions)
	}

	if _, err := st.Export("missing"); err == nil {
		t.Error("expected error for missing run")
	}
}
