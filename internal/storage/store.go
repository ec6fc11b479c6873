package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/mbsim/internal/analysis"
	"github.com/san-kum/mbsim/internal/dynamo"
	"github.com/san-kum/mbsim/internal/physics"
	"github.com/san-kum/mbsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	speedsFile    = "speeds.csv"
	positionsFile = "positions.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes the ensemble a result came from.
type RunInfo struct {
	Name       string
	Mode       dynamo.Mode
	Param      float64
	Count      int
	DomainSize float64
	Seed       int64
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Mode        string             `json:"mode"`
	Param       float64            `json:"param"`
	Count       int                `json:"count"`
	DomainSize  float64            `json:"domain_size"`
	Dt          float64            `json:"dt"`
	Frames      int                `json:"frames"`
	Elapsed     float64            `json:"elapsed"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Theory      physics.Speeds     `json:"theory"`
	Summary     *analysis.Summary  `json:"summary,omitempty"`
	Reflections int64              `json:"reflections"`
	Impulse     float64            `json:"impulse"`
	Metrics     map[string]float64 `json:"metrics"`
}

// NewMetadata assembles metadata for result without writing anything.
func NewMetadata(id string, info RunInfo, result *sim.Result) RunMetadata {
	size := info.DomainSize
	if size == 0 {
		size = dynamo.DefaultDomainSize
	}
	meta := RunMetadata{
		ID:          id,
		Mode:        info.Mode.String(),
		Param:       info.Param,
		Count:       info.Count,
		DomainSize:  size,
		Dt:          dynamo.DefaultDt,
		Frames:      result.Frames,
		Elapsed:     result.Elapsed,
		Timestamp:   time.Now(),
		Seed:        info.Seed,
		Theory:      result.Theory,
		Reflections: result.Reflections,
		Impulse:     result.Impulse,
		Metrics:     result.Metrics,
	}
	if len(result.Speeds) > 0 {
		if scale, err := dynamo.Scale(info.Mode, info.Param); err == nil {
			if sum, err := analysis.Summarize(result.Speeds, physics.Maxwell{Scale: scale}); err == nil {
				meta.Summary = &sum
			}
		}
	}
	return meta
}

// Save writes metadata, final speeds and final positions into a new run
// directory and returns its ID. The ID is info.Name when set.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	runID := info.Name
	if runID == "" {
		runID = fmt.Sprintf("%s_%d", info.Mode, time.Now().UnixNano())
	}
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := NewMetadata(runID, info, result)
	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, speedsFile), func(w io.Writer) error {
		return WriteSpeedsCSV(w, result.Speeds)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, positionsFile), func(w io.Writer) error {
		return WritePositionsCSV(w, result.Positions)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteSpeedsCSV(out io.Writer, speeds []float64) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"particle", "speed"}); err != nil {
		return err
	}
	for i, v := range speeds {
		if err := w.Write([]string{strconv.Itoa(i), strconv.FormatFloat(v, 'f', 6, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WritePositionsCSV(out io.Writer, positions []r2.Vec) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"particle", "x", "y"}); err != nil {
		return err
	}
	for i, p := range positions {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(p.X, 'f', 6, 64),
			strconv.FormatFloat(p.Y, 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSpeeds(runID string) ([]float64, error) {
	records, err := s.readCSV(runID, speedsFile)
	if err != nil {
		return nil, err
	}

	speeds := make([]float64, 0, len(records))
	for _, record := range records {
		if len(record) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		speeds = append(speeds, v)
	}
	return speeds, nil
}

func (s *Store) LoadPositions(runID string) ([]r2.Vec, error) {
	records, err := s.readCSV(runID, positionsFile)
	if err != nil {
		return nil, err
	}

	positions := make([]r2.Vec, 0, len(records))
	for _, record := range records {
		if len(record) < 3 {
			continue
		}
		x, errX := strconv.ParseFloat(record[1], 64)
		y, errY := strconv.ParseFloat(record[2], 64)
		if errX != nil || errY != nil {
			continue
		}
		positions = append(positions, r2.Vec{X: x, Y: y})
	}
	return positions, nil
}

// readCSV returns the data rows of a run file without its header.
func (s *Store) readCSV(runID, name string) ([][]string, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]string{}, nil
	}
	return records[1:], nil
}
