package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/mbsim/internal/sim"
)

type ExportData struct {
	RunMetadata
	Speeds    []float64    `json:"speeds"`
	Positions [][2]float64 `json:"positions"`
}

func NewExportData(meta RunMetadata, result *sim.Result) ExportData {
	data := ExportData{
		RunMetadata: meta,
		Speeds:      result.Speeds,
		Positions:   make([][2]float64, len(result.Positions)),
	}
	for i, p := range result.Positions {
		data.Positions[i] = [2]float64{p.X, p.Y}
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, info RunInfo, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, NewExportData(NewMetadata(info.Name, info, result), result))
}

// Export reassembles a saved run into its export form.
func (s *Store) Export(runID string) (ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return ExportData{}, err
	}
	speeds, err := s.LoadSpeeds(runID)
	if err != nil {
		return ExportData{}, err
	}
	positions, err := s.LoadPositions(runID)
	if err != nil {
		return ExportData{}, err
	}
	return NewExportData(*meta, &sim.Result{Speeds: speeds, Positions: positions}), nil
}
