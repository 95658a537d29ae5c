package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/orbitsim/internal/nbody"
)

type ExportData struct {
	ID              string             `json:"id"`
	UUID            string             `json:"uuid"`
	Dt              float64            `json:"dt"`
	Steps           int                `json:"steps"`
	ReportFrequency int                `json:"report_frequency"`
	Bodies          []ExportBody       `json:"bodies"`
	Metrics         map[string]float64 `json:"metrics"`
}

type ExportBody struct {
	Name     string       `json:"name"`
	Mass     float64      `json:"mass"`
	Position [3]float64   `json:"position"`
	Velocity [3]float64   `json:"velocity"`
	Samples  [][3]float64 `json:"samples"`
}

func NewExportData(meta *RunMetadata, initial nbody.Bodies, history nbody.History) *ExportData {
	data := &ExportData{
		ID:              meta.ID,
		UUID:            meta.UUID,
		Dt:              meta.Dt,
		Steps:           meta.Steps,
		ReportFrequency: meta.ReportFrequency,
		Bodies:          make([]ExportBody, len(initial)),
		Metrics:         meta.Metrics,
	}

	for i, b := range initial {
		eb := ExportBody{
			Name:     b.Name,
			Mass:     b.Mass,
			Position: [3]float64{b.Position.X, b.Position.Y, b.Position.Z},
			Velocity: [3]float64{b.Velocity.X, b.Velocity.Y, b.Velocity.Z},
			Samples:  [][3]float64{},
		}
		if i < len(history) {
			tr := history[i]
			for k := 0; k < tr.Len(); k++ {
				eb.Samples = append(eb.Samples, [3]float64{tr.X[k], tr.Y[k], tr.Z[k]})
			}
		}
		data.Bodies[i] = eb
	}

	return data
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
