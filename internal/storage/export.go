package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/mlowitz/modetrack/internal/track"
)

type ExportData struct {
	System     string             `json:"system"`
	Window     int                `json:"window"`
	Forgetting float64            `json:"forgetting"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	Skipped    int                `json:"skipped"`
	Times      []float64          `json:"times"`
	ModesRe    [][]float64        `json:"modes_re"`
	ModesIm    [][]float64        `json:"modes_im"`
	Residuals  []float64          `json:"residuals"`
	Metrics    map[string]float64 `json:"metrics"`
}

// newExportData flattens the eigenvalue history into parallel real and
// imaginary tables, since JSON has no complex number type.
func newExportData(system string, cfg track.Config, result *track.Result) ExportData {
	data := ExportData{
		System:     system,
		Window:     cfg.Window,
		Forgetting: cfg.Forgetting,
		Dt:         cfg.Dt,
		Steps:      result.Steps,
		Skipped:    result.Skipped,
		Times:      result.Times,
		ModesRe:    make([][]float64, len(result.Eigs)),
		ModesIm:    make([][]float64, len(result.Eigs)),
		Residuals:  result.Residuals,
		Metrics:    result.Metrics,
	}

	for i, eigs := range result.Eigs {
		re := make([]float64, len(eigs))
		im := make([]float64, len(eigs))
		for j, l := range eigs {
			re[j] = real(l)
			im[j] = imag(l)
		}
		data.ModesRe[i] = re
		data.ModesIm[i] = im
	}

	return data
}

func exportTo(w io.Writer, system string, cfg track.Config, result *track.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(system, cfg, result))
}

func ExportJSON(path, system string, cfg track.Config, result *track.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return exportTo(file, system, cfg, result)
}

func ExportJSONStdout(system string, cfg track.Config, result *track.Result) error {
	return exportTo(os.Stdout, system, cfg, result)
}
