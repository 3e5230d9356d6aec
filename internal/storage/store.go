package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mlowitz/modetrack/internal/track"
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

type RunMetadata struct {
	ID         string             `json:"id"`
	System     string             `json:"system"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Window     int                `json:"window"`
	Forgetting float64            `json:"forgetting"`
	Steps      int                `json:"steps"`
	Skipped    int                `json:"skipped"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes one tracking run under a fresh run directory: metadata.json
// with the run parameters and metrics, and modes.csv with the eigenvalue
// history, one row per estimate and a re/im column pair per mode.
func (s *Store) Save(system string, cfg track.Config, seed int64, result *track.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", system, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		System:     system,
		Timestamp:  time.Now(),
		Seed:       seed,
		Dt:         cfg.Dt,
		Window:     cfg.Window,
		Forgetting: cfg.Forgetting,
		Steps:      result.Steps,
		Skipped:    result.Skipped,
		Metrics:    result.Metrics,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "modes.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(result.Eigs) == 0 {
		return runID, nil
	}

	header := []string{"time", "residual"}
	for i := range result.Eigs[0] {
		header = append(header, fmt.Sprintf("re%d", i), fmt.Sprintf("im%d", i))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, eigs := range result.Eigs {
		row := []string{
			strconv.FormatFloat(result.Times[i], 'g', -1, 64),
			strconv.FormatFloat(result.Residuals[i], 'g', -1, 64),
		}
		for _, l := range eigs {
			row = append(row,
				strconv.FormatFloat(real(l), 'g', -1, 64),
				strconv.FormatFloat(imag(l), 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
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

// LoadModes reads back the eigenvalue history of a saved run.
func (s *Store) LoadModes(runID string) ([]float64, [][]complex128, []float64, error) {
	csvPath := filepath.Join(s.baseDir, runID, "modes.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}

	if len(records) < 2 {
		return []float64{}, [][]complex128{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	eigs := make([][]complex128, 0, len(records)-1)
	residuals := make([]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) < 2 || len(record)%2 != 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		res, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}

		modes := make([]complex128, 0, (len(record)-2)/2)
		ok := true
		for j := 2; j+1 < len(record); j += 2 {
			re, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				ok = false
				break
			}
			im, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				ok = false
				break
			}
			modes = append(modes, complex(re, im))
		}
		if !ok {
			continue
		}

		times = append(times, t)
		residuals = append(residuals, res)
		eigs = append(eigs, modes)
	}

	return times, eigs, residuals, nil
}
