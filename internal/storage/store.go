package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/nbody"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectories.csv"
	configFile     = "config.yaml"

	stampLayout = "06-01-02-15-04"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// Run is everything a finished simulation hands to storage.
type Run struct {
	Config  nbody.Config
	Seed    int64
	Initial nbody.Bodies
	History nbody.History
	Metrics map[string]float64
	// Plot, when set, is written next to the log as orbits_<stamp>.svg.
	Plot []byte
}

type RunMetadata struct {
	ID              string             `json:"id"`
	UUID            string             `json:"uuid"`
	Stamp           string             `json:"stamp"`
	Timestamp       time.Time          `json:"timestamp"`
	Seed            int64              `json:"seed"`
	Dt              float64            `json:"dt"`
	Steps           int                `json:"steps"`
	ReportFrequency int                `json:"report_frequency"`
	Bodies          []string           `json:"bodies"`
	Samples         int                `json:"samples"`
	Metrics         map[string]float64 `json:"metrics"`
	LogFile         string             `json:"log_file"`
	PlotFile        string             `json:"plot_file,omitempty"`
}

// Save writes a run directory named run_<yy-mm-dd-HH-MM>. Runs started within
// the same minute get a numeric suffix.
func (s *Store) Save(run Run) (string, error) {
	ts := s.now()
	stamp := ts.Format(stampLayout)

	runID, err := s.allocate("run_" + stamp)
	if err != nil {
		return "", err
	}
	runDir := s.Dir(runID)

	meta := RunMetadata{
		ID:              runID,
		UUID:            uuid.NewString(),
		Stamp:           stamp,
		Timestamp:       ts,
		Seed:            run.Seed,
		Dt:              run.Config.Dt,
		Steps:           run.Config.Steps,
		ReportFrequency: run.Config.ReportFrequency,
		Bodies:          run.Initial.Names(),
		Metrics:         finite(run.Metrics),
		LogFile:         fmt.Sprintf("orbits_%s.txt", stamp),
	}
	if len(run.History) > 0 {
		meta.Samples = run.History[0].Len()
	}
	if run.Plot != nil {
		meta.PlotFile = fmt.Sprintf("orbits_%s.svg", stamp)
	}

	if err := writeRun(runDir, meta, run); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}

	return runID, nil
}

// writeRun fills an allocated run directory. Save removes the directory when
// any write fails so List never sees a partial run.
func writeRun(runDir string, meta RunMetadata, run Run) error {
	if meta.PlotFile != "" {
		if err := os.WriteFile(filepath.Join(runDir, meta.PlotFile), run.Plot, 0644); err != nil {
			return err
		}
	}

	if err := writeFile(filepath.Join(runDir, meta.LogFile), func(w io.Writer) error {
		return WriteLog(w, run.Initial, run.History)
	}); err != nil {
		return err
	}

	if err := writeFile(filepath.Join(runDir, trajectoryFile), func(w io.Writer) error {
		return WriteCSV(w, run.History)
	}); err != nil {
		return err
	}

	if err := config.Save(filepath.Join(runDir, configFile), config.FromBodies(run.Initial, run.Config, run.Seed)); err != nil {
		return err
	}

	return writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
}

func (s *Store) allocate(base string) (string, error) {
	id := base
	for n := 2; ; n++ {
		err := os.Mkdir(s.Dir(id), 0755)
		if err == nil {
			return id, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
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

// finite drops NaN and Inf values, which encoding/json cannot represent.
func finite(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
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

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadInitial returns the body list the run started from.
func (s *Store) LoadInitial(runID string) (nbody.Bodies, nbody.Config, error) {
	cfg, err := config.Load(filepath.Join(s.Dir(runID), configFile))
	if err != nil {
		return nil, nbody.Config{}, err
	}
	bodies, err := cfg.BuildBodies()
	if err != nil {
		return nil, nbody.Config{}, err
	}
	return bodies, cfg.NBodyConfig(), nil
}

// LoadHistory rebuilds the trajectory history in the body order recorded at save time.
func (s *Store) LoadHistory(runID string) (nbody.History, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.Dir(runID), trajectoryFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	bodies := make(nbody.Bodies, len(meta.Bodies))
	for i, name := range meta.Bodies {
		bodies[i].Name = name
	}
	return ReadCSV(file, bodies)
}

// LogPath returns the path of the run's text log.
func (s *Store) LogPath(runID string) (string, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.Dir(runID), meta.LogFile), nil
}

// WriteCSV writes one row per sample: body index, body name, sample index, x, y, z.
func WriteCSV(w io.Writer, history nbody.History) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"body", "name", "sample", "x", "y", "z"}); err != nil {
		return err
	}

	for b, tr := range history {
		for i := 0; i < tr.Len(); i++ {
			row := []string{
				strconv.Itoa(b),
				tr.Name,
				strconv.Itoa(i),
				formatFloat(tr.X[i]),
				formatFloat(tr.Y[i]),
				formatFloat(tr.Z[i]),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses rows written by WriteCSV into a history shaped after bodies.
func ReadCSV(r io.Reader, bodies nbody.Bodies) (nbody.History, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	history := nbody.NewHistory(bodies, 0)
	for n, record := range records {
		if n == 0 {
			continue
		}

		b, err := strconv.Atoi(record[0])
		if err != nil || b < 0 || b >= len(history) {
			return nil, fmt.Errorf("row %d: bad body index %q", n, record[0])
		}

		var p nbody.Vector3
		for k, dst := range []*float64{&p.X, &p.Y, &p.Z} {
			v, err := strconv.ParseFloat(record[3+k], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", n, err)
			}
			*dst = v
		}
		history[b].Append(p)
	}

	return history, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
