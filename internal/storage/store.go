package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/polysim/internal/analysis"
	"github.com/san-kum/polysim/internal/config"
	"github.com/san-kum/polysim/internal/export"
	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	momentsFile  = "moments.csv"
	seriesFile   = "series.json"
	runsFile     = "runs.json"
)

// ErrNotFound is returned when no stored ensemble matches an id.
var ErrNotFound = errors.New("storage: run not found")

// Store keeps one directory per ensemble under baseDir.
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
	ID        string             `json:"id"`
	Model     string             `json:"model"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      uint64             `json:"seed"`
	N         int                `json:"n"`
	TStop     float64            `json:"tstop"`
	Runs      int                `json:"runs"`
	Bins      int                `json:"bins"`
	Steps     int64              `json:"steps"`
	Elapsed   time.Duration      `json:"elapsed"`
	Rates     []string           `json:"rates"`
	Metrics   map[string]float64 `json:"metrics"`
	Config    *config.Config     `json:"config"`
}

// Series is the averaged output of an ensemble as stored on disk.
type Series struct {
	Grid     []float64       `json:"grid"`
	Mean     kinetics.Series `json:"mean"`
	Variance kinetics.Series `json:"variance"`
}

// Save writes the ensemble result and the configuration that produced it.
// It returns the new run id. Metadata is written last so a run only
// lists once all of its files exist; a failed save leaves nothing behind.
func (s *Store) Save(cfg *config.Config, rates []string, result *sim.EnsembleResult) (runID string, err error) {
	runID = uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
			runID = ""
		}
	}()

	if err := writeJSON(filepath.Join(runDir, seriesFile), Series{Grid: result.Grid, Mean: result.Mean, Variance: result.Variance}); err != nil {
		return "", err
	}
	if err := writeMoments(filepath.Join(runDir, momentsFile), result.Moments); err != nil {
		return "", err
	}
	if len(result.RawRuns) > 0 {
		if err := writeJSON(filepath.Join(runDir, runsFile), result.RawRuns); err != nil {
			return "", err
		}
	}

	meta := RunMetadata{
		ID:        runID,
		Model:     cfg.Kind.String(),
		Timestamp: time.Now(),
		Seed:      cfg.Seed,
		N:         cfg.N,
		TStop:     cfg.TStop,
		Runs:      result.Runs,
		Bins:      len(result.Grid),
		Steps:     result.Steps,
		Elapsed:   result.Elapsed,
		Rates:     rates,
		Metrics:   result.Metrics,
		Config:    cfg,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeMoments(path string, moments []analysis.Moments) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteMoments(f, moments); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns the stored runs, newest first.
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// Resolve expands a unique id prefix to a full run id.
func (s *Store) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	if _, err := uuid.Parse(prefix); err == nil {
		return prefix, nil
	}
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	var match string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("ambiguous run id %q matches %s and %s", prefix, match, entry.Name())
		}
		match = entry.Name()
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	return match, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := s.readJSON(runID, metadataFile, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	var series Series
	if err := s.readJSON(runID, seriesFile, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// LoadRuns returns the raw trajectories kept with the ensemble, if any.
func (s *Store) LoadRuns(runID string) ([]*sim.Trajectory, error) {
	var runs []*sim.Trajectory
	err := s.readJSON(runID, runsFile, &runs)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return runs, err
}

func (s *Store) readJSON(runID, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return err
	}
	return json.Unmarshal(data, v)
}

// LoadMoments reads moments.csv. Runs stored without it get moments
// estimated from the averaged series.
func (s *Store) LoadMoments(runID string) ([]analysis.Moments, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, momentsFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		series, err := s.LoadSeries(runID)
		if err != nil {
			return nil, err
		}
		return analysis.EstimateMoments(series.Mean, series.Variance), nil
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(export.MomentsHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []analysis.Moments{}, nil
	}

	out := make([]analysis.Moments, 0, len(records)-1)
	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("moments row %d column %s: %w", i+1, export.MomentsHeader[j], err)
			}
			vals[j] = v
		}
		out = append(out, analysis.Moments{
			T:       vals[0],
			Mass:    vals[1],
			Mass2:   vals[2]*vals[2] + vals[1]*vals[1],
			Number:  vals[3],
			Number2: vals[4]*vals[4] + vals[3]*vals[3],
			Length:  vals[5],
			Length2: vals[6]*vals[6] + vals[5]*vals[5],
		})
	}
	return out, nil
}
