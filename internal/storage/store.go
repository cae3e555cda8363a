// Package storage persists finished studies on disk: one directory per
// run holding metadata.json and trajectory.csv.
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

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/fopdt"
	"github.com/san-kum/pidlab/internal/metrics"
	"github.com/san-kum/pidlab/internal/sim"
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

// RunMetadata is the JSON record written next to each trajectory.
type RunMetadata struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Method     string         `json:"method"`
	Controller string         `json:"controller"`
	Integrator string         `json:"integrator"`
	Reference  float64        `json:"reference"`
	Horizon    float64        `json:"horizon"`
	Dt         float64        `json:"dt"`
	Identified fopdt.Model    `json:"identified"`
	Gains      GainsRecord    `json:"gains"`
	Metrics    metrics.Result `json:"metrics"`
}

// GainsRecord flattens control.Gains for JSON; Ti may be +Inf for a
// P controller, which encoding/json cannot carry, so it is stored as a
// string.
type GainsRecord struct {
	Kp string `json:"kp"`
	Ti string `json:"ti"`
	Td string `json:"td"`
}

func RecordGains(g control.Gains) GainsRecord {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return GainsRecord{Kp: f(g.Kp), Ti: f(g.Ti), Td: f(g.Td)}
}

// Gains parses the record back to numeric values.
func (r GainsRecord) Gains() (kp, ti, td float64, err error) {
	if kp, err = strconv.ParseFloat(r.Kp, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("storage: bad kp %q: %w", r.Kp, err)
	}
	if ti, err = strconv.ParseFloat(r.Ti, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("storage: bad ti %q: %w", r.Ti, err)
	}
	if td, err = strconv.ParseFloat(r.Td, 64); err != nil {
		return 0, 0, 0, fmt.Errorf("storage: bad td %q: %w", r.Td, err)
	}
	return kp, ti, td, nil
}

// Save writes one run directory and returns its ID.
func (s *Store) Save(meta RunMetadata, traj *sim.Trajectory) (string, error) {
	runID := fmt.Sprintf("%s_%d", meta.Method, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteTrajectoryCSV(csvFile, traj); err != nil {
		return "", err
	}
	return runID, nil
}

// WriteTrajectoryCSV writes time, output and (when present) control
// columns. It is also used by the export command for bare CSV output.
func WriteTrajectoryCSV(out io.Writer, traj *sim.Trajectory) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{"time", "output"}
	if traj.Control != nil {
		header = append(header, "control")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range traj.Time {
		row := []string{
			strconv.FormatFloat(traj.Time[i], 'f', 6, 64),
			strconv.FormatFloat(traj.Output[i], 'f', 6, 64),
		}
		if traj.Control != nil {
			row = append(row, strconv.FormatFloat(traj.Control[i], 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// List returns the metadata of every stored run, newest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrajectory reads a stored run's trajectory back. The reference
// is restored from the metadata by callers that need it.
func (s *Store) LoadTrajectory(runID string) (*sim.Trajectory, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("storage: run %s has an empty trajectory", runID)
	}

	hasControl := len(records[0]) >= 3
	traj := &sim.Trajectory{}
	for _, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: run %s: bad time value %q: %w", runID, record[0], err)
		}
		y, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: run %s: bad output value %q: %w", runID, record[1], err)
		}
		traj.Time = append(traj.Time, t)
		traj.Output = append(traj.Output, y)
		if hasControl {
			u, err := strconv.ParseFloat(record[2], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: run %s: bad control value %q: %w", runID, record[2], err)
			}
			traj.Control = append(traj.Control, u)
		}
	}
	return traj, nil
}
