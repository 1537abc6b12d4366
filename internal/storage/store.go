// Package storage lays runs out on disk: one directory per run under a
// data directory, holding metadata.json, movie frames, the trace, and
// the resume checkpoint.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/dosim/internal/config"
	"github.com/san-kum/dosim/internal/mc"
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
	ID        string         `json:"id"`
	System    string         `json:"system"`
	Method    string         `json:"method"`
	Seed      uint64         `json:"seed"`
	MaxMoves  uint64         `json:"max_moves"`
	Timestamp time.Time      `json:"timestamp"`
	Config    *config.Config `json:"config"`
}

// Run is an open run directory.
type Run struct {
	Meta RunMetadata
	dir  string
}

// Create makes a fresh run directory named <system>_<unix-seconds> and
// writes its metadata.
func (s *Store) Create(cfg *config.Config) (*Run, error) {
	if err := s.Init(); err != nil {
		return nil, err
	}
	runID := fmt.Sprintf("%s_%d", cfg.System, time.Now().Unix())
	dir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	r := &Run{
		Meta: RunMetadata{
			ID:        runID,
			System:    cfg.System,
			Method:    cfg.Method,
			Seed:      cfg.Seed,
			MaxMoves:  cfg.Moves,
			Timestamp: time.Now(),
			Config:    cfg,
		},
		dir: dir,
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), r.Meta); err != nil {
		return nil, err
	}
	return r, nil
}

// Open loads an existing run by ID.
func (s *Store) Open(runID string) (*Run, error) {
	dir := filepath.Join(s.baseDir, runID)
	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return nil, fmt.Errorf("storage: open run %s: %w", runID, err)
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: open run %s: %w", runID, err)
	}
	return &Run{Meta: meta, dir: dir}, nil
}

// List returns every readable run's metadata; unreadable entries are
// skipped.
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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
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

func (r *Run) Dir() string { return r.dir }

func (r *Run) MovieDir() string { return filepath.Join(r.dir, "movie") }

func (r *Run) TracePath() string { return filepath.Join(r.dir, "trace.csv") }

func (r *Run) checkpointPath() string { return filepath.Join(r.dir, "resume.json") }

// WriteCheckpoint replaces the run's resume file atomically, so a
// checkpoint read never sees a half-written file.
func (r *Run) WriteCheckpoint(ck *mc.Checkpoint) error {
	tmp := r.checkpointPath() + ".tmp"
	if err := writeJSON(tmp, ck); err != nil {
		return err
	}
	return os.Rename(tmp, r.checkpointPath())
}

func (r *Run) ReadCheckpoint() (*mc.Checkpoint, error) {
	data, err := os.ReadFile(r.checkpointPath())
	if err != nil {
		return nil, fmt.Errorf("storage: read checkpoint: %w", err)
	}
	var ck mc.Checkpoint
	if err := json.Unmarshal(data, &ck); err != nil {
		return nil, fmt.Errorf("storage: parse checkpoint: %w", err)
	}
	return &ck, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
