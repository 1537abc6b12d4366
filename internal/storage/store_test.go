package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/dosim/internal/config"
	"github.com/san-kum/dosim/internal/mc"
)

func TestCreateOpenList(t *testing.T) {
	s := New(t.TempDir())
	cfg := config.Default()
	cfg.Seed = 11

	run, err := s.Create(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if run.Meta.System != "squarewell" || run.Meta.Seed != 11 {
		t.Errorf("metadata %+v", run.Meta)
	}

	opened, err := s.Open(run.Meta.ID)
	if err != nil {
		t.Fatal(err)
	}
	if opened.Meta.ID != run.Meta.ID || opened.Meta.Config.Seed != 11 {
		t.Errorf("opened metadata %+v", opened.Meta)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != run.Meta.ID {
		t.Errorf("list = %+v", runs)
	}
}

func TestListSkipsBrokenEntries(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if _, err := s.Create(config.Default()); err != nil {
		t.Fatal(err)
	}

	// A directory without metadata and one with garbage metadata must
	// both be skipped silently.
	if err := os.MkdirAll(filepath.Join(dir, "empty_1"), 0755); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken_2")
	if err := os.MkdirAll(broken, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(broken, "metadata.json"), []byte("{nope"), 0644); err != nil {
		t.Fatal(err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("list found %d runs, want 1", len(runs))
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	run, err := s.Create(config.Default())
	if err != nil {
		t.Fatal(err)
	}

	ck := &mc.Checkpoint{
		SystemName: "squarewell",
		Moves:      1234,
		Bins: &mc.Bins{
			Min: -3, Width: 1, NumE: 2, MaxN: 0,
			Histogram: []uint64{3, 4},
			LnW:       []float64{0.5, 1.25},
		},
	}
	// Checkpoints without rng/system slices still round-trip their
	// scalar fields; full restores are covered in the mc package.
	if err := run.WriteCheckpoint(ck); err != nil {
		t.Fatal(err)
	}

	got, err := run.ReadCheckpoint()
	if err != nil {
		t.Fatal(err)
	}
	if got.Moves != 1234 || got.Bins.Min != -3 || got.Bins.LnW[1] != 1.25 {
		t.Errorf("checkpoint came back as %+v", got)
	}

	// No stray temp file left behind.
	if _, err := os.Stat(run.checkpointPath() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary checkpoint file still present")
	}
}

func TestLatestFrameAndReadFrame(t *testing.T) {
	s := New(t.TempDir())
	run, err := s.Create(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(run.MovieDir(), 0755); err != nil {
		t.Fatal(err)
	}

	early := "0.5\t1.5\t\n1\t2\n"
	late := "0.5\t1.5\t\n3\t4\n5\t6\n"
	if err := os.WriteFile(filepath.Join(run.MovieDir(), "S-0000000000000001.dat"), []byte(early), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(run.MovieDir(), "S-0000000000000016.dat"), []byte(late), 0644); err != nil {
		t.Fatal(err)
	}

	frame, err := run.LatestFrame("S")
	if err != nil {
		t.Fatal(err)
	}
	if frame.Moves != 16 {
		t.Errorf("latest frame at move %d, want 16", frame.Moves)
	}
	if len(frame.Energies) != 2 || frame.Energies[1] != 1.5 {
		t.Errorf("energies = %v", frame.Energies)
	}
	if len(frame.Rows) != 2 || frame.Rows[1][0] != 5 {
		t.Errorf("rows = %v", frame.Rows)
	}

	if _, err := run.LatestFrame("h"); err == nil {
		t.Error("expected an error with no h frames present")
	}
}

func TestReadTrace(t *testing.T) {
	s := New(t.TempDir())
	run, err := s.Create(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	data := "moves,energy,natoms\n10,-1.5,2\n20,-3,4\n"
	if err := os.WriteFile(run.TracePath(), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	moves, energy, natoms, err := run.ReadTrace()
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) != 2 || moves[1] != 20 || energy[0] != -1.5 || natoms[1] != 4 {
		t.Errorf("trace = %v %v %v", moves, energy, natoms)
	}
}
