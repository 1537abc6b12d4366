package diag

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/dosim/internal/mc"
	"github.com/san-kum/dosim/internal/rng"
)

// stubSystem satisfies mc.System without proposing any moves; hook
// tests drive the sampler state by hand.
type stubSystem struct {
	E float64 `json:"e"`
	N int     `json:"n"`
}

func (s *stubSystem) Energy() float64                           { return s.E }
func (s *stubSystem) NumAtoms() int                             { return s.N }
func (s *stubSystem) DeltaEnergy() (float64, bool)              { return 1, true }
func (s *stubSystem) PlanMove(*rng.Source, float64) (float64, bool) { return 0, false }
func (s *stubSystem) PlanAdd(*rng.Source) (float64, bool)       { return 0, false }
func (s *stubSystem) PlanRemove(*rng.Source) float64            { return 0 }
func (s *stubSystem) Confirm()                                  {}

func newTestSampler(t *testing.T) (*mc.Sampler, *stubSystem) {
	t.Helper()
	sys := &stubSystem{}
	s, err := mc.NewSampler(sys, mc.Params{Method: mc.MethodSAMC, T0: 1e6}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return s, sys
}

func TestMoviesFrameFormat(t *testing.T) {
	s, sys := newTestSampler(t)
	s.Moves = 1
	s.Bins = &mc.Bins{
		Min:       0,
		Width:     1,
		NumE:      3,
		MaxN:      1,
		LnW:       []float64{0.5, 1, 1.5, 2, 2.5, 3},
		Histogram: []uint64{1, 2, 3, 4, 5, 6},
	}

	dir := t.TempDir()
	m := NewMovies(dir, 2.0)
	act, err := m.Run(s, sys)
	if err != nil {
		t.Fatal(err)
	}
	if act != mc.ActionSave {
		t.Fatalf("action = %v, want ActionSave", act)
	}

	// One line of bin-center energies, then one line per atom count in
	// energy order.
	wantS := "0.5\t1.5\t2.5\t\n0.5\t1.5\t2.5\n1\t2\t3\n"
	gotS, err := os.ReadFile(filepath.Join(dir, "S-0000000000000001.dat"))
	if err != nil {
		t.Fatal(err)
	}
	if string(gotS) != wantS {
		t.Errorf("S frame:\n%q\nwant:\n%q", gotS, wantS)
	}

	wantH := "0.5\t1.5\t2.5\t\n1\t3\t5\n2\t4\t6\n"
	gotH, err := os.ReadFile(filepath.Join(dir, "h-0000000000000001.dat"))
	if err != nil {
		t.Fatal(err)
	}
	if string(gotH) != wantH {
		t.Errorf("h frame:\n%q\nwant:\n%q", gotH, wantH)
	}

	gamma, err := os.ReadFile(filepath.Join(dir, "gamma.dat"))
	if err != nil {
		t.Fatal(err)
	}
	if string(gamma) != "1\t1\n" {
		t.Errorf("gamma.dat = %q, want \"1\\t1\\n\"", gamma)
	}
}

func TestMoviesCadenceDoubles(t *testing.T) {
	s, sys := newTestSampler(t)
	dir := t.TempDir()
	m := NewMovies(dir, 2.0)

	var frames []uint64
	for s.Moves = 1; s.Moves <= 20; s.Moves++ {
		act, err := m.Run(s, sys)
		if err != nil {
			t.Fatal(err)
		}
		if act == mc.ActionSave {
			frames = append(frames, s.Moves)
		}
	}

	want := []uint64{1, 2, 4, 8, 16}
	if len(frames) != len(want) {
		t.Fatalf("frames at %v, want %v", frames, want)
	}
	for i := range want {
		if frames[i] != want[i] {
			t.Fatalf("frames at %v, want %v", frames, want)
		}
	}
}

func TestMoviesResumesSchedule(t *testing.T) {
	s, sys := newTestSampler(t)
	dir := t.TempDir()

	// A fresh hook on a run already at move 100 must not replay old
	// frames; base 2 puts the next frame at 128.
	m := NewMovies(dir, 2.0)
	for s.Moves = 100; s.Moves <= 200; s.Moves++ {
		act, err := m.Run(s, sys)
		if err != nil {
			t.Fatal(err)
		}
		if act == mc.ActionSave && s.Moves != 128 {
			t.Fatalf("frame written at move %d, want only 128", s.Moves)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "S-0000000000000128.dat")); err != nil {
		t.Error("expected a frame at move 128")
	}
}

func TestMoviesDisabled(t *testing.T) {
	s, sys := newTestSampler(t)
	m := NewMovies(t.TempDir(), 0)
	s.Moves = 1
	if act, err := m.Run(s, sys); err != nil || act != mc.ActionNone {
		t.Fatalf("disabled movies: act=%v err=%v", act, err)
	}
}

func TestSaverCadence(t *testing.T) {
	s, sys := newTestSampler(t)
	sv := &Saver{Every: 10}
	for s.Moves = 1; s.Moves <= 25; s.Moves++ {
		act, err := sv.Run(s, sys)
		if err != nil {
			t.Fatal(err)
		}
		want := mc.ActionNone
		if s.Moves%10 == 0 {
			want = mc.ActionSave
		}
		if act != want {
			t.Errorf("move %d: action %v, want %v", s.Moves, act, want)
		}
	}
}

func TestTraceAppendsRows(t *testing.T) {
	s, sys := newTestSampler(t)
	path := filepath.Join(t.TempDir(), "trace.csv")
	tr := &Trace{Path: path, Every: 5}

	sys.E, sys.N = -2.5, 3
	for s.Moves = 1; s.Moves <= 10; s.Moves++ {
		if _, err := tr.Run(s, sys); err != nil {
			t.Fatal(err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "moves,energy,natoms\n5,-2.5,3\n10,-2.5,3\n"
	if string(data) != want {
		t.Errorf("trace = %q, want %q", data, want)
	}
}

func TestReportLogsAtCadence(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	s, sys := newTestSampler(t)
	r := NewReport(2, log)

	s.Moves = 1
	if act, _ := r.Run(s, sys); act != mc.ActionNone {
		t.Fatal("off-cadence move must not log")
	}
	s.Moves = 2
	act, err := r.Run(s, sys)
	if err != nil {
		t.Fatal(err)
	}
	if act != mc.ActionLog {
		t.Fatalf("action = %v, want ActionLog", act)
	}

	r.Log(s, sys)
	out := buf.String()
	if !strings.Contains(out, "progress") || !strings.Contains(out, "moves=2") {
		t.Errorf("unexpected report output: %s", out)
	}
}
