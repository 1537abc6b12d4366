package mc

import (
	"math"
	"testing"
)

func TestStateIndexRoundTrip(t *testing.T) {
	grids := map[string]*Bins{}

	single := initialBins(0.5, 1.0, 0.05)
	grids["single bin"] = single

	wide := initialBins(0.5, 1.0, 0.05)
	wide.PrepareForState(State{E: 5.2, N: 3})
	grids["grown up and out"] = wide

	negative := initialBins(-2.25, 0.5, 0.1)
	negative.PrepareForState(State{E: -7.9, N: 2})
	grids["grown down"] = negative

	for name, g := range grids {
		for i := 0; i < g.NBins(); i++ {
			if got := g.StateToIndex(g.IndexToState(i)); got != i {
				t.Errorf("%s: index %d -> state %v -> index %d", name, i, g.IndexToState(i), got)
			}
		}
	}
}

func TestPrepareForStateGrowth(t *testing.T) {
	b := initialBins(0.5, 1.0, 0.25)
	b.LnW[0] = 2.5
	b.Histogram[0] = 7
	b.HaveVisitedSinceMaxEntropy[0] = true
	b.RoundTrips[0] = 3

	if b.PrepareForState(State{E: 0.5, N: 0}) {
		t.Fatal("in-range state must not grow the grid")
	}

	if !b.PrepareForState(State{E: 3.5, N: 2}) {
		t.Fatal("out-of-range state must grow the grid")
	}
	if b.MaxN != 2 || b.NumE != 4 || b.Min != 0 {
		t.Fatalf("grew to MaxN=%d NumE=%d Min=%g, want 2, 4, 0", b.MaxN, b.NumE, b.Min)
	}
	if got := b.NBins(); got != 12 {
		t.Fatalf("NBins = %d, want 12", got)
	}

	// The old single entry lived at E=0.5, N=0 and must carry its values.
	j := b.StateToIndex(State{E: 0.5, N: 0})
	if b.LnW[j] != 2.5 || b.Histogram[j] != 7 || !b.HaveVisitedSinceMaxEntropy[j] || b.RoundTrips[j] != 3 {
		t.Errorf("remapped entry %d = (lnw %g, hist %d, visited %v, trips %d)",
			j, b.LnW[j], b.Histogram[j], b.HaveVisitedSinceMaxEntropy[j], b.RoundTrips[j])
	}
	for i := 0; i < b.NBins(); i++ {
		if i == j {
			continue
		}
		if b.LnW[i] != 0 || b.Histogram[i] != 0 || b.HaveVisitedSinceMaxEntropy[i] || b.RoundTrips[i] != 0 {
			t.Errorf("new entry %d not zeroed: (lnw %g, hist %d, visited %v, trips %d)",
				i, b.LnW[i], b.Histogram[i], b.HaveVisitedSinceMaxEntropy[i], b.RoundTrips[i])
		}
	}

	// New atom counts inherit the baseline translation scale.
	want := []float64{0.25, 0.25, 0.25}
	for n, sc := range b.TranslationScale {
		if sc != want[n] {
			t.Errorf("TranslationScale[%d] = %g, want %g", n, sc, want[n])
		}
	}
}

func TestPrepareForStateGrowsDownward(t *testing.T) {
	b := initialBins(0.5, 1.0, 0.05)
	b.LnW[0] = 1.5
	b.Histogram[0] = 4
	b.MaxSIndex = 0

	if !b.PrepareForState(State{E: -1.7, N: 0}) {
		t.Fatal("expected growth")
	}
	if b.Min != -2 || b.NumE != 3 {
		t.Fatalf("Min=%g NumE=%d, want -2, 3", b.Min, b.NumE)
	}

	j := b.StateToIndex(State{E: 0.5, N: 0})
	if j != 2 {
		t.Fatalf("old entry remapped to %d, want 2", j)
	}
	if b.LnW[j] != 1.5 || b.Histogram[j] != 4 {
		t.Errorf("remapped entry carries (lnw %g, hist %d), want (1.5, 4)", b.LnW[j], b.Histogram[j])
	}
	// The max-entropy index keeps its old flat position through a
	// rebuild until the next new maximum repoints it.
	if b.MaxSIndex != 0 {
		t.Errorf("MaxSIndex = %d after growth, want 0", b.MaxSIndex)
	}
}

func TestStateToIndexPanicsBelowMin(t *testing.T) {
	b := initialBins(0.5, 1.0, 0.05)
	defer func() {
		if recover() == nil {
			t.Fatal("indexing below the grid minimum must panic")
		}
	}()
	b.StateToIndex(State{E: b.Min - 0.5, N: 0})
}

func TestEnergies(t *testing.T) {
	b := initialBins(0.5, 1.0, 0.05)
	b.PrepareForState(State{E: 3.5, N: 0})
	want := []float64{0.5, 1.5, 2.5, 3.5}
	got := b.Energies()
	if len(got) != len(want) {
		t.Fatalf("got %d energies, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("energy %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestTemperature(t *testing.T) {
	newGrid := func(lnw []float64) *Bins {
		b := initialBins(0.5, 1.0, 0.05)
		b.PrepareForState(State{E: float64(len(lnw)) - 0.5, N: 0})
		copy(b.LnW, lnw)
		return b
	}

	tests := []struct {
		name string
		lnw  []float64
		at   State
		want float64
	}{
		{
			// One informative bin above: the single slope comes back.
			name: "two occupied bins",
			lnw:  []float64{1, 3},
			at:   State{E: 0.5, N: 0},
			want: 0.5,
		},
		{
			// Both bounds informative and consistent: their average.
			name: "bracketed",
			lnw:  []float64{2, 3, 3.5},
			at:   State{E: 1.5, N: 0},
			want: 1.5,
		},
		{
			// Upper bound collapses below the lower: prefer the lower.
			name: "inconsistent bounds",
			lnw:  []float64{1, 2, 4},
			at:   State{E: 1.5, N: 0},
			want: 1.0,
		},
		{
			// Nothing informative anywhere: the upper sentinel.
			name: "no occupied neighbors",
			lnw:  []float64{0, 1, 0},
			at:   State{E: 1.5, N: 0},
			want: 1e300,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newGrid(tt.lnw)
			got := b.Temperature(tt.at)
			if math.Abs(got-tt.want) > 1e-12*math.Abs(tt.want) {
				t.Errorf("Temperature(%v) = %g, want %g", tt.at, got, tt.want)
			}
		})
	}
}
