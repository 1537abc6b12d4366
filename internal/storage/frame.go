package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Frame is one parsed movie snapshot: the bin-center energies and one
// row of values per atom count.
type Frame struct {
	Moves    uint64
	Energies []float64
	// Rows[n][i] is the value for atom count n at energy Energies[i].
	Rows [][]float64
}

// LatestFrame finds the run's newest movie frame with the given prefix
// ("S" for log-weights, "h" for the histogram).
func (r *Run) LatestFrame(prefix string) (*Frame, error) {
	entries, err := os.ReadDir(r.MovieDir())
	if err != nil {
		return nil, fmt.Errorf("storage: no movie frames: %w", err)
	}

	best := ""
	var bestMoves uint64
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".dat") {
			continue
		}
		moves, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), ".dat"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || moves > bestMoves {
			best, bestMoves = name, moves
		}
	}
	if best == "" {
		return nil, fmt.Errorf("storage: no %s frames in %s", prefix, r.MovieDir())
	}

	f, err := ReadFrame(filepath.Join(r.MovieDir(), best))
	if err != nil {
		return nil, err
	}
	f.Moves = bestMoves
	return f, nil
}

// ReadFrame parses one tab-separated frame file.
func ReadFrame(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	if !sc.Scan() {
		return nil, fmt.Errorf("storage: empty frame %s", path)
	}

	frame := &Frame{}
	for _, field := range strings.Fields(sc.Text()) {
		e, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("storage: frame %s: bad energy %q", path, field)
		}
		frame.Energies = append(frame.Energies, e)
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(frame.Energies) {
			return nil, fmt.Errorf("storage: frame %s: row has %d values, want %d",
				path, len(fields), len(frame.Energies))
		}
		row := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: frame %s: bad value %q", path, field)
			}
			row[i] = v
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, sc.Err()
}

// ReadTrace loads the trace.csv columns written by the trace hook.
func (r *Run) ReadTrace() (moves []uint64, energy []float64, natoms []int, err error) {
	f, err := os.Open(r.TracePath())
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if first {
			first = false
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			return nil, nil, nil, fmt.Errorf("storage: trace row %q", line)
		}
		m, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, nil, nil, err
		}
		e, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, nil, nil, err
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, nil, nil, err
		}
		moves = append(moves, m)
		energy = append(energy, e)
		natoms = append(natoms, n)
	}
	return moves, energy, natoms, sc.Err()
}
