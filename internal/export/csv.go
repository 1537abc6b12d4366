package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/san-kum/dosim/internal/storage"
)

// FrameToCSV writes a movie frame as CSV: a header of energies, then
// one row per atom count.
func FrameToCSV(w io.Writer, frame *storage.Frame) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(frame.Energies)+1)
	header = append(header, "natoms")
	for _, e := range frame.Energies {
		header = append(header, strconv.FormatFloat(e, 'g', -1, 64))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for n, row := range frame.Rows {
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, strconv.Itoa(n))
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
