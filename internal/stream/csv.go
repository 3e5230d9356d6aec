package stream

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// ErrBadStream indicates a malformed recorded pair stream.
var ErrBadStream = errors.New("stream: malformed pair stream")

// WriteCSV records pairs with a leading time column:
//
//	t,x0,..,x{n-1},y0,..,y{n-1}
//
// Row k carries time k*dt. Values round-trip exactly through [ReadCSV].
func WriteCSV(w io.Writer, pairs []Pair, dt float64) error {
	if len(pairs) == 0 {
		return fmt.Errorf("%w: no pairs to write", ErrBadStream)
	}
	n := pairs[0].Dim()

	cw := csv.NewWriter(w)
	header := make([]string, 0, 1+2*n)
	header = append(header, "t")
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, 1+2*n)
	for k, p := range pairs {
		if p.Dim() != n {
			return fmt.Errorf("%w: pair %d has dimension %d, want %d", ErrBadStream, k, p.Dim(), n)
		}
		row[0] = strconv.FormatFloat(float64(k)*dt, 'g', -1, 64)
		for i := 0; i < n; i++ {
			row[1+i] = strconv.FormatFloat(p.X.AtVec(i), 'g', -1, 64)
			row[1+n+i] = strconv.FormatFloat(p.Y.AtVec(i), 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a stream written by [WriteCSV] and returns the pairs along
// with the sampling interval inferred from the first two rows (0 when the
// stream holds a single pair).
func ReadCSV(r io.Reader) ([]Pair, float64, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadStream, err)
	}
	if len(header) < 3 || header[0] != "t" || len(header)%2 == 0 {
		return nil, 0, fmt.Errorf("%w: unexpected header %v", ErrBadStream, header)
	}
	n := (len(header) - 1) / 2

	var pairs []Pair
	var times []float64
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrBadStream, err)
		}
		if len(row) != 1+2*n {
			return nil, 0, fmt.Errorf("%w: row %d has %d fields, want %d", ErrBadStream, len(pairs)+1, len(row), 1+2*n)
		}
		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: bad time %q", ErrBadStream, row[0])
		}
		x := mat.NewVecDense(n, nil)
		y := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			xv, err := strconv.ParseFloat(row[1+i], 64)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: bad value %q", ErrBadStream, row[1+i])
			}
			yv, err := strconv.ParseFloat(row[1+n+i], 64)
			if err != nil {
				return nil, 0, fmt.Errorf("%w: bad value %q", ErrBadStream, row[1+n+i])
			}
			x.SetVec(i, xv)
			y.SetVec(i, yv)
		}
		pairs = append(pairs, Pair{X: x, Y: y})
		times = append(times, t)
	}
	if len(pairs) == 0 {
		return nil, 0, fmt.Errorf("%w: no data rows", ErrBadStream)
	}

	dt := 0.0
	if len(times) > 1 {
		dt = times[1] - times[0]
	}
	return pairs, dt, nil
}
