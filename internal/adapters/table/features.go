// Package table reads and writes the feature table, the predictions table and
// the keyed predictions export.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/xpts/internal/domain/model"
)

const labelColumn = "total_points"

// FeatureHeader returns the feature table header: identifiers, round, the
// ordered feature columns and the label.
func FeatureHeader() []string {
	h := make([]string, 0, len(model.FeatureNames)+4)
	h = append(h, "element_id", "player_name", "round")
	h = append(h, model.FeatureNames...)
	return append(h, labelColumn)
}

// WriteFeatures writes vectors as CSV. Unlabelled rows leave the label empty.
func WriteFeatures(w io.Writer, vectors []model.FeatureVector) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(FeatureHeader()); err != nil {
		return err
	}
	rec := make([]string, 0, model.NumFeatures+4)
	for i, v := range vectors {
		if len(v.Features) != model.NumFeatures {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrColumnMismatch, i, len(v.Features), model.NumFeatures)
		}
		rec = rec[:0]
		rec = append(rec, strconv.Itoa(v.PlayerID), v.PlayerName, strconv.Itoa(v.Round))
		for _, f := range v.Features {
			rec = append(rec, formatFloat(f))
		}
		if v.HasLabel {
			rec = append(rec, formatFloat(v.Label))
		} else {
			rec = append(rec, "")
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFeatures parses a feature table. The header must match FeatureHeader
// exactly.
func ReadFeatures(r io.Reader) ([]model.FeatureVector, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty feature table", ErrColumnMismatch)
	}
	if err != nil {
		return nil, err
	}
	if err := checkHeader(header, FeatureHeader()); err != nil {
		return nil, err
	}

	var out []model.FeatureVector
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := parseFeatureRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, v)
	}
}

func parseFeatureRow(rec []string) (model.FeatureVector, error) {
	var v model.FeatureVector
	var err error
	if v.PlayerID, err = parseInt("element_id", rec[0]); err != nil {
		return v, err
	}
	v.PlayerName = rec[1]
	if v.Round, err = parseInt("round", rec[2]); err != nil {
		return v, err
	}
	v.Features = make([]float64, model.NumFeatures)
	for i := range v.Features {
		if v.Features[i], err = parseFloat(model.FeatureNames[i], rec[3+i]); err != nil {
			return v, err
		}
	}
	if label := rec[3+model.NumFeatures]; label != "" {
		if v.Label, err = parseFloat(labelColumn, label); err != nil {
			return v, err
		}
		v.HasLabel = true
	}
	return v, nil
}

func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("%w: %d columns, want %d", ErrColumnMismatch, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrColumnMismatch, i, got[i], want[i])
		}
	}
	return nil
}

// formatFloat uses the shortest representation that parses back to the same
// float64.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func parseFloat(col, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedCell, col, s)
	}
	return f, nil
}

func parseInt(col, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrMalformedCell, col, s)
	}
	return n, nil
}
