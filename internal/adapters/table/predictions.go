package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/okian/xpts/internal/domain/model"
	"github.com/segmentio/encoding/json"
)

// PredictionHeader is the predictions table header.
var PredictionHeader = []string{"element_id", "player_name", "round", "pred_points_rf"} //nolint:gochecknoglobals // fixed column schema

// WritePredictions writes predictions as CSV in the given order.
func WritePredictions(w io.Writer, preds []model.Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PredictionHeader); err != nil {
		return err
	}
	for _, p := range preds {
		if err := cw.Write([]string{
			strconv.Itoa(p.PlayerID),
			p.PlayerName,
			strconv.Itoa(p.Round),
			formatFloat(p.Points),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPredictions parses a predictions table.
func ReadPredictions(r io.Reader) ([]model.Prediction, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty predictions table", ErrColumnMismatch)
	}
	if err != nil {
		return nil, err
	}
	if err := checkHeader(header, PredictionHeader); err != nil {
		return nil, err
	}

	var out []model.Prediction
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var p model.Prediction
		if p.PlayerID, err = parseInt("element_id", rec[0]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		p.PlayerName = rec[1]
		if p.Round, err = parseInt("round", rec[2]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if p.Points, err = parseFloat("pred_points_rf", rec[3]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, p)
	}
}

// ExportEntry is one value of the keyed export document.
type ExportEntry struct {
	ElementID  int     `json:"element_id"`
	Round      int     `json:"round"`
	PlayerName string  `json:"player_name"`
	Points     float64 `json:"pred_points_rf"`
}

// ExportJSON writes predictions as an indented object keyed
// "{element_id}_{round}". A repeated key keeps the last prediction.
func ExportJSON(w io.Writer, preds []model.Prediction) error {
	doc := make(map[string]ExportEntry, len(preds))
	for _, p := range preds {
		doc[p.Key()] = ExportEntry{
			ElementID:  p.PlayerID,
			Round:      p.Round,
			PlayerName: p.PlayerName,
			Points:     p.Points,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadExport parses an export document back into predictions ordered by
// player id, then round.
func ReadExport(r io.Reader) ([]model.Prediction, error) {
	var doc map[string]ExportEntry
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	out := make([]model.Prediction, 0, len(doc))
	for key, e := range doc {
		p := model.Prediction{PlayerID: e.ElementID, PlayerName: e.PlayerName, Round: e.Round, Points: e.Points}
		if p.Key() != key {
			return nil, fmt.Errorf("%w: key %q holds %s", ErrMalformedCell, key, p.Key())
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayerID != out[j].PlayerID {
			return out[i].PlayerID < out[j].PlayerID
		}
		return out[i].Round < out[j].Round
	})
	return out, nil
}
