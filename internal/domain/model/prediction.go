package model

import (
	"strconv"
	"time"

	"github.com/okian/xpts/internal/domain/forest"
)

// Prediction is a point estimate for one (player, round).
type Prediction struct {
	PlayerID   int
	PlayerName string
	Round      int
	Points     float64
}

// Key returns the downstream export key "{player_id}_{round}".
func (p Prediction) Key() string {
	return strconv.Itoa(p.PlayerID) + "_" + strconv.Itoa(p.Round)
}

// Model is a fitted per-category regressor and the metadata needed to apply
// it safely at inference time.
type Model struct {
	Category      Position       `json:"category"`
	Columns       []string       `json:"columns"`
	Params        forest.Params  `json:"params"`
	RunID         string         `json:"run_id"`
	TrainRows     int            `json:"train_rows"`
	ValidationMAE float64        `json:"validation_mae"`
	TrainedAt     time.Time      `json:"trained_at"`
	Forest        *forest.Forest `json:"forest"`
}
