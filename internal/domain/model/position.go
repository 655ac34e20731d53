package model

// Position is the coarse role category used to partition modelling.
type Position string

// Position categories.
const (
	Goalkeeper Position = "GKP"
	Defender   Position = "DEF"
	Midfielder Position = "MID"
	Forward    Position = "FWD"
)

// Positions lists every category in training and prediction order.
var Positions = []Position{Goalkeeper, Defender, Midfielder, Forward} //nolint:gochecknoglobals // fixed enumeration

// Valid reports whether p is one of the four categories.
func (p Position) Valid() bool {
	switch p {
	case Goalkeeper, Defender, Midfielder, Forward:
		return true
	}
	return false
}

func (p Position) String() string { return string(p) }
