package domain

import (
	"github.com/shopspring/decimal"
)

// Horizon identifies the lookback window a decliner ranking was computed over.
type Horizon string

const (
	HorizonFiveDay Horizon = "5d"
	HorizonTenDay  Horizon = "10d"
)

// DeclinerRecord represents one row of a decliner ranking snapshot for a
// single horizon. Code is the join key for all merges and is never empty;
// rows whose code cannot be resolved are discarded during extraction.
type DeclinerRecord struct {
	Rank          int             `json:"rank" validate:"min=1"`
	Code          string          `json:"code" validate:"required"`
	Name          string          `json:"name"`
	Close         decimal.Decimal `json:"close"`
	Change        decimal.Decimal `json:"change"`
	ChangePct     decimal.Decimal `json:"change_pct"`
	Volume        decimal.Decimal `json:"volume"` // trading lots
	HorizonChange decimal.Decimal `json:"horizon_change"`
	HorizonPct    decimal.Decimal `json:"horizon_pct"`
}

// HorizonMove is the change/percent pair specific to one horizon.
// A nil *HorizonMove means the record did not appear in that horizon's
// ranking; it is distinct from a zero move.
type HorizonMove struct {
	Change decimal.Decimal `json:"change"`
	Pct    decimal.Decimal `json:"pct"`
}

// Move returns the record's horizon pair as a HorizonMove.
func (r DeclinerRecord) Move() *HorizonMove {
	return &HorizonMove{Change: r.HorizonChange, Pct: r.HorizonPct}
}
