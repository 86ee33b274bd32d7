package domain

// SharesPerLot is the fixed trading unit used to report investor flow.
const SharesPerLot = 1000

// FlowRecord represents one entry of the daily investor-flow summary.
// Lot-denominated fields are the integer-truncated quotient of the raw
// share counts by SharesPerLot; the raw triple is kept for traceability.
type FlowRecord struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name"`

	BuyLots  int64 `json:"buy_lots"`
	SellLots int64 `json:"sell_lots"`
	NetLots  int64 `json:"net_lots"`

	BuyShares  int64 `json:"buy_shares"`
	SellShares int64 `json:"sell_shares"`
	NetShares  int64 `json:"net_shares"`
}

// NewFlowRecord derives the lot-denominated fields from raw share counts.
func NewFlowRecord(code, name string, buyShares, sellShares, netShares int64) FlowRecord {
	return FlowRecord{
		Code:       code,
		Name:       name,
		BuyLots:    buyShares / SharesPerLot,
		SellLots:   sellShares / SharesPerLot,
		NetLots:    netShares / SharesPerLot,
		BuyShares:  buyShares,
		SellShares: sellShares,
		NetShares:  netShares,
	}
}
