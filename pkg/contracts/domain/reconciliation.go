package domain

import (
	"github.com/shopspring/decimal"
)

// MergedRecord is a decliner record augmented with the other horizon's move
// and the matching flow entry. FiveDay, TenDay and Flow are nil when the
// corresponding source had no data for this code; nil is never conflated
// with a measured zero.
type MergedRecord struct {
	Rank int    `json:"rank"`
	Code string `json:"code"`
	Name string `json:"name"`

	Close     decimal.Decimal `json:"close"`
	Change    decimal.Decimal `json:"change"`
	ChangePct decimal.Decimal `json:"change_pct"`
	Volume    decimal.Decimal `json:"volume"`

	FiveDay *HorizonMove `json:"five_day,omitempty"`
	TenDay  *HorizonMove `json:"ten_day,omitempty"`

	Flow *FlowRecord `json:"flow,omitempty"`
}

// HasFlow reports whether a flow entry matched this record.
func (m MergedRecord) HasFlow() bool {
	return m.Flow != nil
}

// ReconciliationResult partitions the merged record set into three disjoint
// ordered groups and carries the per-source reference dates untouched.
type ReconciliationResult struct {
	RunID string `json:"run_id,omitempty"`

	Buying     []MergedRecord `json:"buying"`
	Selling    []MergedRecord `json:"selling"`
	NoFlowData []MergedRecord `json:"no_flow_data"`

	FiveDayDate string `json:"five_day_date"`
	TenDayDate  string `json:"ten_day_date"`
	FlowDate    string `json:"flow_date"`
}

// Total returns the size of the full merged set.
func (r ReconciliationResult) Total() int {
	return len(r.Buying) + len(r.Selling) + len(r.NoFlowData)
}

// DatesAligned reports whether the primary ranking snapshot and the flow
// snapshot pertain to the same trading day. Both-empty counts as aligned;
// a mismatch is an advisory for rendering, never an error.
func (r ReconciliationResult) DatesAligned() bool {
	if r.FiveDayDate == "" && r.FlowDate == "" {
		return true
	}
	return r.FiveDayDate != "" && r.FiveDayDate == r.FlowDate
}
