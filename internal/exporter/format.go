package exporter

import (
	"github.com/shopspring/decimal"

	"twdash/pkg/contracts/domain"
)

// notAvailable marks fields with no source data. It is deliberately distinct
// from "0": zero means a measured zero, N/A means no data matched.
const notAvailable = "N/A"

// resultHeaders is the shared column layout for tabular exports.
var resultHeaders = []string{
	"Rank", "Code", "Name", "Close",
	"5D Change", "5D %", "10D Change", "10D %",
	"Volume", "Buy (lots)", "Sell (lots)", "Net (lots)",
}

// recordRow renders one merged record into the shared column layout.
func recordRow(m domain.MergedRecord) []string {
	fiveChange, fivePct := moveCells(m.FiveDay)
	tenChange, tenPct := moveCells(m.TenDay)

	buy, sell, net := notAvailable, notAvailable, notAvailable
	if m.HasFlow() {
		buy = decimal.NewFromInt(m.Flow.BuyLots).String()
		sell = decimal.NewFromInt(m.Flow.SellLots).String()
		net = signedInt(m.Flow.NetLots)
	}

	return []string{
		decimal.NewFromInt(int64(m.Rank)).String(),
		m.Code,
		m.Name,
		m.Close.StringFixed(2),
		fiveChange,
		fivePct,
		tenChange,
		tenPct,
		m.Volume.String(),
		buy,
		sell,
		net,
	}
}

// moveCells renders a horizon pair, or N/A twice when the record did not
// appear in that horizon's ranking.
func moveCells(m *domain.HorizonMove) (change, pct string) {
	if m == nil {
		return notAvailable, notAvailable
	}
	return signedDecimal(m.Change), signedDecimal(m.Pct) + "%"
}

// signedDecimal formats a decimal with an explicit plus on positive values.
func signedDecimal(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// signedInt formats an int64 with an explicit plus on positive values.
func signedInt(n int64) string {
	d := decimal.NewFromInt(n)
	if n > 0 {
		return "+" + d.String()
	}
	return d.String()
}
