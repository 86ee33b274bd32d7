package ranking

import (
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rankingPage mimics the real page's malformed layout: the header cells and
// the first two data rows share one <tr>, and ranks 1-2 carry an extra blank
// cell in the change column.
const rankingPage = `<html><body>
<div>日期：02/05</div>
<table>
<tr>
  <td>名次</td><td>股票名稱</td><td>收盤</td><td>漲跌</td><td>漲跌幅</td><td>成交量</td><td>5日漲跌</td><td>5日跌幅</td>
  <td>1</td><td><a href="javascript:Link2Stk('2330');">2330台積電</a></td><td>580.00</td><td>-12.00</td><td></td><td>-2.03%</td><td>25,310</td><td>-35.00</td><td>-5.69%</td>
  <td>2</td><td><a href="javascript:Link2Stk('2317');">2317鴻海</a></td><td>98.50</td><td>-1.50</td><td></td><td>-1.50%</td><td>41,200</td><td>-6.10</td><td>-5.83%</td>
</tr>
<tr>
  <td>3</td><td><a href="javascript:Link2Stk('2603');">2603長榮</a></td><td>152.00</td><td>-3.00</td><td>-1.94%</td><td>18,777</td><td>-8.50</td><td>-5.30%</td>
</tr>
</table>
</body></html>`

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor(slog.Default())
	records, date := e.Extract(rankingPage)

	require.Len(t, records, 3)
	assert.Equal(t, "02/05", date)

	// Rank order must match source order.
	for i, wantRank := range []int{1, 2, 3} {
		assert.Equal(t, wantRank, records[i].Rank)
	}

	first := records[0]
	assert.Equal(t, "2330", first.Code)
	assert.Equal(t, "台積電", first.Name)
	assert.True(t, first.Close.Equal(decimal.RequireFromString("580.00")), "close: %s", first.Close)
	assert.True(t, first.Change.Equal(decimal.RequireFromString("-12.00")))
	assert.True(t, first.ChangePct.Equal(decimal.RequireFromString("-2.03")))
	assert.True(t, first.Volume.Equal(decimal.RequireFromString("25310")))
	assert.True(t, first.HorizonChange.Equal(decimal.RequireFromString("-35.00")))
	assert.True(t, first.HorizonPct.Equal(decimal.RequireFromString("-5.69")))

	// Rank 3 has the regular 8-cell layout, no blank change cell.
	third := records[2]
	assert.Equal(t, "2603", third.Code)
	assert.Equal(t, "長榮", third.Name)
	assert.True(t, third.ChangePct.Equal(decimal.RequireFromString("-1.94")))
}

func TestExtractor_CodeFallbackFromText(t *testing.T) {
	page := `<table><tr>
<td>1</td><td>9105A泰金寶</td><td>12.00</td><td>-0.50</td><td>-4.00%</td><td>5,120</td><td>-1.20</td><td>-9.09%</td>
</tr></table>`

	records, _ := NewExtractor(nil).Extract(page)
	require.Len(t, records, 1)
	assert.Equal(t, "9105A", records[0].Code)
	assert.Equal(t, "泰金寶", records[0].Name)
}

func TestExtractor_RowWithoutIdentifierDiscarded(t *testing.T) {
	page := `<table><tr>
<td>1</td><td>無代號公司</td><td>12.00</td><td>-0.50</td><td>-4.00%</td><td>5,120</td><td>-1.20</td><td>-9.09%</td>
<td>2</td><td><a href="javascript:Link2Stk('1101');">1101台泥</a></td><td>35.00</td><td>-0.70</td><td>-1.96%</td><td>9,840</td><td>-1.90</td><td>-5.15%</td>
</tr></table>`

	records, _ := NewExtractor(nil).Extract(page)
	require.Len(t, records, 1)
	assert.Equal(t, "1101", records[0].Code)
}

func TestExtractor_TooFewValuesNotEmitted(t *testing.T) {
	// Emit iff identifier resolved AND at least six values collected; this
	// row truncates after three values.
	page := `<table><tr>
<td>1</td><td><a href="javascript:Link2Stk('2330');">2330台積電</a></td><td>580.00</td><td>-12.00</td><td>-2.03%</td>
</tr></table>`

	records, _ := NewExtractor(nil).Extract(page)
	assert.Empty(t, records)
}

func TestExtractor_EmptyInput(t *testing.T) {
	records, date := NewExtractor(nil).Extract("")
	assert.Empty(t, records)
	assert.Empty(t, date)
}

func TestExtractor_DateAbsent(t *testing.T) {
	page := `<table><tr>
<td>1</td><td><a href="javascript:Link2Stk('2330');">2330台積電</a></td><td>580.00</td><td>-12.00</td><td>-2.03%</td><td>25,310</td><td>-35.00</td><td>-5.69%</td>
</tr></table>`

	records, date := NewExtractor(nil).Extract(page)
	require.Len(t, records, 1)
	assert.Empty(t, date)
}

func TestRankMarker(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"1", 1, true},
		{"999", 999, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"1000", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"12.5", 0, false},
		{"2330台積電", 0, false},
		{"+3", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := rankMarker(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNum(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"1,234.50", "1234.5"},
		{"+5.5", "5.5"},
		{"-3.2", "-3.2"},
		{"-", "0"},
		{"", "0"},
		{"  12 345 ", "12345"},
		{"abc", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := parseNum(tt.text)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}
