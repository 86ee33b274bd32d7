// Package ranking recovers an ordered decliner record set from one ranking
// page snapshot.
//
// The source page does not delimit logical rows consistently: the header and
// the first data rows share a <tr>, and some rank positions carry an extra
// blank cell. Row recovery therefore works as a cursor-driven scan over the
// flattened cell sequence with explicit resynchronization, not as a
// structural table traversal. The parser is heuristic by design; malformed
// input yields fewer records, never an error.
package ranking

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"twdash/pkg/contracts/domain"
)

const (
	// maxRank bounds what counts as a rank marker cell.
	maxRank = 999
	// minValues is the minimum number of value cells a row needs before a
	// record is emitted.
	minValues = 6
	// maxValues caps greedy value collection per row.
	maxValues = 8
)

var (
	labeledDateRe = regexp.MustCompile(`日期[：:]\s*(\d{1,2}/\d{1,2})`)
	plainDateRe   = regexp.MustCompile(`\d{1,2}/\d{1,2}`)
	linkCodeRe    = regexp.MustCompile(`Link2Stk\('([^']+)'\)`)
	codePrefixRe  = regexp.MustCompile(`^(\d{4,6}[A-Z]?)\s*`)
)

// Extractor converts one markup snapshot into decliner records plus the
// page's reported reference date.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a ranking extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger.With(slog.String("component", "ranking"))}
}

// Extract scans the markup and returns the recovered records in source rank
// order, plus the page's reference date in MM/DD form (empty when the page
// carries none). Duplicate codes are not deduplicated here.
func (e *Extractor) Extract(markup string) ([]domain.DeclinerRecord, string) {
	pageDate := referenceDate(visibleText(markup))
	cells := flattenCells(markup)

	var records []domain.DeclinerRecord
	i := 0
	for i < len(cells) {
		rank, ok := rankMarker(cells[i].Text)
		if !ok {
			i++
			continue
		}
		if i+1 >= len(cells) {
			break
		}

		nameCell := cells[i+1]
		rawName := nameCell.Text
		code := codeFromHrefs(nameCell.Hrefs)
		if code == "" {
			if m := codePrefixRe.FindStringSubmatch(rawName); m != nil {
				code = m[1]
			}
		}
		if code == "" {
			// Not a data row after all; resynchronize one cell on.
			i++
			continue
		}
		name := strings.TrimSpace(codePrefixRe.ReplaceAllString(rawName, ""))

		values, next := collectValues(cells, i+2)
		if len(values) < minValues {
			i++
			continue
		}

		records = append(records, domain.DeclinerRecord{
			Rank:          rank,
			Code:          code,
			Name:          name,
			Close:         parseNum(values[0]),
			Change:        parseNum(values[1]),
			ChangePct:     parseNum(strings.ReplaceAll(values[2], "%", "")),
			Volume:        parseNum(values[3]),
			HorizonChange: parseNum(values[4]),
			HorizonPct:    parseNum(strings.ReplaceAll(values[5], "%", "")),
		})
		i = next
	}

	e.logger.Info("ranking extraction complete",
		slog.Int("records", len(records)),
		slog.String("page_date", pageDate))

	return records, pageDate
}

// collectValues greedily gathers up to maxValues non-empty cell texts
// starting at position start, skipping blank cells. Collection stops early
// once minValues have been gathered and the next candidate is itself a rank
// marker, which is what resolves the extra-blank-cell layout irregularity.
// It returns the values and the position of the first unconsumed cell.
func collectValues(cells []Cell, start int) ([]string, int) {
	var values []string
	j := start
	for j < len(cells) && len(values) < maxValues {
		val := strings.TrimSpace(cells[j].Text)
		if _, isRank := rankMarker(val); isRank && len(values) >= minValues {
			break
		}
		if val == "" {
			j++
			continue
		}
		values = append(values, val)
		j++
	}
	return values, j
}

// rankMarker reports whether the trimmed cell text is a pure number in
// [1, maxRank], and returns its value.
func rankMarker(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > maxRank {
		return 0, false
	}
	return n, true
}

// codeFromHrefs recovers the instrument code from an embedded navigation
// reference, e.g. href="javascript:Link2Stk('2330');".
func codeFromHrefs(hrefs []string) string {
	for _, href := range hrefs {
		if m := linkCodeRe.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	return ""
}

// referenceDate finds the page's reference date token, preferring a
// label-qualified occurrence over a bare one. Absence is not fatal.
func referenceDate(text string) string {
	if m := labeledDateRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return plainDateRe.FindString(text)
}

// parseNum parses a numeric cell value, tolerating thousands separators,
// embedded spaces, a leading plus, and a lone "-" placeholder. Unparsable
// values resolve to zero so one bad cell never fails the extraction.
func parseNum(text string) decimal.Decimal {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, ",", "")
	text = strings.ReplaceAll(text, " ", "")
	if text == "" || text == "-" {
		return decimal.Zero
	}
	text = strings.ReplaceAll(text, "+", "")
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero
	}
	return d
}
