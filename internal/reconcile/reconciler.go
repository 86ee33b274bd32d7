// Package reconcile unions the two horizon rankings and classifies the
// merged set against the investor-flow lookup.
package reconcile

import (
	"log/slog"
	"sort"

	"twdash/pkg/contracts/domain"
)

// Dates carries the per-source reference dates through to the result
// unmodified; the reconciler performs no date comparison itself.
type Dates struct {
	FiveDay string
	TenDay  string
	Flow    string
}

// Reconciler merges and classifies the pipeline's inputs.
type Reconciler struct {
	logger *slog.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{logger: logger.With(slog.String("component", "reconcile"))}
}

// Reconcile unions the primary (five-day) and secondary (ten-day) record
// sets by identifier, attaches flow data, and partitions the merged set into
// the three classified groups. Buying sorts by net lots descending, selling
// by net lots ascending; both sorts are stable over primary-horizon order,
// which is the tie-break. NoFlowData keeps source order.
func (r *Reconciler) Reconcile(primary, secondary []domain.DeclinerRecord, flows map[string]domain.FlowRecord, dates Dates) domain.ReconciliationResult {
	merged := mergeHorizons(primary, secondary)

	result := domain.ReconciliationResult{
		Buying:      []domain.MergedRecord{},
		Selling:     []domain.MergedRecord{},
		NoFlowData:  []domain.MergedRecord{},
		FiveDayDate: dates.FiveDay,
		TenDayDate:  dates.TenDay,
		FlowDate:    dates.Flow,
	}

	for _, m := range merged {
		f, ok := flows[m.Code]
		if !ok {
			// Absent flow stays nil: no data is not the same as zero flow.
			result.NoFlowData = append(result.NoFlowData, m)
			continue
		}
		flow := f
		m.Flow = &flow
		if flow.NetLots > 0 {
			result.Buying = append(result.Buying, m)
		} else {
			// Zero net flow counts as "not buying".
			result.Selling = append(result.Selling, m)
		}
	}

	sort.SliceStable(result.Buying, func(i, j int) bool {
		return result.Buying[i].Flow.NetLots > result.Buying[j].Flow.NetLots
	})
	sort.SliceStable(result.Selling, func(i, j int) bool {
		return result.Selling[i].Flow.NetLots < result.Selling[j].Flow.NetLots
	})

	r.logger.Info("reconciliation complete",
		slog.Int("merged", len(merged)),
		slog.Int("buying", len(result.Buying)),
		slog.Int("selling", len(result.Selling)),
		slog.Int("no_flow_data", len(result.NoFlowData)))

	return result
}

// mergeHorizons produces the merged record set: every primary record in
// source order, augmented with its secondary horizon pair when present,
// followed by records that appear only in the secondary ranking. A
// secondary-only record keeps the secondary ranking's rank, which lives in a
// numbering space of its own.
func mergeHorizons(primary, secondary []domain.DeclinerRecord) []domain.MergedRecord {
	secondaryByCode := make(map[string]domain.DeclinerRecord, len(secondary))
	for _, s := range secondary {
		secondaryByCode[s.Code] = s // last-write-wins
	}
	primaryCodes := make(map[string]bool, len(primary))
	for _, p := range primary {
		primaryCodes[p.Code] = true
	}

	merged := make([]domain.MergedRecord, 0, len(primary))
	for _, p := range primary {
		m := domain.MergedRecord{
			Rank:      p.Rank,
			Code:      p.Code,
			Name:      p.Name,
			Close:     p.Close,
			Change:    p.Change,
			ChangePct: p.ChangePct,
			Volume:    p.Volume,
			FiveDay:   p.Move(),
		}
		if s, ok := secondaryByCode[p.Code]; ok {
			m.TenDay = s.Move()
		}
		merged = append(merged, m)
	}

	// Secondary slice order keeps the synthesis deterministic.
	emitted := make(map[string]bool)
	for _, s := range secondary {
		if primaryCodes[s.Code] || emitted[s.Code] {
			continue
		}
		emitted[s.Code] = true
		rec := secondaryByCode[s.Code]
		merged = append(merged, domain.MergedRecord{
			Rank:      rec.Rank,
			Code:      rec.Code,
			Name:      rec.Name,
			Close:     rec.Close,
			Change:    rec.Change,
			ChangePct: rec.ChangePct,
			Volume:    rec.Volume,
			TenDay:    rec.Move(),
		})
	}

	return merged
}
