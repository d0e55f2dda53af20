// Package conflict implements the interval-overlap test shared by every
// provider adapter and the sync orchestrator. Adapters are responsible for
// producing correctly normalized candidate and existing intervals; the test
// itself is provider-agnostic.
package conflict

import "calbridge/internal/model"

// Overlaps reports whether two half-open intervals intersect:
// existing [es, ee) conflicts with candidate [cs, ce) iff es < ce && ee > cs.
// Adjacent intervals sharing an endpoint do not conflict.
func Overlaps(candidate, existing model.Interval) bool {
	return existing.Start.Before(candidate.End) && existing.End.After(candidate.Start)
}

// Overlapping filters events down to those whose occupancy interval overlaps
// the candidate. Cancelled events never conflict, and events that cannot be
// reduced to an interval are skipped rather than reported as conflicts.
func Overlapping(candidate model.Interval, events []model.UniversalEvent) []model.UniversalEvent {
	var conflicts []model.UniversalEvent
	for _, ev := range events {
		if ev.Status == model.StatusCancelled {
			continue
		}
		iv, err := ev.Interval()
		if err != nil {
			continue
		}
		if Overlaps(candidate, iv) {
			conflicts = append(conflicts, ev)
		}
	}
	return conflicts
}
