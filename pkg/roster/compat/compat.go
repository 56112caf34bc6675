// Package compat decides which same-date shift pairs one driver may legally work.
package compat

import (
	"sort"

	"github.com/arvergara/Hualpen-sub001/pkg/model"
)

// Pair references two shift instances by their index into the run's shift list.
// A < B always holds, with A starting no later than B.
type Pair struct {
	A int
	B int
}

// Index is the derived same-date compatibility relation for a fixed shift set.
// It is computed once per run and read-only during the search.
type Index struct {
	incompatible []Pair
	compatible   []Pair
	verdict      map[[2]int]bool
}

// BuildIndex classifies every same-date pair of the given shifts.
// The relation is symmetric: the verdict for (A,B) equals (B,A).
func BuildIndex(shifts []model.ShiftInstance, params model.ConstraintParameters) *Index {
	idx := &Index{verdict: make(map[[2]int]bool)}

	byDate := make(map[string][]int)
	for i := range shifts {
		byDate[shifts[i].Date] = append(byDate[shifts[i].Date], i)
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, date := range dates {
		ids := byDate[date]
		sort.Slice(ids, func(a, b int) bool {
			si, sj := &shifts[ids[a]], &shifts[ids[b]]
			if si.StartMin != sj.StartMin {
				return si.StartMin < sj.StartMin
			}
			return si.Key() < sj.Key()
		})

		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				a, b := ids[i], ids[j]
				ok := compatiblePair(&shifts[a], &shifts[b], params)
				idx.record(a, b, ok)
			}
		}
	}

	return idx
}

// compatiblePair applies the duty rules to an ordered same-date pair
// (first starts no later than second).
func compatiblePair(first, second *model.ShiftInstance, p model.ConstraintParameters) bool {
	// Temporal overlap.
	if second.StartMin < first.EndMin {
		return false
	}
	gap := second.StartMin - first.EndMin
	spanHours := float64(second.EndMin-first.StartMin) / 60.0

	if spanHours > p.MaxDutySpanHours {
		return false
	}
	if gap >= p.RestGapMin {
		// Rest long enough to reset continuous-duty accounting.
		return true
	}
	// Short gap tolerated only while combined duty stays under the cap.
	return first.DurationHours+second.DurationHours <= p.MaxContinuousHours
}

func (x *Index) record(a, b int, compatible bool) {
	if a > b {
		a, b = b, a
	}
	x.verdict[[2]int{a, b}] = compatible
	if compatible {
		x.compatible = append(x.compatible, Pair{A: a, B: b})
	} else {
		x.incompatible = append(x.incompatible, Pair{A: a, B: b})
	}
}

// Compatible reports the verdict for a same-date pair. Cross-date pairs are
// outside the relation and always allowed at this layer.
func (x *Index) Compatible(a, b int) bool {
	if a == b {
		return true
	}
	if a > b {
		a, b = b, a
	}
	v, found := x.verdict[[2]int{a, b}]
	if !found {
		return true
	}
	return v
}

// Incompatible returns every pair that must not share a driver.
func (x *Index) Incompatible() []Pair {
	return x.incompatible
}

// CompatiblePairs returns every same-date pair one driver may double up on.
func (x *Index) CompatiblePairs() []Pair {
	return x.compatible
}

// PairCount returns the number of classified same-date pairs.
func (x *Index) PairCount() int {
	return len(x.verdict)
}
