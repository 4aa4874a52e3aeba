package search

import (
	"sort"

	"github.com/poiesic/mishkat/core"
)

// RRFConstant is the reciprocal rank fusion constant K. 60 flattens the
// 1/(K+rank+1) curve so that rank position dominates over small score
// differences between adjacent ranks.
const RRFConstant = 60

type fusedEntry struct {
	id    core.RecordID
	score float64
}

// Fuse merges two independently ranked candidate lists into one ranking
// using reciprocal rank fusion: the entry at 0-indexed position i of
// either list contributes 1/(k+i+1) to its record's accumulator, and a
// record present in both lists sums both contributions. Input scores
// are ignored; only rank positions matter, which makes fusion invariant
// to the incomparable score scales of the two sources.
//
// The output is ordered by accumulated score descending. Ties keep
// first-insertion order (list a before list b, earlier rank first), so
// identical inputs always fuse to the identical ranking.
func Fuse(a, b []core.ScoredID, k int) []core.ScoredID {
	position := make(map[core.RecordID]int, len(a)+len(b))
	entries := make([]fusedEntry, 0, len(a)+len(b))

	accumulate := func(list []core.ScoredID) {
		for i, item := range list {
			contribution := 1.0 / float64(k+i+1)
			p, seen := position[item.ID]
			if !seen {
				position[item.ID] = len(entries)
				entries = append(entries, fusedEntry{id: item.ID, score: contribution})
				continue
			}
			entries[p].score += contribution
		}
	}
	accumulate(a)
	accumulate(b)

	if len(entries) == 0 {
		return nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	fused := make([]core.ScoredID, len(entries))
	for i, e := range entries {
		fused[i] = core.ScoredID{ID: e.id, Score: e.score}
	}
	return fused
}
