package council

import "sort"

// ComputeAggregate folds the parsed peer rankings into one consensus
// ordering over the labeled participants. A participant's average rank
// is the mean of its 1-based position across every evaluation that
// ranked it; an evaluation that omits a participant contributes no
// sample for it.
//
// Entries sort by ascending average rank. Ties go to the participant
// with more first-place votes, then to label assignment order.
// Participants no evaluation ranked sort after everyone else, in label
// assignment order.
func ComputeAggregate(evaluations []Evaluation, labels LabelMap) []AggregateEntry {
	type tally struct {
		positionSum int
		votes       int
		firstPlace  int
	}
	tallies := make(map[Label]*tally, labels.Len())
	for _, label := range labels.Labels() {
		tallies[label] = &tally{}
	}

	for _, eval := range evaluations {
		for pos, label := range eval.Ranking {
			t, ok := tallies[label]
			if !ok {
				continue
			}
			t.positionSum += pos + 1
			t.votes++
			if pos == 0 {
				t.firstPlace++
			}
		}
	}

	ordered := labels.Labels()
	entries := make([]AggregateEntry, 0, len(ordered))
	assignOrder := make(map[string]int, len(ordered))
	for i, label := range ordered {
		backend, _ := labels.Backend(label)
		assignOrder[backend] = i
		t := tallies[label]

		entry := AggregateEntry{
			Backend:    backend,
			Votes:      t.votes,
			FirstPlace: t.firstPlace,
		}
		if t.votes > 0 {
			entry.AverageRank = float64(t.positionSum) / float64(t.votes)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if (a.Votes == 0) != (b.Votes == 0) {
			return b.Votes == 0
		}
		if a.Votes == 0 {
			return assignOrder[a.Backend] < assignOrder[b.Backend]
		}
		if a.AverageRank != b.AverageRank {
			return a.AverageRank < b.AverageRank
		}
		if a.FirstPlace != b.FirstPlace {
			return a.FirstPlace > b.FirstPlace
		}
		return assignOrder[a.Backend] < assignOrder[b.Backend]
	})

	return entries
}
