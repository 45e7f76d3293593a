package council

// CheckConsensus reports whether the evaluators converged on a single
// top choice: one backend collecting at least threshold of all
// first-place votes cast. With no first-place votes there is nothing
// to converge on and consensus is not reached.
func CheckConsensus(aggregate []AggregateEntry, threshold float64) Consensus {
	total := 0
	var top AggregateEntry
	for _, entry := range aggregate {
		total += entry.FirstPlace
		if entry.FirstPlace > top.FirstPlace {
			top = entry
		}
	}
	if total == 0 {
		return Consensus{}
	}

	share := float64(top.FirstPlace) / float64(total)
	return Consensus{
		Reached:    share >= threshold,
		TopBackend: top.Backend,
		Share:      share,
	}
}
