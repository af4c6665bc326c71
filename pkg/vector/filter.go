package vector

// Similarity converts a cosine distance into a similarity score.
func Similarity(distance float64) float64 {
	return 1 - distance
}

// FilterByFloor keeps the matches whose similarity meets the floor,
// preserving their rank order. It operates on the already-limited top-k rows,
// so the output can hold fewer qualifying rows than exist in the full
// ranking.
func FilterByFloor(matches []Match, floor float64) []Match {
	kept := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Similarity >= floor {
			kept = append(kept, m)
		}
	}
	return kept
}
