package enrich

import "sort"

// Rank orders features for output: containing features first, then by
// distance ascending. The sort is stable, so ties keep the merge order the
// legs produced.
func Rank(features []Feature) {
	sort.SliceStable(features, func(i, j int) bool {
		if features[i].IsContaining != features[j].IsContaining {
			return features[i].IsContaining
		}
		return features[i].DistanceMiles < features[j].DistanceMiles
	})
}
