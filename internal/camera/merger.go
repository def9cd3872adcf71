package camera

import "errors"

// ErrNoMappingsToMerge is returned by Merge when given an empty slice:
// a rolling 7-day leaderboard with zero processed days is a caller error,
// not a valid (empty) result.
var ErrNoMappingsToMerge = errors.New("camera: no mappings to merge")

// Merge folds a window of per-day Mappings (oldest to newest, order does
// not matter for correctness) into a single Mapping holding the top-100
// sessions per camera across the whole window.
func Merge(mappings []*Mapping) (*Mapping, error) {
	if len(mappings) == 0 {
		return nil, ErrNoMappingsToMerge
	}

	acc := mappings[0]

	for _, m := range mappings[1:] {
		acc.AddAssign(m)
	}

	return acc, nil
}
