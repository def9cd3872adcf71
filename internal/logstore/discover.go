package logstore

import (
	"fmt"
	"os"

	"github.com/northlane-data/safaristats/pkg/dateutil"
)

// Unprocessed describes one day's log file that still needs processing:
// its date and the path it is expected to live at.
type Unprocessed struct {
	Date dateutil.DateStamp
	Path string
}

// Discover walks the trailing seven-day window (today back to today-6)
// and, for each date that processed reports as not yet processed,
// yields one item: an Unprocessed descriptor if the expected log file
// exists, or an error if it does not. The sequence is not
// short-circuited by a missing file — callers decide whether to abort.
//
// The original implementation emitted both an error *and* an Unprocessed
// descriptor for a missing date (discovered while studying
// common-utils/file_utils.rs); this is treated as a bug and fixed here:
// each date in the window contributes exactly one item.
func Discover(dir string, processed func(dateutil.DateStamp) bool) []DiscoverResult {
	var results []DiscoverResult

	for _, day := range dateutil.LastSevenDays() {
		if processed(day) {
			continue
		}

		path := LogPath(dir, day)

		if _, err := os.Stat(path); err != nil {
			results = append(results, DiscoverResult{
				Err: fmt.Errorf("unprocessed session log file for %s not found at %s: %w", day, path, err),
			})

			continue
		}

		results = append(results, DiscoverResult{
			Item: Unprocessed{Date: day, Path: path},
		})
	}

	return results
}

// DiscoverResult is one entry in a Discover sweep: either a valid
// Unprocessed descriptor or an error explaining why the date's log could
// not be found.
type DiscoverResult struct {
	Item Unprocessed
	Err  error
}

// Ok reports whether this result carries a usable Unprocessed item.
func (d DiscoverResult) Ok() bool {
	return d.Err == nil
}
