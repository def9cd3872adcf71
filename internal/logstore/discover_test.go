package logstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northlane-data/safaristats/pkg/dateutil"
)

func noneProcessed(dateutil.DateStamp) bool { return false }

func TestDiscover_MissingLogYieldsExactlyOneErrorResult(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	days := dateutil.LastSevenDays()
	for _, day := range days[:len(days)-1] {
		require.NoError(t, os.WriteFile(LogPath(dir, day), []byte{}, 0o600))
	}

	missing := days[len(days)-1]

	results := Discover(dir, noneProcessed)
	require.Len(t, results, len(days))

	var missingCount int

	for _, r := range results {
		if r.Ok() {
			continue
		}

		assert.Equal(t, Unprocessed{}, r.Item, "an error result must not also carry an Unprocessed item")

		missingCount++
	}

	assert.Equal(t, 1, missingCount, "exactly one result should report the missing date %s", missing)
}

func TestDiscover_AllPresentYieldsNoErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	days := dateutil.LastSevenDays()
	for _, day := range days {
		require.NoError(t, os.WriteFile(LogPath(dir, day), []byte{}, 0o600))
	}

	results := Discover(dir, noneProcessed)
	require.Len(t, results, len(days))

	for _, r := range results {
		assert.True(t, r.Ok())
		assert.Equal(t, filepath.Join(dir, DailySessionsPrefix+r.Item.Date.String()+DailySessionsExtension), r.Item.Path)
	}
}

func TestDiscover_ProcessedDaysAreSkippedEntirely(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	days := dateutil.LastSevenDays()
	alreadyProcessed := days[0]

	results := Discover(dir, func(day dateutil.DateStamp) bool {
		return day == alreadyProcessed
	})

	require.Len(t, results, len(days)-1)

	for _, r := range results {
		assert.NotEqual(t, alreadyProcessed, r.Item.Date)
	}
}
