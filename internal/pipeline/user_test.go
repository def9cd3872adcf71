package pipeline

import (
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northlane-data/safaristats/pkg/dateutil"
)

func TestRunUser_ProducesReportForTodayOnly(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	outDir := t.TempDir()

	user := uuid.New().String()
	session := uuid.New().String()

	days := dateutil.LastSevenDays()
	for i, day := range days {
		if i == len(days)-1 {
			writeLogFile(t, logDir, day, []string{
				user + "," + session + ",3,10",
				user + "," + session + ",3,20",
			})

			continue
		}

		writeLogFile(t, logDir, day, nil)
	}

	cfg := testConfig(t)

	summary, err := RunUser(cfg, logDir, outDir)
	require.NoError(t, err)

	assert.Equal(t, 7, summary.DaysProcessed)
	assert.Equal(t, 2, summary.RowsRead)
	assert.Equal(t, 0, summary.RowsDropped)

	data, err := os.ReadFile(summary.ReportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), user+"|"))
	assert.Contains(t, string(data), session+":30")
}

func TestRunUser_MissingLogFileSurfacesError(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	outDir := t.TempDir()

	cfg := testConfig(t)

	_, err := RunUser(cfg, logDir, outDir)
	require.Error(t, err)
}
