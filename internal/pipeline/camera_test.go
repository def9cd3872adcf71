package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northlane-data/safaristats/pkg/config"
	"github.com/northlane-data/safaristats/pkg/dateutil"
)

func writeLogFile(t *testing.T, dir string, date dateutil.DateStamp, lines []string) {
	t.Helper()

	path := filepath.Join(dir, "safari-sessions-"+date.String()+".log")

	var content string
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{}
	cfg.Camera.SegmentSize = 1000
	cfg.User.CapacityLimit = 1000
	cfg.User.MaxFillRatioAfterCollect = 0.5
	cfg.Buffer.LogReaderBytes = 4096
	cfg.Paths.SerializationDir = filepath.Join(t.TempDir(), "serialized")
	cfg.Paths.SavedFSTDir = filepath.Join(t.TempDir(), "fst")

	return cfg
}

func TestRunCamera_ProducesReportForTodayOnly(t *testing.T) {
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

	summary, err := RunCamera(cfg, logDir, outDir)
	require.NoError(t, err)

	assert.Equal(t, 7, summary.DaysProcessed)
	assert.Equal(t, 2, summary.RowsRead)
	assert.Equal(t, 0, summary.RowsDropped)

	data, err := os.ReadFile(summary.ReportPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestRunCamera_MissingLogFileSurfacesError(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	outDir := t.TempDir()

	cfg := testConfig(t)

	_, err := RunCamera(cfg, logDir, outDir)
	require.Error(t, err)
}
