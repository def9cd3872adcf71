package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northlane-data/safaristats/pkg/dateutil"
)

func writeCommandTestConfig(t *testing.T, serializationDir, savedFSTDir string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "safaristats.yaml")

	content := "camera:\n  segment_size: 1000\n" +
		"user:\n  capacity_limit: 1000\n  max_fill_ratio_after_collect: 0.5\n" +
		"paths:\n  serialization_dir: " + serializationDir + "\n  saved_fst_dir: " + savedFSTDir + "\n"

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func writeCommandTestLogs(t *testing.T, dir string) {
	t.Helper()

	user := uuid.New().String()
	session := uuid.New().String()

	days := dateutil.LastSevenDays()
	for i, day := range days {
		path := filepath.Join(dir, "safari-sessions-"+day.String()+".log")

		var content string
		if i == len(days)-1 {
			content = user + "," + session + ",1,5\n"
		}

		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func TestCameraCommand_RunsEndToEnd(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	outDir := t.TempDir()

	writeCommandTestLogs(t, logDir)

	configPath := writeCommandTestConfig(t, filepath.Join(t.TempDir(), "serialized"), filepath.Join(t.TempDir(), "fst"))

	cmd := NewCameraCommand()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{logDir, outDir, "--config", configPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "camera pipeline complete")
}

func TestCameraCommand_RejectsWrongArgCount(t *testing.T) {
	t.Parallel()

	cmd := NewCameraCommand()
	cmd.SetArgs([]string{"only-one-arg"})

	require.Error(t, cmd.Execute())
}
