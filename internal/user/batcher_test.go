package user

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blevesearch/vellum"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northlane-data/safaristats/internal/logstore"
)

func writeUserLogFile(t *testing.T, lines []string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "day.log")

	content := ""
	for _, l := range lines {
		content += l + "\n"
	}

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestBatcher_Run_SpillsDedupedSortedBatch(t *testing.T) {
	t.Parallel()

	user := "11111111-1111-1111-1111-111111111111"
	session := "22222222-2222-2222-2222-222222222222"

	lines := []string{
		user + "," + session + ",1,2",
		user + "," + session + ",1,3",
		"garbage line, drop me",
		user + "," + session + ",1,1",
	}

	logPath := writeUserLogFile(t, lines)

	reader, err := logstore.Open(logPath, 4096)
	require.NoError(t, err)
	defer reader.Close()

	tempDir := filepath.Join(t.TempDir(), "batches")
	batcher := NewBatcher(10, 0.5, tempDir)

	result, err := batcher.Run(reader)
	require.NoError(t, err)

	assert.Equal(t, 3, result.RowsRead)
	assert.Equal(t, 1, result.RowsDropped)
	require.Len(t, result.BatchFiles, 1)

	data, err := os.ReadFile(result.BatchFiles[0])
	require.NoError(t, err)

	fst, err := vellum.Load(data)
	require.NoError(t, err)
	defer fst.Close()

	parsedUser, err := uuid.Parse(user)
	require.NoError(t, err)

	parsedSession, err := uuid.Parse(session)
	require.NoError(t, err)

	rec := SessionRecord{UserID: parsedUser, SessionID: parsedSession}

	var key [batchKeySize]byte
	encodeBatchKey(&key, rec)

	val, exists, err := fst.Get(key[:])
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, uint64(6), val)
}

func TestBatcher_Run_RecreatesTempDir(t *testing.T) {
	t.Parallel()

	tempDir := filepath.Join(t.TempDir(), "batches")
	require.NoError(t, os.MkdirAll(tempDir, 0o755))

	stalePath := filepath.Join(tempDir, "stale.txt")
	require.NoError(t, os.WriteFile(stalePath, []byte("old"), 0o600))

	logPath := writeUserLogFile(t, nil)

	reader, err := logstore.Open(logPath, 4096)
	require.NoError(t, err)
	defer reader.Close()

	batcher := NewBatcher(10, 0.5, tempDir)

	_, err = batcher.Run(reader)
	require.NoError(t, err)

	_, statErr := os.Stat(stalePath)
	assert.True(t, os.IsNotExist(statErr), "stale files from a previous run must not survive")
}

