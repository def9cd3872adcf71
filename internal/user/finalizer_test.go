package user

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blevesearch/vellum"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDailySet(t *testing.T, dir, name string, keys [][]byte) string {
	t.Helper()

	// Sort ascending, required by vellum builders.
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if string(keys[j]) < string(keys[i]) {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}

	path := filepath.Join(dir, name)

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	builder, err := vellum.New(file, nil)
	require.NoError(t, err)

	for _, k := range keys {
		require.NoError(t, builder.Insert(k, 0))
	}

	require.NoError(t, builder.Close())

	return path
}

func TestFinalize_MergesAcrossDaysAndRanksBySum(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	userU := uuid.UUID{7}
	sessionA := uuid.UUID{7, 1}
	sessionB := uuid.UUID{7, 2}
	sessionC := uuid.UUID{7, 3}

	dayA := writeDailySet(t, dir, "dayA.fst", [][]byte{
		encodeDailyKey(userU, 5, sessionA),
		encodeDailyKey(userU, 4, sessionB),
	})

	dayB := writeDailySet(t, dir, "dayB.fst", [][]byte{
		encodeDailyKey(userU, 2, sessionA),
		encodeDailyKey(userU, 6, sessionC),
	})

	outPath := filepath.Join(dir, "report.txt")

	require.NoError(t, Finalize([]string{dayA, dayB}, outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	line := strings.TrimRight(string(data), "\n")

	expectedPrefix := userU.String() + "|"
	require.True(t, strings.HasPrefix(line, expectedPrefix))

	rest := strings.TrimPrefix(line, expectedPrefix)
	entries := strings.Split(strings.TrimSuffix(rest, ","), ",")

	require.Len(t, entries, 4)
	assert.Equal(t, sessionC.String()+":6", entries[0])
	assert.Equal(t, sessionA.String()+":5", entries[1])
	assert.Equal(t, sessionB.String()+":4", entries[2])
	assert.Equal(t, sessionA.String()+":2", entries[3])
}

func TestFinalize_NeverEmitsNilSentinelUser(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	session := uuid.UUID{1}

	day := writeDailySet(t, dir, "day.fst", [][]byte{
		encodeDailyKey(uuid.Nil, 3, session),
	})

	outPath := filepath.Join(dir, "report.txt")

	require.NoError(t, Finalize([]string{day}, outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	assert.Empty(t, strings.TrimSpace(string(data)))
}
