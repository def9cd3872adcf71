package extsort

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intCodec struct{}

func (intCodec) Encode(w io.Writer, v int) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))

	_, err := w.Write(buf[:])

	return err
}

func (intCodec) Decode(r io.Reader) (int, error) {
	var buf [8]byte

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return int(binary.LittleEndian.Uint64(buf[:])), nil
}

func lessInt(a, b int) bool { return a < b }

func sliceReader(values []int) func() (int, bool, error) {
	i := 0

	return func() (int, bool, error) {
		if i >= len(values) {
			return 0, false, nil
		}

		v := values[i]
		i++

		return v, true, nil
	}
}

func drain(t *testing.T, stream *Stream[int]) []int {
	t.Helper()

	var out []int

	for {
		v, ok, err := stream.Next()
		require.NoError(t, err)

		if !ok {
			break
		}

		out = append(out, v)
	}

	return out
}

func TestSort_AllInMemorySegment(t *testing.T) {
	t.Parallel()

	sorter := New[int](1000, lessInt, intCodec{}, t.TempDir())

	input := []int{5, 3, 1, 4, 2}
	stream, err := sorter.Sort(sliceReader(input))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, drain(t, stream))
	assert.Equal(t, 0, sorter.SpillCount())
}

func TestSort_SpillsAndMergesMultipleRuns(t *testing.T) {
	t.Parallel()

	sorter := New[int](3, lessInt, intCodec{}, t.TempDir())

	input := []int{9, 1, 8, 2, 7, 3, 6, 4, 5}
	stream, err := sorter.Sort(sliceReader(input))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, drain(t, stream))
	assert.Equal(t, 3, sorter.SpillCount())
}

func TestSort_EmptyInput(t *testing.T) {
	t.Parallel()

	sorter := New[int](10, lessInt, intCodec{}, t.TempDir())

	stream, err := sorter.Sort(sliceReader(nil))
	require.NoError(t, err)
	defer stream.Close()

	assert.Empty(t, drain(t, stream))
}

func TestSort_PropagatesReadError(t *testing.T) {
	t.Parallel()

	sorter := New[int](10, lessInt, intCodec{}, t.TempDir())

	boom := fmt.Errorf("boom")

	_, err := sorter.Sort(func() (int, bool, error) {
		return 0, false, boom
	})

	require.ErrorIs(t, err, boom)
}

func TestParallelSort_LargeSliceMatchesStdlibSort(t *testing.T) {
	t.Parallel()

	n := minParallelSortSize * 3
	items := make([]int, n)

	rnd := rand.New(rand.NewSource(1))
	for i := range items {
		items[i] = rnd.Intn(n)
	}

	want := make([]int, n)
	copy(want, items)
	sort.Ints(want)

	require.NoError(t, ParallelSort(items, lessInt))
	assert.Equal(t, want, items)
}

func TestParallelSort_SmallSliceUsesDirectSort(t *testing.T) {
	t.Parallel()

	items := []int{3, 1, 2}

	require.NoError(t, ParallelSort(items, lessInt))
	assert.Equal(t, []int{1, 2, 3}, items)
}

func TestMergeSortedChunks(t *testing.T) {
	t.Parallel()

	chunks := [][]int{{1, 4, 7}, {2, 5}, {3, 6, 8, 9}}

	got := mergeSortedChunks(chunks, lessInt)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestSpill_UsesBufferedLZ4Encoding(t *testing.T) {
	t.Parallel()

	sorter := New[int](1000, lessInt, intCodec{}, t.TempDir())

	r, err := sorter.spill([]int{1, 2, 3})
	require.NoError(t, err)

	stream, err := sorter.mergeRuns([]*run[int]{r})
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, []int{1, 2, 3}, drain(t, stream))
}
