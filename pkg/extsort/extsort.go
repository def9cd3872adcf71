// Package extsort provides a generic external merge-sort engine: records
// accumulate in an in-memory segment that is parallel-sorted and, once it
// reaches a configured capacity, spilled as an LZ4-compressed run to a
// temporary file. Once input is exhausted, the accumulated runs (and any
// final in-memory segment) are merged via a k-way heap merge into a single
// ascending stream.
package extsort

import (
	"bufio"
	"container/heap"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"

	"github.com/pierrec/lz4/v4"
	"golang.org/x/sync/errgroup"
)

// minParallelSortSize is the smallest segment length worth splitting
// across goroutines; below this the fixed cost of spawning workers and
// merging their output outweighs any speedup.
const minParallelSortSize = 1 << 16

// RecordCodec encodes and decodes a single record to and from a stream.
// Decode must return io.EOF (wrapped or bare) when the stream is
// exhausted.
type RecordCodec[T any] interface {
	Encode(w io.Writer, v T) error
	Decode(r io.Reader) (T, error)
}

// Sorter externally sorts a stream of T values by the given Less order.
type Sorter[T any] struct {
	segmentSize int
	less        func(a, b T) bool
	codec       RecordCodec[T]
	tempDir     string
	spillCount  int
}

// New creates a Sorter. tempDir is the directory spill runs are created
// under (typically os.TempDir(), or a caller-chosen scratch directory);
// it must already exist.
func New[T any](segmentSize int, less func(a, b T) bool, codec RecordCodec[T], tempDir string) *Sorter[T] {
	return &Sorter[T]{
		segmentSize: segmentSize,
		less:        less,
		codec:       codec,
		tempDir:     tempDir,
	}
}

// Stream is the merged, ascending-order output of a Sort call.
type Stream[T any] struct {
	next  func() (T, bool, error)
	close func() error
}

// Next returns the next record in ascending order, or ok=false once the
// stream is exhausted.
func (s *Stream[T]) Next() (T, bool, error) {
	return s.next()
}

// Close releases any open run files and deletes their backing temp files.
// Safe to call once after the stream is fully drained or abandoned early.
func (s *Stream[T]) Close() error {
	return s.close()
}

// SpillCount reports how many runs this sorter has spilled to disk across
// all Sort calls so far (primarily for metrics).
func (s *Sorter[T]) SpillCount() int {
	return s.spillCount
}

// Sort drains rows (called repeatedly until it reports ok=false or an
// error) into segments of up to segmentSize records, parallel-sorting and
// spilling each full segment, then returns a Stream over the fully merged
// ascending order.
func (s *Sorter[T]) Sort(rows func() (T, bool, error)) (*Stream[T], error) {
	var (
		segment []T
		runs    []*run[T]
	)

	defer func() {
		s.spillCount += len(runs)
	}()

	for {
		row, ok, err := rows()
		if err != nil {
			return nil, fmt.Errorf("read input row: %w", err)
		}

		if !ok {
			break
		}

		segment = append(segment, row)

		if len(segment) >= s.segmentSize {
			if sortErr := parallelSort(segment, s.less); sortErr != nil {
				return nil, sortErr
			}

			r, spillErr := s.spill(segment)
			if spillErr != nil {
				return nil, spillErr
			}

			runs = append(runs, r)
			segment = nil
		}
	}

	if len(segment) > 0 {
		if sortErr := parallelSort(segment, s.less); sortErr != nil {
			return nil, sortErr
		}
	}

	if len(runs) == 0 {
		return inMemoryStream(segment), nil
	}

	if len(segment) > 0 {
		r, spillErr := s.spill(segment)
		if spillErr != nil {
			return nil, spillErr
		}

		runs = append(runs, r)
	}

	return s.mergeRuns(runs)
}

func inMemoryStream[T any](sorted []T) *Stream[T] {
	i := 0

	return &Stream[T]{
		next: func() (T, bool, error) {
			if i >= len(sorted) {
				var zero T

				return zero, false, nil
			}

			v := sorted[i]
			i++

			return v, true, nil
		},
		close: func() error { return nil },
	}
}

// run is one spilled, LZ4-compressed, codec-encoded sorted segment.
type run[T any] struct {
	path string
}

func (s *Sorter[T]) spill(sorted []T) (*run[T], error) {
	file, err := os.CreateTemp(s.tempDir, "extsort-run-*.bin")
	if err != nil {
		return nil, fmt.Errorf("create spill run file: %w", err)
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	lzw := lz4.NewWriter(bw)

	for _, v := range sorted {
		if encErr := s.codec.Encode(lzw, v); encErr != nil {
			return nil, fmt.Errorf("encode spill record into %s: %w", file.Name(), encErr)
		}
	}

	if closeErr := lzw.Close(); closeErr != nil {
		return nil, fmt.Errorf("close lz4 writer for %s: %w", file.Name(), closeErr)
	}

	if flushErr := bw.Flush(); flushErr != nil {
		return nil, fmt.Errorf("flush spill run %s: %w", file.Name(), flushErr)
	}

	return &run[T]{path: file.Name()}, nil
}

// heapItem is one run's current head value, used by the k-way merge heap.
type heapItem[T any] struct {
	value   T
	runIdx  int
}

type mergeHeap[T any] struct {
	items []heapItem[T]
	less  func(a, b T) bool
}

func (h *mergeHeap[T]) Len() int { return len(h.items) }
func (h *mergeHeap[T]) Less(i, j int) bool {
	return h.less(h.items[i].value, h.items[j].value)
}

func (h *mergeHeap[T]) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *mergeHeap[T]) Push(x any) {
	h.items = append(h.items, x.(heapItem[T]))
}

func (h *mergeHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]

	return item
}

func (s *Sorter[T]) mergeRuns(runs []*run[T]) (*Stream[T], error) {
	readers := make([]io.Reader, len(runs))
	closers := make([]func() error, len(runs))

	for i, r := range runs {
		file, err := os.Open(r.path)
		if err != nil {
			return nil, fmt.Errorf("open spill run %s: %w", r.path, err)
		}

		lzr := lz4.NewReader(bufio.NewReader(file))
		readers[i] = lzr

		path := r.path

		closers[i] = func() error {
			closeErr := file.Close()
			removeErr := os.Remove(path)

			if closeErr != nil {
				return fmt.Errorf("close spill run %s: %w", path, closeErr)
			}

			if removeErr != nil {
				return fmt.Errorf("remove spill run %s: %w", path, removeErr)
			}

			return nil
		}
	}

	h := &mergeHeap[T]{less: s.less}
	heap.Init(h)

	for i, r := range readers {
		v, ok, err := decodeNext(s.codec, r)
		if err != nil {
			return nil, err
		}

		if ok {
			heap.Push(h, heapItem[T]{value: v, runIdx: i})
		}
	}

	closeAll := func() error {
		var firstErr error

		for _, c := range closers {
			if err := c(); err != nil && firstErr == nil {
				firstErr = err
			}
		}

		return firstErr
	}

	next := func() (T, bool, error) {
		if h.Len() == 0 {
			var zero T

			return zero, false, nil
		}

		top := heap.Pop(h).(heapItem[T])

		v, ok, err := decodeNext(s.codec, readers[top.runIdx])
		if err != nil {
			return top.value, false, err
		}

		if ok {
			heap.Push(h, heapItem[T]{value: v, runIdx: top.runIdx})
		}

		return top.value, true, nil
	}

	return &Stream[T]{next: next, close: closeAll}, nil
}

func decodeNext[T any](codec RecordCodec[T], r io.Reader) (T, bool, error) {
	v, err := codec.Decode(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			var zero T

			return zero, false, nil
		}

		var zero T

		return zero, false, fmt.Errorf("decode spill record: %w", err)
	}

	return v, true, nil
}

// ParallelSort sorts items in place, splitting the work across a bounded
// worker pool when the slice is large enough to benefit. Exported so
// other packages needing the same bounded in-place sort (e.g. the user
// pipeline's batch sort) do not need their own worker-pool plumbing.
func ParallelSort[T any](items []T, less func(a, b T) bool) error {
	return parallelSort(items, less)
}

// parallelSort sorts items in place, splitting the work across a bounded
// worker pool via errgroup when the segment is large enough to benefit.
func parallelSort[T any](items []T, less func(a, b T) bool) error {
	n := len(items)
	if n < minParallelSortSize {
		sort.Slice(items, func(i, j int) bool { return less(items[i], items[j]) })

		return nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	if workers < 2 {
		sort.Slice(items, func(i, j int) bool { return less(items[i], items[j]) })

		return nil
	}

	chunkSize := (n + workers - 1) / workers

	chunks := make([][]T, 0, workers)

	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		chunks = append(chunks, items[start:end])
	}

	var g errgroup.Group

	for _, chunk := range chunks {
		g.Go(func() error {
			sort.Slice(chunk, func(i, j int) bool { return less(chunk[i], chunk[j]) })

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("parallel segment sort: %w", err)
	}

	merged := mergeSortedChunks(chunks, less)
	copy(items, merged)

	return nil
}

// mergeSortedChunks k-way merges already-sorted in-memory chunks.
func mergeSortedChunks[T any](chunks [][]T, less func(a, b T) bool) []T {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}

	merged := make([]T, 0, total)
	indices := make([]int, len(chunks))

	for {
		best := -1

		for i, c := range chunks {
			if indices[i] >= len(c) {
				continue
			}

			if best == -1 || less(c[indices[i]], chunks[best][indices[best]]) {
				best = i
			}
		}

		if best == -1 {
			break
		}

		merged = append(merged, chunks[best][indices[best]])
		indices[best]++
	}

	return merged
}
