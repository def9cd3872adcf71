package user

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/vellum"

	"github.com/northlane-data/safaristats/internal/logstore"
	"github.com/northlane-data/safaristats/pkg/extsort"
)

// pair is one pending (session key, contribution) entry in a batch. Sum
// is uint64 even though a single row's nb_pics is a byte: the dedup
// step below widens the accumulator per the spec's open question,
// since summing bytes into a byte risks silent overflow.
type pair struct {
	key SessionRecord
	sum uint64
}

// Batcher implements the UserBatcher stage: it streams one day's log,
// accumulates (user, session) -> sum(nb_pics) in bounded in-memory
// batches, and spills each batch as a sorted FST map under tempDir.
type Batcher struct {
	capacityLimit            int
	maxFillRatioAfterCollect float64
	tempDir                  string
}

// NewBatcher creates a Batcher. capacityLimit bounds the in-memory pair
// count before a collapse attempt; maxFillRatioAfterCollect is the
// fraction of capacityLimit a collapsed batch must still reach to be
// spilled rather than kept resident.
func NewBatcher(capacityLimit int, maxFillRatioAfterCollect float64, tempDir string) *Batcher {
	return &Batcher{
		capacityLimit:            capacityLimit,
		maxFillRatioAfterCollect: maxFillRatioAfterCollect,
		tempDir:                  tempDir,
	}
}

// Result reports what one Run produced.
type Result struct {
	RowsRead    int
	RowsDropped int
	BatchFiles  []string
}

// Run recreates the batcher's temp directory, drains reader through it,
// and returns the batch FST map files written there.
func (b *Batcher) Run(reader *logstore.Reader) (Result, error) {
	if err := os.RemoveAll(b.tempDir); err != nil {
		return Result{}, fmt.Errorf("remove existing temp dir %s: %w", b.tempDir, err)
	}

	if err := os.MkdirAll(b.tempDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create temp dir %s: %w", b.tempDir, err)
	}

	var (
		batch       []pair
		batchFiles  []string
		rowsRead    int
		rowsDropped int
		spillIndex  int
	)

	for {
		row, ok, dropped, err := reader.Next()
		rowsDropped += dropped

		if err != nil {
			return Result{}, fmt.Errorf("read log row: %w", err)
		}

		if !ok {
			break
		}

		rowsRead++

		batch = append(batch, pair{key: FromLogRecord(row), sum: uint64(row.NbPics)})

		if len(batch) < b.capacityLimit {
			continue
		}

		collapsed, err := collapseBatch(batch)
		if err != nil {
			return Result{}, err
		}

		threshold := b.maxFillRatioAfterCollect * float64(b.capacityLimit)
		if float64(len(collapsed)) >= threshold {
			spillIndex++

			path, err := b.spillBatch(collapsed, spillIndex)
			if err != nil {
				return Result{}, err
			}

			batchFiles = append(batchFiles, path)
			batch = nil
		} else {
			batch = collapsed
		}
	}

	if len(batch) > 0 {
		collapsed, err := collapseBatch(batch)
		if err != nil {
			return Result{}, err
		}

		spillIndex++

		path, err := b.spillBatch(collapsed, spillIndex)
		if err != nil {
			return Result{}, err
		}

		batchFiles = append(batchFiles, path)
	}

	return Result{RowsRead: rowsRead, RowsDropped: rowsDropped, BatchFiles: batchFiles}, nil
}

// collapseBatch sorts batch by key and collapses adjacent equal keys by
// summing their contributions.
func collapseBatch(batch []pair) ([]pair, error) {
	if err := extsort.ParallelSort(batch, func(a, b pair) bool { return Less(a.key, b.key) }); err != nil {
		return nil, fmt.Errorf("sort batch: %w", err)
	}

	collapsed := batch[:0:0]

	for _, p := range batch {
		if len(collapsed) > 0 && collapsed[len(collapsed)-1].key == p.key {
			collapsed[len(collapsed)-1].sum += p.sum

			continue
		}

		collapsed = append(collapsed, p)
	}

	return collapsed, nil
}

// spillBatch writes collapsed (already sorted, ascending, unique keys)
// as a new FST map file temp/<n>.fst, returning its path.
func (b *Batcher) spillBatch(collapsed []pair, n int) (string, error) {
	path := filepath.Join(b.tempDir, fmt.Sprintf("%d.fst", n))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create batch fst %s: %w", path, err)
	}
	defer file.Close()

	builder, err := vellum.New(file, nil)
	if err != nil {
		return "", fmt.Errorf("create fst builder for %s: %w", path, err)
	}

	var keyBuf [batchKeySize]byte

	for _, p := range collapsed {
		encodeBatchKey(&keyBuf, p.key)

		if err := builder.Insert(keyBuf[:], p.sum); err != nil {
			return "", fmt.Errorf("insert into batch fst %s: %w", path, err)
		}
	}

	if err := builder.Close(); err != nil {
		return "", fmt.Errorf("finish batch fst %s: %w", path, err)
	}

	return path, nil
}
