package user

import (
	"errors"
	"fmt"
	"os"

	"github.com/blevesearch/vellum"
)

// sumMerge combines a batch key's contributions across all batch FST
// maps it appeared in: the dedup-and-sum step only collapses within one
// batch, so a (user, session) pair split across batch boundaries is
// recombined here.
func sumMerge(vals []uint64) uint64 {
	var total uint64

	for _, v := range vals {
		total += v
	}

	return total
}

// BuildDay implements the UserDayBuilder stage: it unions every batch
// FST map under tempDir, groups the union by user_id, computes each
// user's top-10 session sums, and writes a single FST set (keys per
// encodeDailyKey) to outPath. tempDir is removed once the set is built.
func BuildDay(tempDir string, batchFiles []string, outPath string) error {
	if len(batchFiles) == 0 {
		if err := buildEmptyDaySet(outPath); err != nil {
			return err
		}

		if err := os.RemoveAll(tempDir); err != nil {
			return fmt.Errorf("remove temp batch dir %s: %w", tempDir, err)
		}

		return nil
	}

	maps := make([]*mmapFST, 0, len(batchFiles))

	defer func() {
		closeAllMmapFSTs(maps)
	}()

	itrs := make([]vellum.Iterator, 0, len(batchFiles))

	for _, path := range batchFiles {
		m, err := openMmapFST(path)
		if err != nil {
			return fmt.Errorf("open batch fst %s: %w", path, err)
		}

		maps = append(maps, m)

		itr, err := m.fst.Iterator(nil, nil)
		if err != nil {
			if errors.Is(err, vellum.ErrIteratorDone) {
				continue
			}

			return fmt.Errorf("open iterator over batch fst %s: %w", path, err)
		}

		itrs = append(itrs, itr)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create daily fst set %s: %w", outPath, err)
	}
	defer out.Close()

	builder, err := vellum.New(out, nil)
	if err != nil {
		return fmt.Errorf("create daily fst set builder for %s: %w", outPath, err)
	}

	if len(itrs) > 0 {
		union, err := vellum.NewMergeIterator(itrs, sumMerge)
		if err != nil {
			return fmt.Errorf("build batch union for %s: %w", outPath, err)
		}

		if walkErr := walkUnionIntoDaySet(union, builder); walkErr != nil {
			return walkErr
		}
	}

	if err := builder.Close(); err != nil {
		return fmt.Errorf("finish daily fst set %s: %w", outPath, err)
	}

	if err := closeAllMmapFSTs(maps); err != nil {
		return err
	}

	maps = nil

	if err := os.RemoveAll(tempDir); err != nil {
		return fmt.Errorf("remove temp batch dir %s: %w", tempDir, err)
	}

	return nil
}

// walkUnionIntoDaySet drives union (ascending 32-byte batch keys: user ++
// session, summed contributions) and, on each change of user_id, flushes
// the outgoing user's top-10 as daily FST set keys.
func walkUnionIntoDaySet(union *vellum.MergeIterator, builder *vellum.Builder) error {
	var (
		current  *BestSumPics
		haveUser bool
	)

	flush := func() error {
		if !haveUser {
			return nil
		}

		return flushUserTopTen(builder, current)
	}

	for {
		key, val := union.Current()

		rec := decodeBatchKey(key)

		if !haveUser || rec.UserID != current.UserID {
			if err := flush(); err != nil {
				return err
			}

			current = NewBestSumPics(rec.UserID)
			haveUser = true
		}

		// Rank on the clamped sum the daily key can encode, so best's
		// order matches the key order flushUserTopTen inserts in.
		current.UpdateOnImprovement(rec.SessionID, clampSum(clampWideSum(val)))

		if err := union.Next(); err != nil {
			if errors.Is(err, vellum.ErrIteratorDone) {
				break
			}

			return fmt.Errorf("advance batch union: %w", err)
		}
	}

	return flush()
}

// flushUserTopTen emits up to 10 daily FST set keys for best's filled
// slots, in ascending order (guaranteed by the 255-sum encoding since
// best.Sums is already sum-descending, session-ascending on ties).
func flushUserTopTen(builder *vellum.Builder, best *BestSumPics) error {
	for i := 0; i < TopSessions; i++ {
		if best.Sums[i] < 0 {
			continue
		}

		key := encodeDailyKey(best.UserID, best.Sums[i], best.SessionIDs[i])

		if err := builder.Insert(key, 0); err != nil {
			return fmt.Errorf("insert daily fst set key: %w", err)
		}
	}

	return nil
}

// buildEmptyDaySet writes a valid, empty FST set when a day produced no
// batch files at all (e.g. a wholly-corrupted or empty log).
func buildEmptyDaySet(outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create daily fst set %s: %w", outPath, err)
	}
	defer out.Close()

	builder, err := vellum.New(out, nil)
	if err != nil {
		return fmt.Errorf("create daily fst set builder for %s: %w", outPath, err)
	}

	if err := builder.Close(); err != nil {
		return fmt.Errorf("finish empty daily fst set %s: %w", outPath, err)
	}

	return nil
}
