package user

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/blevesearch/vellum"

	"github.com/google/uuid"
)

// takeFirst is the merge function used when unioning daily FST sets:
// their values are unused (the set encodes everything in the key), so
// merge simply discards whatever duplicate contributions appear.
func takeFirst(vals []uint64) uint64 {
	if len(vals) == 0 {
		return 0
	}

	return vals[0]
}

// Finalize implements the UserFinalizer stage: it memory-maps and
// unions up to seven daily FST sets in ascending key order and, for
// each user, keeps the first 10 keys encountered (already ranked by
// the 255-sum byte trick) before writing the final text report.
func Finalize(dailySetPaths []string, outPath string) error {
	maps := make([]*mmapFST, 0, len(dailySetPaths))

	defer func() {
		closeAllMmapFSTs(maps)
	}()

	itrs := make([]vellum.Iterator, 0, len(dailySetPaths))

	for _, path := range dailySetPaths {
		m, err := openMmapFST(path)
		if err != nil {
			return fmt.Errorf("open daily fst set %s: %w", path, err)
		}

		maps = append(maps, m)

		itr, err := m.fst.Iterator(nil, nil)
		if err != nil {
			if errors.Is(err, vellum.ErrIteratorDone) {
				continue
			}

			return fmt.Errorf("open iterator over daily fst set %s: %w", path, err)
		}

		itrs = append(itrs, itr)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create user report %s: %w", outPath, err)
	}
	defer out.Close()

	bw := bufio.NewWriterSize(out, writerBufferBytes)

	if len(itrs) > 0 {
		union, err := vellum.NewMergeIterator(itrs, takeFirst)
		if err != nil {
			return fmt.Errorf("build daily set union for %s: %w", outPath, err)
		}

		if walkErr := walkUnionIntoReport(union, bw); walkErr != nil {
			return walkErr
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("final flush of user report %s: %w", outPath, err)
	}

	if err := closeAllMmapFSTs(maps); err != nil {
		return err
	}

	maps = nil

	return nil
}

func walkUnionIntoReport(union *vellum.MergeIterator, bw *bufio.Writer) error {
	var (
		currentUser uuid.UUID
		haveUser    bool
		emitted     int
		sessionIDs  []uuid.UUID
		sums        []int
	)

	for {
		key, _ := union.Current()

		userID, sum, sessionID := decodeDailyKey(key)

		if !haveUser || userID != currentUser {
			if haveUser {
				if err := writeUserLine(bw, currentUser, sessionIDs, sums); err != nil {
					return err
				}
			}

			currentUser = userID
			haveUser = true
			emitted = 0
			sessionIDs = sessionIDs[:0]
			sums = sums[:0]
		}

		if emitted < TopSessions {
			sessionIDs = append(sessionIDs, sessionID)
			sums = append(sums, sum)
			emitted++
		}

		if err := union.Next(); err != nil {
			if errors.Is(err, vellum.ErrIteratorDone) {
				break
			}

			return fmt.Errorf("advance daily set union: %w", err)
		}
	}

	if haveUser {
		if err := writeUserLine(bw, currentUser, sessionIDs, sums); err != nil {
			return err
		}
	}

	return nil
}
