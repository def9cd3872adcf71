package camera

import (
	"fmt"

	"github.com/northlane-data/safaristats/internal/logstore"
	"github.com/northlane-data/safaristats/pkg/extsort"
)

// Extractor turns one day's log file into a Mapping of per-camera
// top-100 session averages. It streams the log through an external sort
// keyed on (session_id, camera_id), then folds each contiguous run of
// equal (session_id, camera_id) rows into a single average.
type Extractor struct {
	segmentSize int
	tempDir     string
}

// NewExtractor creates an Extractor. segmentSize bounds the number of
// records held in memory before a sort segment spills to tempDir.
func NewExtractor(segmentSize int, tempDir string) *Extractor {
	return &Extractor{segmentSize: segmentSize, tempDir: tempDir}
}

// Result is the outcome of extracting one day's log: the top-100 mapping
// plus counters useful for metrics/logging.
type Result struct {
	Mapping     *Mapping
	RowsRead    int
	RowsDropped int
	Spills      int
}

// Extract streams reader to completion and returns the day's Mapping.
func (e *Extractor) Extract(reader *logstore.Reader) (Result, error) {
	sorter := extsort.New[Record](e.segmentSize, Less, RecordCodec{}, e.tempDir)

	var (
		rowsRead    int
		rowsDropped int
	)

	pull := func() (Record, bool, error) {
		row, ok, dropped, err := reader.Next()
		rowsDropped += dropped

		if err != nil {
			return Record{}, false, fmt.Errorf("read log row: %w", err)
		}

		if !ok {
			return Record{}, false, nil
		}

		rowsRead++

		return FromLogRecord(row), true, nil
	}

	stream, err := sorter.Sort(pull)
	if err != nil {
		return Result{}, fmt.Errorf("sort day's log records: %w", err)
	}
	defer stream.Close()

	mapping, err := groupAndFold(stream)
	if err != nil {
		return Result{}, err
	}

	return Result{Mapping: mapping, RowsRead: rowsRead, RowsDropped: rowsDropped, Spills: sorter.SpillCount()}, nil
}

// groupAndFold consumes an ascending stream of Records and folds each
// contiguous run sharing (session_id, camera_id) into a single average,
// updating mapping as each group completes.
func groupAndFold(stream *extsort.Stream[Record]) (*Mapping, error) {
	mapping := NewMapping()

	var (
		haveGroup  bool
		groupSID   Record
		groupSum   int64
		groupCount int64
	)

	flush := func() {
		if !haveGroup {
			return
		}

		avg := float32(groupSum) / float32(groupCount)
		mapping.UpdateOnImprovement(groupSID.CameraID, groupSID.SessionID, avg)
	}

	for {
		rec, ok, err := stream.Next()
		if err != nil {
			return nil, fmt.Errorf("read sorted camera record: %w", err)
		}

		if !ok {
			break
		}

		if haveGroup && rec.SessionID == groupSID.SessionID && rec.CameraID == groupSID.CameraID {
			groupSum += int64(rec.NbPics)
			groupCount++

			continue
		}

		flush()

		haveGroup = true
		groupSID = rec
		groupSum = int64(rec.NbPics)
		groupCount = 1
	}

	flush()

	return mapping, nil
}
