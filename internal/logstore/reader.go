package logstore

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
)

// Reader parses a CSV-style session log with no header row. A parse
// failure on any single row (malformed UUIDs, out-of-range camera/pics
// fields, or the synthesizer's literal corrupted-row marker) is silently
// skipped rather than propagated: the log is expected to contain a
// fraction of corrupted lines. The reader is restartable only by
// reopening the file.
type Reader struct {
	file   *os.File
	csvRdr *csv.Reader
}

// Open opens path for reading with the given buffer size.
func Open(path string, bufferBytes int) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	buffered := bufio.NewReaderSize(file, bufferBytes)

	csvRdr := csv.NewReader(buffered)
	csvRdr.FieldsPerRecord = -1
	csvRdr.ReuseRecord = true

	return &Reader{file: file, csvRdr: csvRdr}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	err := r.file.Close()
	if err != nil {
		return fmt.Errorf("close log file: %w", err)
	}

	return nil
}

const fieldsPerRow = 4

// Next returns the next well-formed row, skipping malformed rows. It
// reports ok=false once the file is exhausted. dropped is incremented
// (by the caller, via the returned count) for every row this call had
// to skip before finding a valid one or reaching EOF.
func (r *Reader) Next() (row Record, ok bool, dropped int, err error) {
	for {
		fields, readErr := r.csvRdr.Read()
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return Record{}, false, dropped, nil
			}
			// A malformed line (wrong quoting, bare-word garbage like the
			// synthesizer's "This row is corrupted" marker) is itself a
			// dropped row, not a fatal error.
			dropped++

			continue
		}

		rec, parseErr := parseRow(fields)
		if parseErr != nil {
			dropped++

			continue
		}

		return rec, true, dropped, nil
	}
}

func parseRow(fields []string) (Record, error) {
	if len(fields) != fieldsPerRow {
		return Record{}, fmt.Errorf("expected %d fields, got %d", fieldsPerRow, len(fields))
	}

	userID, err := uuid.Parse(fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("parse user_id: %w", err)
	}

	sessionID, err := uuid.Parse(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("parse session_id: %w", err)
	}

	cameraID, err := strconv.ParseUint(fields[2], 10, 8)
	if err != nil {
		return Record{}, fmt.Errorf("parse camera_id: %w", err)
	}

	nbPics, err := strconv.ParseUint(fields[3], 10, 8)
	if err != nil {
		return Record{}, fmt.Errorf("parse nb_pics: %w", err)
	}

	return Record{
		UserID:    userID,
		SessionID: sessionID,
		CameraID:  uint8(cameraID),
		NbPics:    uint8(nbPics),
	}, nil
}
