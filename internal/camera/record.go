// Package camera implements the CAM-TOP100 pipeline: external sort of a
// day's log into (session, camera) groups, top-100 per-camera averages,
// cross-day merge, and the final text report.
package camera

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/northlane-data/safaristats/internal/logstore"
)

// Record is the projection of a log row this pipeline cares about:
// (session_id, camera_id, nb_pics), the external sort's unit of work.
type Record struct {
	SessionID uuid.UUID
	CameraID  uint8
	NbPics    uint8
}

// FromLogRecord projects a raw log row to a Record.
func FromLogRecord(r logstore.Record) Record {
	return Record{
		SessionID: r.SessionID,
		CameraID:  r.CameraID,
		NbPics:    r.NbPics,
	}
}

// Less orders records by (session_id, camera_id) ascending, the key the
// external sorter groups adjacent-equal runs on.
func Less(a, b Record) bool {
	cmp := bytes.Compare(a.SessionID[:], b.SessionID[:])
	if cmp != 0 {
		return cmp < 0
	}

	return a.CameraID < b.CameraID
}

// recordSize is the fixed encoded size of a Record: 16 bytes UUID + 1
// byte camera id + 1 byte nb_pics.
const recordSize = 18

// RecordCodec implements extsort.RecordCodec[Record] for spill runs.
type RecordCodec struct{}

// Encode writes a Record in its fixed 18-byte layout.
func (RecordCodec) Encode(w io.Writer, v Record) error {
	var buf [recordSize]byte

	copy(buf[0:16], v.SessionID[:])
	buf[16] = v.CameraID
	buf[17] = v.NbPics

	_, err := w.Write(buf[:])
	if err != nil {
		return fmt.Errorf("encode camera record: %w", err)
	}

	return nil
}

// Decode reads a Record from its fixed 18-byte layout. Returns io.EOF
// (unwrapped) when the stream is exhausted, per extsort.RecordCodec's
// contract.
func (RecordCodec) Decode(r io.Reader) (Record, error) {
	var buf [recordSize]byte

	_, err := io.ReadFull(r, buf[:])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, io.EOF
		}

		return Record{}, fmt.Errorf("decode camera record: %w", err)
	}

	var rec Record

	copy(rec.SessionID[:], buf[0:16])
	rec.CameraID = buf[16]
	rec.NbPics = buf[17]

	return rec, nil
}
