// Package user implements the USER-TOP10 pipeline: batched FST maps,
// memory-mapped union-streaming, and a byte-level sum-ordering trick
// that yields each user's top-10 sessions at sequential read time.
package user

import (
	"bytes"

	"github.com/google/uuid"

	"github.com/northlane-data/safaristats/internal/logstore"
)

// SessionRecord identifies one (user, session) pair; it is the key the
// batcher accumulates nb_pics sums under. Total order is lexicographic
// over the 32-byte concatenation user_id ++ session_id.
type SessionRecord struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
}

// FromLogRecord projects a raw log row to its (user, session) key.
func FromLogRecord(r logstore.Record) SessionRecord {
	return SessionRecord{UserID: r.UserID, SessionID: r.SessionID}
}

// Less orders two SessionRecords by their 32-byte key ascending.
func Less(a, b SessionRecord) bool {
	var ab, bb [batchKeySize]byte

	encodeBatchKey(&ab, a)
	encodeBatchKey(&bb, b)

	return bytes.Compare(ab[:], bb[:]) < 0
}

// batchKeySize is the FST map key width used by the batcher: a 16-byte
// user id followed by a 16-byte session id.
const batchKeySize = 32

// encodeBatchKey writes r's 32-byte batch FST key into dst.
func encodeBatchKey(dst *[batchKeySize]byte, r SessionRecord) {
	copy(dst[0:16], r.UserID[:])
	copy(dst[16:32], r.SessionID[:])
}

// decodeBatchKey parses a 32-byte batch FST key back into a SessionRecord.
func decodeBatchKey(key []byte) SessionRecord {
	var r SessionRecord

	copy(r.UserID[:], key[0:16])
	copy(r.SessionID[:], key[16:32])

	return r
}
