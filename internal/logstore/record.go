// Package logstore provides the shared log-file abstraction both
// pipelines read from: row parsing and the seven-day discovery sweep.
package logstore

import (
	"github.com/google/uuid"
)

// Record is one parsed input row: a user's participation in a session's
// use of a camera, and how many photos they took.
type Record struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	CameraID  uint8
	NbPics    uint8
}
