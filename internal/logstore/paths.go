package logstore

import (
	"path/filepath"

	"github.com/northlane-data/safaristats/pkg/dateutil"
)

// DailySessionsPrefix and DailySessionsExtension name the daily log
// file convention: safari-sessions-YYYYMMDD.log.
const (
	DailySessionsPrefix    = "safari-sessions-"
	DailySessionsExtension = ".log"
)

// LogPath returns the expected log file path for date within dir.
func LogPath(dir string, date dateutil.DateStamp) string {
	return filepath.Join(dir, DailySessionsPrefix+date.String()+DailySessionsExtension)
}
