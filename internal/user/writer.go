package user

import (
	"bufio"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// writerBufferBytes matches the spec's ~400KB buffered final-text writer.
const writerBufferBytes = 400_000

// writeUserLine writes one user's line:
//
//	<user_uuid>|<session_uuid_1>:<sum_1>,<session_uuid_2>:<sum_2>,...
//
// with a trailing comma after each pair. The all-zeros sentinel user is
// never emitted.
func writeUserLine(w *bufio.Writer, userID uuid.UUID, sessionIDs []uuid.UUID, sums []int) error {
	if userID == uuid.Nil {
		return nil
	}

	if _, err := w.WriteString(userID.String()); err != nil {
		return fmt.Errorf("write user id: %w", err)
	}

	if err := w.WriteByte('|'); err != nil {
		return fmt.Errorf("write separator: %w", err)
	}

	for i, sessionID := range sessionIDs {
		if _, err := w.WriteString(sessionID.String()); err != nil {
			return fmt.Errorf("write session id: %w", err)
		}

		if err := w.WriteByte(':'); err != nil {
			return fmt.Errorf("write colon: %w", err)
		}

		if _, err := w.WriteString(strconv.Itoa(sums[i])); err != nil {
			return fmt.Errorf("write sum: %w", err)
		}

		if err := w.WriteByte(','); err != nil {
			return fmt.Errorf("write comma: %w", err)
		}
	}

	return w.WriteByte('\n')
}
