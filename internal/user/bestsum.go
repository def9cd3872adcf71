package user

import (
	"bytes"

	"github.com/google/uuid"
)

// TopSessions is the number of top sessions tracked per user.
const TopSessions = 10

// emptySlotSentinel marks an unused Sums slot. Signed so real zero sums
// (a session with nb_pics summing to zero) remain representable.
const emptySlotSentinel = -1

// BestSumPics holds one user's top-10 per-session photo sums seen so
// far while streaming the day's batch union. Sums is sorted
// descending; within equal sums, SessionIDs is ascending — this is the
// exact order the 255-sum byte trick later relies on for lexicographic
// ranking.
type BestSumPics struct {
	UserID     uuid.UUID
	SessionIDs [TopSessions]uuid.UUID
	Sums       [TopSessions]int16
}

// NewBestSumPics creates an empty accumulator for userID with all slots
// marked unused.
func NewBestSumPics(userID uuid.UUID) *BestSumPics {
	b := &BestSumPics{UserID: userID}

	for i := range b.Sums {
		b.Sums[i] = emptySlotSentinel
	}

	return b
}

// UpdateOnImprovement inserts (sessionID, sum) if it improves on the
// current 10th-best. Insertion first bubbles by sum (descending); once
// it reaches a position where the predecessor's sum is equal, it
// continues bubbling by session id (ascending) to keep the tie-break
// order stable.
func (b *BestSumPics) UpdateOnImprovement(sessionID uuid.UUID, sum int16) {
	if !b.isImprovement(sum) {
		return
	}

	b.Sums[TopSessions-1] = sum
	b.SessionIDs[TopSessions-1] = sessionID

	i := TopSessions - 1
	for i > 0 && b.Sums[i] > b.Sums[i-1] {
		b.swap(i, i-1)
		i--
	}

	for i > 0 && b.Sums[i] == b.Sums[i-1] && bytes.Compare(b.SessionIDs[i-1][:], b.SessionIDs[i][:]) > 0 {
		b.swap(i, i-1)
		i--
	}
}

func (b *BestSumPics) swap(i, j int) {
	b.Sums[i], b.Sums[j] = b.Sums[j], b.Sums[i]
	b.SessionIDs[i], b.SessionIDs[j] = b.SessionIDs[j], b.SessionIDs[i]
}

func (b *BestSumPics) isImprovement(sum int16) bool {
	return sum > b.Sums[TopSessions-1]
}
