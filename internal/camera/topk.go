package camera

import "github.com/google/uuid"

// bestAvgPicsSize is the number of top sessions tracked per camera.
const bestAvgPicsSize = 100

// BestAvgPics holds, for one camera, the 100 highest session-averaged
// photo counts seen so far. Sessions and AvgPics are parallel arrays:
// AvgPics is sorted descending (index 0 is the highest average), and
// Sessions[i] is the session that produced AvgPics[i]. Unused tail slots
// carry the default pair (uuid.Nil, 0.0).
//
// A fixed array with insertion-sort updates is used instead of a
// general-purpose container because this structure is mutated on
// nearly every input group; a hash map or sorted tree would add
// indirection to the hottest loop in the pipeline for no benefit at
// this fixed, small K.
type BestAvgPics struct {
	Sessions [bestAvgPicsSize]uuid.UUID
	AvgPics  [bestAvgPicsSize]float32
}

// UpdateOnImprovement inserts (sessionID, avg) if avg is a strict
// improvement over the current 100th-best average. Ties do not evict:
// an incoming candidate equal to AvgPics[99] is dropped, so whichever
// session already holds that slot keeps it.
func (b *BestAvgPics) UpdateOnImprovement(sessionID uuid.UUID, avg float32) {
	if !b.isImprovement(avg) {
		return
	}

	b.AvgPics[bestAvgPicsSize-1] = avg
	b.Sessions[bestAvgPicsSize-1] = sessionID

	i := bestAvgPicsSize - 1
	for i > 0 && b.AvgPics[i] > b.AvgPics[i-1] {
		b.AvgPics[i], b.AvgPics[i-1] = b.AvgPics[i-1], b.AvgPics[i]
		b.Sessions[i], b.Sessions[i-1] = b.Sessions[i-1], b.Sessions[i]
		i--
	}
}

func (b *BestAvgPics) isImprovement(avg float32) bool {
	return avg > b.AvgPics[bestAvgPicsSize-1]
}

// AddAssign merges other into b: other's entries are scanned from the
// highest average downward and inserted while they remain an
// improvement. Because other is sorted descending, the first
// non-improving entry means no later entry can improve either, so the
// scan stops there.
//
// This relies on freshly-inserted CameraBestAvgPics (for a camera absent
// from the accumulator) carrying the default (uuid.Nil, 0.0) trailing
// slots — see Mapping.AddAssign.
func (b *BestAvgPics) AddAssign(other BestAvgPics) {
	for i := 0; i < bestAvgPicsSize; i++ {
		if !b.isImprovement(other.AvgPics[i]) {
			break
		}

		b.UpdateOnImprovement(other.Sessions[i], other.AvgPics[i])
	}
}

// Mapping maps a camera id to its BestAvgPics. Keys are present only for
// cameras that appeared in at least one observed session.
type Mapping struct {
	Cameras map[uint8]*BestAvgPics
}

// NewMapping creates an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{Cameras: make(map[uint8]*BestAvgPics)}
}

// UpdateOnImprovement records one (session, camera) group's average,
// creating the camera's BestAvgPics on first sight.
func (m *Mapping) UpdateOnImprovement(cameraID uint8, sessionID uuid.UUID, avg float32) {
	best, ok := m.Cameras[cameraID]
	if !ok {
		best = &BestAvgPics{}
		m.Cameras[cameraID] = best
	}

	best.UpdateOnImprovement(sessionID, avg)
}

// AddAssign merges other into m: cameras absent from m are inserted
// wholesale (defaults and all); cameras present in both are merged via
// BestAvgPics.AddAssign.
func (m *Mapping) AddAssign(other *Mapping) {
	for cameraID, otherBest := range other.Cameras {
		existing, ok := m.Cameras[cameraID]
		if !ok {
			copied := *otherBest
			m.Cameras[cameraID] = &copied

			continue
		}

		existing.AddAssign(*otherBest)
	}
}
