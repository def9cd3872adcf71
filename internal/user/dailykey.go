package user

import (
	"math"

	"github.com/google/uuid"
)

// dailyKeySize is the width of a daily FST set key: 16-byte user id, a
// single byte encoding 255-sum, and a 16-byte session id.
const dailyKeySize = 33

// maxEncodableSum is the largest sum representable by the single
// 255-sum byte. A session sum exceeding this is clamped at encode time:
// the spec leaves this case implementation-defined (nb_pics accumulates
// into a wider counter upstream, but the daily set's ranking byte has
// only 8 bits of range). All over-limit sessions clamp to the same byte,
// so they tie: among them the key order falls back to session id, and
// each decodes back as a sum of 255.
const maxEncodableSum = 255

// encodeDailyKey builds the 33-byte daily FST set key for (userID, sum,
// sessionID). sum is clamped to [0, maxEncodableSum] before encoding.
func encodeDailyKey(userID uuid.UUID, sum int16, sessionID uuid.UUID) []byte {
	key := make([]byte, dailyKeySize)

	copy(key[0:16], userID[:])
	key[16] = byte(maxEncodableSum - clampSum(sum))
	copy(key[17:33], sessionID[:])

	return key
}

func clampSum(sum int16) int16 {
	if sum < 0 {
		return 0
	}

	if sum > maxEncodableSum {
		return maxEncodableSum
	}

	return sum
}

// decodeDailyKey splits a 33-byte daily FST set key back into its parts.
func decodeDailyKey(key []byte) (userID uuid.UUID, sum int, sessionID uuid.UUID) {
	copy(userID[:], key[0:16])
	sum = maxEncodableSum - int(key[16])
	copy(sessionID[:], key[17:33])

	return userID, sum, sessionID
}

// clampWideSum narrows a wide accumulated sum (from batch FST union
// contributions, which use uint64 values) down to the int16 range
// BestSumPics operates in, per the spec's transient-struct data model.
func clampWideSum(sum uint64) int16 {
	if sum > math.MaxInt16 {
		return math.MaxInt16
	}

	return int16(sum)
}
