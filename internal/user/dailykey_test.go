package user

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeDailyKey_RoundTrip(t *testing.T) {
	t.Parallel()

	userID, sessionID := uuid.New(), uuid.New()

	key := encodeDailyKey(userID, 42, sessionID)

	gotUser, gotSum, gotSession := decodeDailyKey(key)

	assert.Equal(t, userID, gotUser)
	assert.Equal(t, 42, gotSum)
	assert.Equal(t, sessionID, gotSession)
}

func TestEncodeDailyKey_HigherSumSortsFirst(t *testing.T) {
	t.Parallel()

	userID, sessionID := uuid.New(), uuid.New()

	lowSumKey := encodeDailyKey(userID, 3, sessionID)
	highSumKey := encodeDailyKey(userID, 9, sessionID)

	assert.Less(t, highSumKey[16], lowSumKey[16], "a higher sum must encode to a smaller 255-sum byte")
}

func TestEncodeDailyKey_ClampsSumAboveByteRange(t *testing.T) {
	t.Parallel()

	userID, sessionID := uuid.New(), uuid.New()

	key := encodeDailyKey(userID, 32000, sessionID)

	assert.Equal(t, byte(0), key[16])

	_, gotSum, _ := decodeDailyKey(key)
	assert.Equal(t, maxEncodableSum, gotSum)
}

func TestEncodeDailyKey_ClampsNegativeSum(t *testing.T) {
	t.Parallel()

	userID, sessionID := uuid.New(), uuid.New()

	key := encodeDailyKey(userID, emptySlotSentinel, sessionID)

	_, gotSum, _ := decodeDailyKey(key)
	assert.Equal(t, 0, gotSum)
}
