package camera

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	mapping := NewMapping()
	mapping.UpdateOnImprovement(3, uuid.New(), 4.5)
	mapping.UpdateOnImprovement(9, uuid.New(), 1.25)

	codec := BinaryCodec{}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, mapping))

	var decoded Mapping

	require.NoError(t, codec.Decode(&buf, &decoded))

	assert.Len(t, decoded.Cameras, 2)
	assert.Equal(t, mapping.Cameras[3].Sessions[0], decoded.Cameras[3].Sessions[0])
	assert.Equal(t, mapping.Cameras[3].AvgPics[0], decoded.Cameras[3].AvgPics[0])
	assert.Equal(t, mapping.Cameras[9].AvgPics[0], decoded.Cameras[9].AvgPics[0])
}

func TestBinaryCodec_RoundTrip_EmptyMapping(t *testing.T) {
	t.Parallel()

	mapping := NewMapping()

	codec := BinaryCodec{}

	var buf bytes.Buffer

	require.NoError(t, codec.Encode(&buf, mapping))

	var decoded Mapping

	require.NoError(t, codec.Decode(&buf, &decoded))

	assert.Empty(t, decoded.Cameras)
}

func TestBinaryCodec_Encode_RejectsWrongType(t *testing.T) {
	t.Parallel()

	codec := BinaryCodec{}

	var buf bytes.Buffer

	err := codec.Encode(&buf, "not a mapping")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected *Mapping")
}

func TestBinaryCodec_Extension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", BinaryCodec{}.Extension())
}
