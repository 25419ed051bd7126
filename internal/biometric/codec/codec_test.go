package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
)

func TestRoundTrip(t *testing.T) {
	vectors := [][]float32{
		{},
		{0},
		{1.0, -1.0, 0.5, -0.5},
		{math.MaxFloat32, -math.MaxFloat32, math.SmallestNonzeroFloat32},
	}
	for _, vec := range vectors {
		got, err := Decode(Encode(vec))
		require.NoError(t, err)
		assert.Equal(t, vec, got)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	vec := []float32{0.125, -3.5, 42, 0.333333}
	assert.Equal(t, Encode(vec), Encode(vec))
}

func TestEncodeLayout(t *testing.T) {
	// 1.0 as little-endian float32 is 00 00 80 3F.
	buf := Encode([]float32{1.0})
	require.Len(t, buf, 4)
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3F}, buf)
}

func TestDecodeRejectsMalformedBuffer(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 7} {
		_, err := Decode(make([]byte, n))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	}
}
