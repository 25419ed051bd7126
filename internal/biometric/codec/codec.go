// Package codec converts face descriptors between their float-vector form and
// the fixed-width byte buffer that gets encrypted at rest. The encoding is
// deterministic: ciphertext length and integrity both depend on the exact
// bytes produced here.
package codec

import (
	"encoding/binary"
	"math"

	dErrors "github.com/sumithjaya/biometric-auth-backend/pkg/domain-errors"
)

// elementSize is the width of one descriptor component on the wire.
const elementSize = 4

// Encode packs a descriptor as little-endian float32 values, one 4-byte
// element per component, concatenated in vector order. No length prefix:
// the element count is recovered from the buffer size on decode.
func Encode(vec []float32) []byte {
	buf := make([]byte, len(vec)*elementSize)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*elementSize:], math.Float32bits(v))
	}
	return buf
}

// Decode is the exact inverse of Encode. A buffer whose length is not a
// multiple of 4 cannot have been produced by Encode and is rejected.
func Decode(buf []byte) ([]float32, error) {
	if len(buf)%elementSize != 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "malformed descriptor buffer")
	}
	vec := make([]float32, len(buf)/elementSize)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*elementSize:]))
	}
	return vec, nil
}
