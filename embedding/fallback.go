package embedding

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// FallbackVector derives a deterministic unit vector from a hash of the
// input text. It is used when the embedding API is unavailable: the same
// text always yields the same vector, across calls and process restarts, so
// the pipeline keeps functioning in a degraded but stable mode.
func FallbackVector(text string, dim int) []float32 {
	if dim <= 0 {
		return nil
	}

	h, _ := blake2b.New(8, nil)
	h.Write([]byte(text))
	seed := binary.LittleEndian.Uint64(h.Sum(nil))

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// LCG fill seeded by the content hash
		seed = seed*6364136223846793005 + 1442695040888963407
		vector[i] = float32(seed%2000)/1000.0 - 1.0
	}

	return NormalizeVector(vector)
}
