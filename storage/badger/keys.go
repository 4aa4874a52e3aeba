package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/go-crypt/x/blake2b"
)

// Key prefix for cached embedding vectors
const vectorPrefix = "embvec"

// contentHash generates a deterministic 64-bit hash of text content
// using BLAKE2b, so identical texts share one cache entry.
func contentHash(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// makeVectorKey generates a cache key for (model, text).
// Format: prefix:model:hash. The model is part of the key so switching
// embedding models never serves stale vectors.
func makeVectorKey(model, text string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", vectorPrefix, model, contentHash(text)))
}
