package versioning

import (
	"encoding/hex"
	"hash"

	"github.com/cespare/xxhash/v2"
)

// HashFunc defines a function that creates a new hash.Hash instance.
type HashFunc func() hash.Hash

// defaultHashFunc returns the default hash function (xxHash64).
func defaultHashFunc() hash.Hash {
	return xxhash.New()
}

// hashKey returns the hex digest of key under a fresh hash from newHash.
func hashKey(newHash HashFunc, key string) string {
	h := newHash()
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))
}
