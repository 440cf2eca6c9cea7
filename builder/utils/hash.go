package utils

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"sort"

	"github.com/zeebo/blake3"
)

// StableHash returns the first 8 bytes (big endian) of the BLAKE3-256 digest
// of s. It depends only on the string's bytes, so it is identical across
// runs, processes, machines and languages. Subsampling and the train/eval
// split are defined in terms of this function.
func StableHash(s string) uint64 {
	sum := blake3.Sum256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}

// HashString returns the hex BLAKE3-256 digest of s.
func HashString(s string) string {
	sum := blake3.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SortByStableHash sorts items ascending by StableHash, breaking ties by the
// string itself so the result never depends on input order.
func SortByStableHash(items []string) {
	keys := make(map[string]uint64, len(items))
	for _, it := range items {
		keys[it] = StableHash(it)
	}
	sort.Slice(items, func(i, j int) bool {
		hi, hj := keys[items[i]], keys[items[j]]
		if hi != hj {
			return hi < hj
		}
		return items[i] < items[j]
	})
}

// Fingerprint hashes parts in order, separated by a zero byte.
func Fingerprint(parts ...string) string {
	h := blake3.New()
	for _, p := range parts {
		writeString(h, p)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeString writes a string to the hash
func writeString(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
}
