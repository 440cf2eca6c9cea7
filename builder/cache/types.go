// Package cache provides the flat-directory disk caches used to memoize
// remote responses (including their absence) and the BoltDB snapshot store
// for built corpora.
package cache

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// Suffix is the file extension of every cache entry.
const Suffix = ".cache"

// Default cache instance names
const (
	NameURLs       = "imagenet-urls"
	NameSamples    = "samples"
	NameFeaturized = "samples_featurized"
)

// ErrCorrupt is returned by codecs for payloads that cannot be decoded.
var ErrCorrupt = errors.New("corrupt cache payload")

// Codec converts cache payloads to and from their on-disk bytes.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
	// IsNegative reports whether v is the negative-result value.
	IsNegative(v T) bool
	// Negative returns the negative-result value, and false if T has none.
	Negative() (T, bool)
}

// Stats holds runtime statistics of a disk cache
type Stats struct {
	Hits         int64
	NegativeHits int64
	Misses       int64
	Corrupt      int64
	Writes       int64
}

// HitRate returns the share of lookups answered from disk (0.0-1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.NegativeHits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits+s.NegativeHits) / float64(total)
}

// Encode serializes a value to msgpack bytes
func Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes msgpack bytes to a value
func Decode(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}
