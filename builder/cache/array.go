package cache

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/imgcorpus/builder/models"
)

// arrayMagic prefixes every encoded array
var arrayMagic = []byte("ARZ1")

// ArrayCodec stores arrays as zstd-compressed msgpack.
// The empty array is the negative value.
type ArrayCodec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewArrayCodec creates a codec with its own zstd encoder and decoder.
// Both are safe for concurrent EncodeAll/DecodeAll calls.
func NewArrayCodec() (*ArrayCodec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &ArrayCodec{encoder: encoder, decoder: decoder}, nil
}

// Encode validates and compresses an array
func (c *ArrayCodec) Encode(a models.Array) ([]byte, error) {
	if a.Len() != len(a.Data) {
		return nil, fmt.Errorf("array shape %v does not match %d elements", a.Shape, len(a.Data))
	}
	raw, err := Encode(&a)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(arrayMagic)+len(raw)/2)
	out = append(out, arrayMagic...)
	return c.encoder.EncodeAll(raw, out), nil
}

// Decode reverses Encode
func (c *ArrayCodec) Decode(data []byte) (models.Array, error) {
	var a models.Array
	if !bytes.HasPrefix(data, arrayMagic) {
		return a, fmt.Errorf("%w: missing array header", ErrCorrupt)
	}
	raw, err := c.decoder.DecodeAll(data[len(arrayMagic):], nil)
	if err != nil {
		return a, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := Decode(raw, &a); err != nil {
		return a, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if a.Len() != len(a.Data) {
		return models.Array{}, fmt.Errorf("%w: shape %v does not match %d elements", ErrCorrupt, a.Shape, len(a.Data))
	}
	return a, nil
}

func (c *ArrayCodec) IsNegative(a models.Array) bool { return a.IsEmpty() }

func (c *ArrayCodec) Negative() (models.Array, bool) { return models.EmptyArray(), true }

// Close releases the zstd resources
func (c *ArrayCodec) Close() {
	_ = c.encoder.Close()
	c.decoder.Close()
}

// ArrayCache is a disk cache of arrays with negative-result support.
type ArrayCache = DiskCache[models.Array]

// NewArrayCache creates an array cache named name under root.
func NewArrayCache(fsys afero.Fs, root, name string, logger *slog.Logger) (*ArrayCache, error) {
	codec, err := NewArrayCodec()
	if err != nil {
		return nil, err
	}
	return NewDiskCache[models.Array](fsys, root, name, codec, logger)
}
