// Package codec decodes downloaded images into normalized model input.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/Kush-Singh-26/imgcorpus/builder/models"
)

// DefaultSize is the edge length of the square model input
const DefaultSize = 224

// Per-channel means subtracted from 0-255 pixel values (VGG16 preprocessing)
const (
	MeanR float32 = 123.68
	MeanG float32 = 116.779
	MeanB float32 = 103.939
)

// ErrEmptyImage is returned for payloads without any bytes
var ErrEmptyImage = errors.New("empty image payload")

// ImageCodec decodes JPEG, PNG, GIF, BMP, TIFF and WebP payloads, crops
// them to a centered square of Size x Size and emits a CHW float32 array
// of shape [3, Size, Size] with the channel means removed.
type ImageCodec struct {
	Size int
}

// NewImageCodec creates a codec for size x size output
func NewImageCodec(size int) *ImageCodec {
	if size <= 0 {
		size = DefaultSize
	}
	return &ImageCodec{Size: size}
}

// Decode implements fetch.Codec
func (c *ImageCodec) Decode(raw []byte) (models.Array, error) {
	img, err := c.DecodeImage(raw)
	if err != nil {
		return models.Array{}, err
	}
	return c.Normalize(img), nil
}

// DecodeImage decodes raw into an image without resizing
func (c *ImageCodec) DecodeImage(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	if isWebP(raw) {
		img, err := webp.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp: %w", err)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Normalize resizes img and converts it to a mean-subtracted CHW array
func (c *ImageCodec) Normalize(img image.Image) models.Array {
	size := c.Size
	if size <= 0 {
		size = DefaultSize
	}
	dst := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)

	plane := size * size
	out := models.Array{
		Shape: []int{3, size, size},
		Data:  make([]float32, 3*plane),
	}
	for y := 0; y < size; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < size; x++ {
			p := row[x*4 : x*4+4]
			i := y*size + x
			out.Data[i] = float32(p[0]) - MeanR
			out.Data[plane+i] = float32(p[1]) - MeanG
			out.Data[2*plane+i] = float32(p[2]) - MeanB
		}
	}
	return out
}

// isWebP reports whether raw starts with a RIFF....WEBP header
func isWebP(raw []byte) bool {
	return len(raw) >= 12 && string(raw[0:4]) == "RIFF" && string(raw[8:12]) == "WEBP"
}
