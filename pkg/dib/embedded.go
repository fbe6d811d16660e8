package dib

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
)

// EmbeddedDecoder turns a JPEG or PNG payload into pixels
type EmbeddedDecoder interface {
	DecodeEmbedded(kind Compression, payload []byte) (image.Image, error)
}

// EmbeddedDecoderFunc adapts a function to an EmbeddedDecoder
type EmbeddedDecoderFunc func(kind Compression, payload []byte) (image.Image, error)

func (fn EmbeddedDecoderFunc) DecodeEmbedded(kind Compression, payload []byte) (image.Image, error) {
	return fn(kind, payload)
}

// StdEmbedded decodes payloads with image/jpeg and image/png
type StdEmbedded struct{}

func (StdEmbedded) DecodeEmbedded(kind Compression, payload []byte) (image.Image, error) {
	switch kind {
	case JPEG:
		return jpeg.Decode(bytes.NewReader(payload))
	case PNG:
		return png.Decode(bytes.NewReader(payload))
	}
	return nil, fmt.Errorf("%w: %v is not an embedded format", ErrUnsupportedCompression, kind)
}

// embeddedConfig reads the extent of a payload without decoding it
func embeddedConfig(kind Compression, payload []byte) (image.Config, error) {
	switch kind {
	case JPEG:
		return jpeg.DecodeConfig(bytes.NewReader(payload))
	case PNG:
		return png.DecodeConfig(bytes.NewReader(payload))
	}
	return image.Config{}, fmt.Errorf("%w: %v is not an embedded format", ErrUnsupportedCompression, kind)
}
