package dib

import (
	"errors"
	"fmt"

	"github.com/jpfielding/dib.go/pkg/compress/huffman"
	"github.com/jpfielding/dib.go/pkg/compress/rle"
)

var (
	ErrTruncated              = errors.New("dib: truncated data")
	ErrUnsupportedHeader      = errors.New("dib: unsupported header size")
	ErrUnsupportedCompression = errors.New("dib: unsupported compression")
	ErrInvalidBitCount        = errors.New("dib: invalid bit count")
	ErrInvalidMasks           = errors.New("dib: invalid color masks")
	ErrInvalidDimensions      = errors.New("dib: invalid dimensions")
	ErrOversizedPalette       = errors.New("dib: oversized palette")
	ErrOutOfBounds            = errors.New("dib: region out of bounds")
	ErrIncompatibleFormat     = errors.New("dib: incompatible pixel format")
	ErrMissingPalette         = errors.New("dib: missing palette")

	// ErrRleBounds is the run-length decoder's bounds violation
	ErrRleBounds = rle.ErrBounds
	// ErrInvalidCode is the Modified Huffman decoder's invalid codeword
	ErrInvalidCode = huffman.ErrInvalidCode
)

// FieldError carries the header field and value that failed validation.
// It unwraps to one of the package sentinels.
type FieldError struct {
	Err   error
	Field string
	Value int64
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s=%d", e.Err, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Err }

func fieldErr(err error, field string, v int64) error {
	return &FieldError{Err: err, Field: field, Value: v}
}
