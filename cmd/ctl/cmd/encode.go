package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"strings"

	"github.com/jpfielding/dib.go/pkg/dib"
	"github.com/spf13/cobra"
)

// NewEncodeCmd writes a bitmap from PNG, JPEG or BMP input
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "PNG/JPEG/BMP to BMP",
		Long:  "Encodes an image as a BMP file or, with --packed, as a packed DIB without a file header.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inputPath(cmd, args)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			formatName, _ := cmd.Flags().GetString("format")
			v5, _ := cmd.Flags().GetBool("v5")
			infoHeader, _ := cmd.Flags().GetBool("info-header")
			packed, _ := cmd.Flags().GetBool("packed")
			dpi, _ := cmd.Flags().GetFloat64("dpi")

			var flags dib.WriteFlags
			if v5 {
				flags |= dib.ForceV5Header
			}
			if infoHeader {
				flags |= dib.ForceInfoHeader
			}
			if packed {
				flags |= dib.SkipFileHeader
			}
			data, err := readInput(in)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			encoded, err := encodeBMP(data, formatName, dpi, flags)
			if err != nil {
				return err
			}
			if out == "" {
				out = replaceExt(in, ".bmp")
			}
			slog.InfoContext(ctx, "Encoded", "in", in, "out", out, "bytes", len(encoded))
			return writeOutput(out, encoded)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "PNG, JPEG or BMP input path, - for stdin")
	pf.StringP("out", "o", "", "output path, - for stdout (default <in> with a .bmp extension)")
	pf.StringP("format", "f", "", "output pixel format (bgra32|bgr24|bgr565|bgr555x|bgr5551|indexed8), default from input")
	pf.Bool("v5", false, "always write a BITMAPV5HEADER")
	pf.Bool("info-header", false, "always write a BITMAPINFOHEADER")
	pf.Bool("packed", false, "omit the file header")
	pf.Float64("dpi", 0, "resolution, 0 keeps the input resolution or 96")
	return cmd
}

// lookupFormat matches a catalog format name ignoring case
func lookupFormat(name string) (dib.PixelFormat, error) {
	for _, f := range dib.Formats() {
		if strings.EqualFold(f.String(), name) {
			return f, nil
		}
	}
	return dib.ParseFormat(name)
}

func encodeBMP(data []byte, formatName string, dpi float64, flags dib.WriteFlags) ([]byte, error) {
	var bm *dib.Bitmap
	if bytes.HasPrefix(data, []byte("BM")) {
		var err error
		if bm, err = dib.Decode(data, nil); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
	} else {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
		bm = dib.FromImage(img)
	}
	if dpi > 0 {
		bm.DPIX, bm.DPIY = dpi, dpi
	}

	var dst dib.PixelFormat
	switch {
	case formatName != "":
		f, err := lookupFormat(formatName)
		if err != nil {
			return nil, err
		}
		dst = f
	case bm.Format == dib.Bgra32 && !bm.HasAlpha:
		dst = dib.Bgr24
	}
	return dib.EncodeBitmap(bm, dst, flags)
}
