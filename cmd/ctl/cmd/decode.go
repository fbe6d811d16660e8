package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"

	"github.com/jpfielding/dib.go/pkg/dib"
	"github.com/spf13/cobra"
)

// NewDecodeCmd converts a bitmap to PNG
func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "BMP to PNG",
		Long:  "Decodes a BMP file or packed DIB and writes it as PNG. Undecodable embedded payloads are written out verbatim.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inputPath(cmd, args)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			fakeAlpha, _ := cmd.Flags().GetBool("preserve-fake-alpha")
			ignoreProfile, _ := cmd.Flags().GetBool("ignore-profile")

			data, err := readInput(in)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			opts := dib.DefaultReadOptions()
			if !fakeAlpha {
				opts.Flags &^= dib.PreserveFakeAlpha
			}
			if ignoreProfile {
				opts.Flags |= dib.IgnoreColorProfile
			}
			encoded, err := decodeToPNG(data, opts)
			if err != nil {
				return err
			}
			if out == "" {
				out = replaceExt(in, ".png")
			}
			slog.InfoContext(ctx, "Decoded", "in", in, "out", out, "bytes", len(encoded))
			return writeOutput(out, encoded)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "BMP input path, - for stdin")
	pf.StringP("out", "o", "", "output path, - for stdout (default <in> with a .png extension)")
	pf.Bool("preserve-fake-alpha", true, "keep non-zero alpha samples of 32bpp data that declares no alpha channel")
	pf.Bool("ignore-profile", false, "skip color management of profiled bitmaps")
	return cmd
}

// decodeToPNG returns PNG bytes, or the raw payload of a bitmap that only
// wraps an embedded image the decoder could not expand.
func decodeToPNG(data []byte, opts *dib.ReadOptions) ([]byte, error) {
	bm, err := dib.Decode(data, opts)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}
	if bm.Pix == nil && len(bm.Embedded) > 0 {
		return bm.Embedded, nil
	}
	img, err := bm.Image()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}
