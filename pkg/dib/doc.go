// Package dib provides a native Go implementation for reading and writing Windows and OS/2
// bitmaps (BMP files and packed DIBs).
//
// The package provides:
//   - Header normalization for every info header layout from BITMAPCOREHEADER to BITMAPV5HEADER
//   - A catalog of ten pixel formats and a mask based converter between them
//   - RLE4, RLE8, RLE24 and Modified Huffman decoding
//   - JPEG and PNG passthrough payloads
//   - Writing with BITMAPINFOHEADER or BITMAPV5HEADER, with an embedded ICC profile
//
// Basic usage:
//
//	// Decode to BGRA
//	bm, err := dib.Decode(data, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Inspect without decoding
//	res, err := dib.Parse(data)
//	fmt.Println(res.Header.Version(), res.Source)
//
//	// Write as 24 bpp
//	out, err := dib.EncodeBitmap(bm, dib.Bgr24, 0)
package dib
