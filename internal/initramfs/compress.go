// SPDX-FileCopyrightText: 2026 The microbeam authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package initramfs

import (
	"fmt"
	"io"

	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"

	"github.com/microbeam/microbeam/internal/config"
)

// NewCompressor wraps w in a compressing writer for the given method. The
// kernel unpacks xz and gzip initramfs images natively; xz compresses
// better, gzip is faster.
func NewCompressor(
	w io.Writer,
	method config.Compression,
) (io.WriteCloser, error) {
	switch method {
	case config.CompressionXZ:
		// The kernel decompressor requires CRC32 checksums and
		// refuses the xz default CRC64.
		writer, err := xz.WriterConfig{CheckSum: xz.CRC32}.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("new xz writer: %w", err)
		}

		return writer, nil
	case config.CompressionGzip:
		return pgzip.NewWriter(w), nil
	case config.CompressionNone:
		return nopWriteCloser{w}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, method)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewDecompressor returns a reader that reverses [NewCompressor].
func NewDecompressor(
	r io.Reader,
	method config.Compression,
) (io.Reader, error) {
	switch method {
	case config.CompressionXZ:
		reader, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("new xz reader: %w", err)
		}

		return reader, nil
	case config.CompressionGzip:
		reader, err := pgzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("new gzip reader: %w", err)
		}

		return reader, nil
	case config.CompressionNone:
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, method)
	}
}
