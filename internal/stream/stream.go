// Package stream opens the byte streams behind csvstream readers and writers, optionally
// compressed with gzip, zstd or lz4.
package stream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the compression applied to a stream.
type Compression uint8

const (
	// CompressionNone passes bytes through unchanged.
	CompressionNone Compression = iota
	// CompressionGzip is RFC 1952 gzip.
	CompressionGzip
	// CompressionZstd is a zstd frame stream at the default level.
	CompressionZstd
	// CompressionLZ4 is an LZ4 frame stream.
	CompressionLZ4
	// CompressionAuto picks the compression from the file extension.
	CompressionAuto
)

// String returns the human-readable name of a compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression from its string representation.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "none", "":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "auto":
		return CompressionAuto, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// FromPath returns the compression implied by the extension of path.
func FromPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// Resolve replaces CompressionAuto with the compression implied by path.
func Resolve(path string, c Compression) Compression {
	if c == CompressionAuto {
		return FromPath(path)
	}
	return c
}

// NewReader wraps r with a decompressor. Closing the result releases the decompressor only.
func NewReader(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return zr, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

// NewWriter wraps w with a compressor. Closing the result flushes the compressor but leaves w
// open.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return enc, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", c)
	}
}

// Open opens path for reading and decompresses it. Closing the result closes the decompressor
// and then the file.
func Open(path string, c Compression) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(file, Resolve(path, c))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &readStack{ReadCloser: r, file: file}, nil
}

// Create creates or truncates path and compresses what is written to it. Closing the result
// flushes the compressor and then closes the file.
func Create(path string, c Compression) (io.WriteCloser, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(file, Resolve(path, c))
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &writeStack{WriteCloser: w, file: file}, nil
}

type readStack struct {
	io.ReadCloser
	file io.Closer
}

func (s *readStack) Close() error {
	return errors.Join(s.ReadCloser.Close(), s.file.Close())
}

type writeStack struct {
	io.WriteCloser
	file io.Closer
}

func (s *writeStack) Close() error {
	return errors.Join(s.WriteCloser.Close(), s.file.Close())
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
