// Package source opens log inputs and pairs them with their path.
package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Stdin is the path that selects standard input
const Stdin = "-"

// FileWithPath is an open input stream plus the path it came from.
// The path is kept for diagnostics only.
type FileWithPath struct {
	File io.ReadCloser
	Path string
}

// Close closes the underlying stream
func (f FileWithPath) Close() error {
	if f.File == nil {
		return nil
	}
	return f.File.Close()
}

// Compression identifies a supported compression wrapper
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionXZ   Compression = "xz"
)

var compressionSuffixes = map[string]Compression{
	".gz":   CompressionGzip,
	".gzip": CompressionGzip,
	".zst":  CompressionZstd,
	".zstd": CompressionZstd,
	".xz":   CompressionXZ,
}

// CompressionOf returns the compression implied by the file name
func CompressionOf(path string) Compression {
	return compressionSuffixes[strings.ToLower(filepath.Ext(path))]
}

// Format identifies a log encoding
type Format string

const (
	FormatAuto   Format = "auto"
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatStderr Format = "stderr"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatCSV, FormatJSON, FormatStderr:
		return f, nil
	default:
		return "", fmt.Errorf("unknown input format %q", s)
	}
}

// DetectFormat picks a format from the file name, ignoring a compression
// suffix. postgresql-*.csv is csvlog, *.json is jsonlog, anything else is
// treated as stderr text.
func DetectFormat(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	if CompressionOf(name) != CompressionNone {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	switch filepath.Ext(name) {
	case ".csv":
		return FormatCSV
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	default:
		return FormatStderr
	}
}

// Open opens path for reading, transparently decompressing by suffix.
// "-" reads standard input, which is never closed.
func Open(path string) (FileWithPath, error) {
	if path == Stdin {
		return FileWithPath{File: io.NopCloser(bufio.NewReader(os.Stdin)), Path: "<stdin>"}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return FileWithPath{}, err
	}
	rc, err := Wrap(f, CompressionOf(path))
	if err != nil {
		_ = f.Close()
		return FileWithPath{}, fmt.Errorf("%s: %w", path, err)
	}
	return FileWithPath{File: rc, Path: path}, nil
}

// Wrap layers a decompressor over rc. Closing the result closes rc.
func Wrap(rc io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return &stacked{Reader: rc, closers: []func() error{rc.Close}}, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &stacked{Reader: zr, closers: []func() error{zr.Close, rc.Close}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &stacked{Reader: zr, closers: []func() error{
			func() error { zr.Close(); return nil },
			rc.Close,
		}}, nil
	case CompressionXZ:
		xr, err := xz.NewReader(rc)
		if err != nil {
			return nil, err
		}
		return &stacked{Reader: xr, closers: []func() error{rc.Close}}, nil
	default:
		return nil, fmt.Errorf("unsupported compression %q", c)
	}
}

// stacked closes every layer once, decompressor before file
type stacked struct {
	io.Reader
	closers []func() error
	closed  bool
}

func (s *stacked) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
