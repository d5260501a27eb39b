// Package datasource defines where dump bytes come from and how compressed
// dumps are unwrapped before they reach the CSV reader.
package datasource

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Source opens a stream of raw dump bytes. The caller owns the returned
// ReadCloser.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Compression identifies a stream codec by file extension.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	XZ
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case XZ:
		return "xz"
	default:
		return "none"
	}
}

// CompressionFor picks the codec from name's extension (".gz", ".zst",
// ".zstd", ".xz"). Query strings and fragments of URLs are ignored.
func CompressionFor(name string) Compression {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".gz", ".gzip":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".xz":
		return XZ
	default:
		return None
	}
}

// Decompress wraps rc with the decoder selected by name. Closing the result
// closes both the decoder and rc. On error rc is closed.
func Decompress(name string, rc io.ReadCloser) (io.ReadCloser, error) {
	c := CompressionFor(name)
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("%s reader: %w", c, err)
		}
		return &readCloser{Reader: zr, close: func() error {
			zr.Close()
			return rc.Close()
		}}, nil

	case Zstd:
		dec, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("%s reader: %w", c, err)
		}
		return &readCloser{Reader: dec, close: func() error {
			dec.Close()
			return rc.Close()
		}}, nil

	case XZ:
		xr, err := xz.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("%s reader: %w", c, err)
		}
		return &readCloser{Reader: xr, close: rc.Close}, nil

	default:
		return rc, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error { return r.close() }
