package secondary

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zlib"
)

const defaultZlibLevel = 6

// ZlibBackend is secondary compressor ID 3: zlib/deflate. This is an
// extension beyond the standard xdelta3 IDs (1, 2, 16) — a delta
// produced with it will not decode against the reference C xdelta3.
type ZlibBackend struct {
	level int
}

// NewZlibBackend builds a Zlib backend at the given compression level
// (0-9).
func NewZlibBackend(level int) ZlibBackend {
	return ZlibBackend{level: level}
}

func (z ZlibBackend) ID() byte { return IDZlib }

func (z ZlibBackend) ShouldCompress(data []byte) bool {
	return len(data) >= minCompressSize
}

func (z ZlibBackend) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, z.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (z ZlibBackend) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
