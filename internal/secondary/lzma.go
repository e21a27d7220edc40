package secondary

import (
	"bytes"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// LZMABackend is secondary compressor ID 2: LZMA, cross-compatible with
// xdelta3's own C implementation.
type LZMABackend struct{}

func (LZMABackend) ID() byte { return IDLZMA }

func (LZMABackend) ShouldCompress(data []byte) bool {
	return len(data) >= minCompressSize
}

func (LZMABackend) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := lzma.NewWriter(&buf)
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

func (LZMABackend) Decompress(data []byte) ([]byte, error) {
	r, err := lzma.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
