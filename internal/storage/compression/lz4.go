package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// NoCompressor stores data unchanged.
type NoCompressor struct{}

func (NoCompressor) Name() string { return "none" }

func (NoCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (NoCompressor) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

const (
	frameRaw byte = 0
	frameLZ4 byte = 1
)

var ErrCorruptFrame = errors.New("compression: corrupt frame")

// LZ4Compressor frames each value as a one byte marker, the uncompressed
// length as a uvarint, then the LZ4 block. Values that do not shrink are
// stored raw behind frameRaw.
type LZ4Compressor struct{}

func (LZ4Compressor) Name() string { return "lz4" }

func (LZ4Compressor) Compress(data []byte) ([]byte, error) {
	header := make([]byte, 1+binary.MaxVarintLen64)
	n := 1 + binary.PutUvarint(header[1:], uint64(len(data)))

	block := make([]byte, lz4.CompressBlockBound(len(data)))
	size, err := lz4.CompressBlock(data, block, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if size == 0 || size >= len(data) {
		out := make([]byte, 0, 1+len(data))
		out = append(out, frameRaw)
		return append(out, data...), nil
	}

	header[0] = frameLZ4
	out := make([]byte, 0, n+size)
	out = append(out, header[:n]...)
	return append(out, block[:size]...), nil
}

func (LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrCorruptFrame
	}
	switch data[0] {
	case frameRaw:
		return append([]byte(nil), data[1:]...), nil
	case frameLZ4:
		size, n := binary.Uvarint(data[1:])
		if n <= 0 {
			return nil, ErrCorruptFrame
		}
		out := make([]byte, size)
		got, err := lz4.UncompressBlock(data[1+n:], out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if uint64(got) != size {
			return nil, ErrCorruptFrame
		}
		return out, nil
	default:
		return nil, ErrCorruptFrame
	}
}
