// Package compress frames byte payloads with a small header and compresses
// them with zstd or lz4.
//
// Frame layout (little endian):
//
//	[Algorithm uint8][UncompressedSize uint32][CompressedSize uint32][CRC32C uint32][Data...]
//
// The checksum covers the uncompressed bytes, so Decompress detects both a
// damaged frame and a decoder that produced the wrong output. Output is
// deterministic for a given input and algorithm.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/trieidx/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm identifies the compression algorithm of a frame.
type Algorithm uint8

const (
	// None stores the payload as-is.
	None Algorithm = 0
	// LZ4 uses LZ4 block compression (fast).
	LZ4 Algorithm = 1
	// Zstd uses zstd (better ratio).
	Zstd Algorithm = 2
)

// HeaderSize is the number of bytes preceding the frame data.
const HeaderSize = 13

// ErrCorrupt is returned when a frame cannot be decoded.
var ErrCorrupt = errors.New("compress: corrupt frame")

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// ParseAlgorithm maps a name ("none", "lz4", "zstd") to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "":
		return Zstd, nil
	default:
		return None, fmt.Errorf("compress: unknown algorithm %q", name)
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	// Single-threaded EncodeAll keeps the output deterministic.
	enc, _ := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Compress frames data using algo. If compression does not shrink the payload
// below 90% of its size, the frame is stored with None.
func Compress(data []byte, algo Algorithm) ([]byte, error) {
	var (
		compressed []byte
		err        error
	)

	switch algo {
	case None:
	case LZ4:
		compressed, err = compressLZ4(data)
	case Zstd:
		compressed = compressZstd(data)
	default:
		return nil, fmt.Errorf("compress: unsupported algorithm %s", algo)
	}
	if err != nil {
		return nil, err
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		algo = None
		compressed = data
	}

	out := make([]byte, HeaderSize+len(compressed))
	out[0] = byte(algo)
	binary.LittleEndian.PutUint32(out[1:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[5:], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(out[9:], hash.CRC32C(data))
	copy(out[HeaderSize:], compressed)
	return out, nil
}

// Decompress decodes a frame produced by Compress.
func Decompress(frame []byte) ([]byte, error) {
	if len(frame) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(frame))
	}

	algo := Algorithm(frame[0])
	uncompressedSize := binary.LittleEndian.Uint32(frame[1:])
	compressedSize := binary.LittleEndian.Uint32(frame[5:])
	checksum := binary.LittleEndian.Uint32(frame[9:])

	if uint64(len(frame)-HeaderSize) != uint64(compressedSize) {
		return nil, fmt.Errorf("%w: data length %d, header says %d", ErrCorrupt, len(frame)-HeaderSize, compressedSize)
	}
	body := frame[HeaderSize:]

	var (
		out []byte
		err error
	)

	switch algo {
	case None:
		if compressedSize != uncompressedSize {
			return nil, fmt.Errorf("%w: size mismatch in stored frame", ErrCorrupt)
		}
		out = make([]byte, len(body))
		copy(out, body)
	case LZ4:
		out = make([]byte, uncompressedSize)
		var n int
		n, err = lz4.UncompressBlock(body, out)
		if err == nil && uint32(n) != uncompressedSize {
			err = errors.New("decompressed size mismatch")
		}
	case Zstd:
		dec := getZstdDecoder()
		out, err = dec.DecodeAll(body, make([]byte, 0, uncompressedSize))
		putZstdDecoder(dec)
		if err == nil && uint32(len(out)) != uncompressedSize {
			err = errors.New("decompressed size mismatch")
		}
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %d", ErrCorrupt, uint8(algo))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, algo, err)
	}

	if !hash.VerifyCRC32C(out, checksum) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return out, nil
}

func compressLZ4(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil // incompressible
	}
	return buf[:n], nil
}

func compressZstd(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)
	return enc.EncodeAll(data, nil)
}
