package fieldcrypt

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Default compression settings
const (
	defaultCompressionThreshold = 1024 // 1KB
	minCompressionSavings       = 0.10 // 10% minimum savings to use compression

	// maxDecompressedSize caps decompressed output (64MB) so a small envelope
	// cannot expand to consume all available memory.
	maxDecompressedSize = 64 * 1024 * 1024
)

// compressionAlgorithmZstd is the only algorithm written to the envelope "z" field.
const compressionAlgorithmZstd = "zstd"

var (
	// zstd encoder and decoder are thread-safe and reusable
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdOnce    sync.Once
	zstdErr     error
)

// initZstd initializes the zstd encoder and decoder once.
func initZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressedSize))
		if zstdErr != nil {
			zstdEncoder.Close()
			zstdEncoder = nil
		}
	})
	return zstdEncoder, zstdDecoder, zstdErr
}

func compressZstd(data []byte) ([]byte, error) {
	encoder, _, err := initZstd()
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, nil), nil
}

// decompressZstd returns ErrDecompressionFailed on corrupt input or when the
// output would exceed maxDecompressedSize.
func decompressZstd(data []byte) ([]byte, error) {
	_, decoder, err := initZstd()
	if err != nil {
		return nil, err
	}
	result, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, ErrDecompressionFailed
	}
	if len(result) > maxDecompressedSize {
		return nil, ErrDecompressionFailed
	}
	return result, nil
}

// maybeCompress compresses data if it exceeds the threshold and compression is beneficial.
// Returns the (possibly compressed) data and the algorithm name for the envelope,
// or "" when the data is left as is.
func maybeCompress(data []byte, threshold int, algorithm string, disabled bool) ([]byte, string) {
	if disabled || len(data) < threshold {
		return data, ""
	}
	if algorithm != compressionAlgorithmZstd {
		return data, ""
	}

	compressed, err := compressZstd(data)
	if err != nil {
		return data, ""
	}

	savings := float64(len(data)-len(compressed)) / float64(len(data))
	if savings < minCompressionSavings {
		return data, ""
	}
	return compressed, compressionAlgorithmZstd
}

// decompress reverses maybeCompress based on the envelope "z" field.
func decompress(data []byte, algorithm string) ([]byte, error) {
	switch algorithm {
	case "":
		return data, nil
	case compressionAlgorithmZstd:
		return decompressZstd(data)
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrDecompressionFailed, algorithm)
	}
}
