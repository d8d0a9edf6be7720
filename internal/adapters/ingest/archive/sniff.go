package archive

import (
	"bufio"
	"bytes"
	"errors"
	"io"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec names the outer compression layer
type Codec string

// Known codecs
const (
	CodecGzip Codec = "gzip"
	CodecZstd Codec = "zstd"
	CodecLZ4  Codec = "lz4"
)

// Container names the inner archive layer
type Container string

// Known containers
const (
	ContainerTar Container = "tar"
	ContainerZip Container = "zip"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicLZ4  = []byte{0x04, 0x22, 0x4d, 0x18}
	magicZip  = []byte("PK\x03\x04")
	magicTar  = []byte("ustar")
)

// tar magic sits after the 257 byte name/mode/size/... prefix of the first header
const tarMagicOffset = 257

// sniffCodec identifies the compression layer without consuming input
func sniffCodec(br *bufio.Reader) (Codec, error) {
	head, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "archive: read header")
	}
	switch {
	case bytes.HasPrefix(head, magicGzip):
		return CodecGzip, nil
	case bytes.HasPrefix(head, magicZstd):
		return CodecZstd, nil
	case bytes.HasPrefix(head, magicLZ4):
		return CodecLZ4, nil
	case len(head) == 0:
		return "", perr.New(perr.ErrorCodeUnsupportedCompression, "archive: empty object")
	}
	return "", perr.Newf(perr.ErrorCodeUnsupportedCompression, "archive: unknown compression magic % x", head)
}

// decompress wraps br with the decoder for codec; closer releases decoder state
func decompress(codec Codec, br *bufio.Reader) (io.Reader, func() error, error) {
	switch codec {
	case CodecGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, perr.Wrap(err, perr.ErrorCodeUnsupportedCompression, "archive: gzip header")
		}
		return zr, zr.Close, nil
	case CodecZstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, perr.Wrap(err, perr.ErrorCodeUnsupportedCompression, "archive: zstd header")
		}
		return zr, func() error { zr.Close(); return nil }, nil
	case CodecLZ4:
		return lz4.NewReader(br), func() error { return nil }, nil
	}
	return nil, nil, perr.Newf(perr.ErrorCodeUnsupportedCompression, "archive: codec %q", codec)
}

// sniffContainer identifies the archive layer of the decompressed stream without consuming it
func sniffContainer(br *bufio.Reader) (Container, error) {
	head, err := br.Peek(tarMagicOffset + len(magicTar))
	if err != nil && !errors.Is(err, io.EOF) {
		// the decoder failed mid-stream: the compressed bytes are corrupt
		return "", perr.Wrap(err, perr.ErrorCodeUnsupportedCompression, "archive: corrupt compressed stream")
	}
	switch {
	case bytes.HasPrefix(head, magicZip):
		return ContainerZip, nil
	case len(head) >= tarMagicOffset+len(magicTar) &&
		bytes.Equal(head[tarMagicOffset:tarMagicOffset+len(magicTar)], magicTar):
		return ContainerTar, nil
	}
	return "", perr.New(perr.ErrorCodeUnsupportedArchive, "archive: decompressed stream is neither tar nor zip")
}
