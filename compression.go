package plink

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"

	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/krolaw/zipstream"
	"github.com/pierrec/lz4/v4"
	"github.com/xi2/xz"
)

// Compression indicates how (and whether) a sidecar text file is compressed.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZStandard
	CompressionLZ4
	CompressionBZip2
	CompressionXZ
	CompressionZip
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZStandard:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionBZip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	case CompressionZip:
		return "zip"
	}
	return "unknown"
}

// Byte code signatures from https://stackoverflow.com/a/19127748/199475 and
// the zstd / lz4 frame format documents. Checked in order.
var compressionSigs = []struct {
	c   Compression
	sig []byte
}{
	{CompressionGzip, []byte{0x1f, 0x8b, 0x08}},
	{CompressionZStandard, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{CompressionLZ4, []byte{0x04, 0x22, 0x4d, 0x18}},
	{CompressionZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{CompressionXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{CompressionBZip2, []byte{0x42, 0x5a, 0x68}},
}

// DetectCompression inspects the leading bytes of a stream.
func DetectCompression(head []byte) Compression {
	for _, s := range compressionSigs {
		if bytes.HasPrefix(head, s.sig) {
			return s.c
		}
	}
	return CompressionNone
}

// decompressReader peeks at r and, if it carries a known compression
// signature, returns a reader over the decompressed stream. Uncompressed
// input is returned as-is (buffered). Closing the result does not close r.
func decompressReader(r io.Reader) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(6)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, CompressionNone, pfx.Err(err)
	}

	c := DetectCompression(head)
	switch c {
	case CompressionGzip:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, pfx.Err(err)
		}
		return gz, c, nil
	case CompressionZStandard:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, c, pfx.Err(err)
		}
		return zr.IOReadCloser(), c, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(br)), c, nil
	case CompressionBZip2:
		return io.NopCloser(bzip2.NewReader(br)), c, nil
	case CompressionXZ:
		xr, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, c, pfx.Err(err)
		}
		return io.NopCloser(xr), c, nil
	case CompressionZip:
		// Only the first member of the archive is read.
		zr := zipstream.NewReader(br)
		if _, err := zr.Next(); err != nil {
			return nil, c, pfx.Err(err)
		}
		return io.NopCloser(zr), c, nil
	}

	return io.NopCloser(br), CompressionNone, nil
}
