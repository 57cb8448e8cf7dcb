package zlref

import (
	"github.com/arloliu/codecbench/endian"
	"github.com/arloliu/codecbench/engine"
	"github.com/arloliu/codecbench/format"
)

const (
	frameMagic uint32 = 0x46524c5a // "ZLRF"

	// magic(4) + flags(1) + backend(1) + tag(4) + size(8)
	frameHeaderSize = 18

	flagGrouped uint8 = 1 << 0

	maxFrameDecodedSize = 1 << 32
)

var le = endian.GetLittleEndianEngine()

type frameHeader struct {
	flags   uint8
	backend format.CompressionType
	tag     int32
	size    uint64
}

func (h frameHeader) appendTo(b []byte) []byte {
	b = le.AppendUint32(b, frameMagic)
	b = append(b, h.flags, uint8(h.backend))
	b = le.AppendUint32(b, uint32(h.tag))

	return le.AppendUint64(b, h.size)
}

// parseFrameHeader decodes the header and returns the backend stream.
func parseFrameHeader(src []byte) (frameHeader, []byte, error) {
	var h frameHeader
	if len(src) < frameHeaderSize {
		return h, nil, engine.Errorf("decompress", engine.CodeSrcSizeTooSmall, "frame of %d bytes is shorter than its header", len(src))
	}

	cur := endian.NewCursor(le, src)
	magic, _ := cur.Uint32()
	if magic != frameMagic {
		return h, nil, engine.Errorf("decompress", engine.CodeCorruption, "bad frame magic %#x", magic)
	}
	h.flags, _ = cur.Uint8()
	backend, _ := cur.Uint8()
	h.backend = format.CompressionType(backend)
	tag, _ := cur.Uint32()
	h.tag = int32(tag)
	h.size, _ = cur.Uint64()

	if h.size > maxFrameDecodedSize {
		return h, nil, engine.Errorf("decompress", engine.CodeUnknownSize, "declared size %d", h.size)
	}

	return h, cur.Remaining(), nil
}

// DecompressedSize reads the declared size from a frame without decoding it.
func DecompressedSize(src []byte) (int, error) {
	if len(src) == 0 {
		return 0, nil
	}
	h, _, err := parseFrameHeader(src)
	if err != nil {
		return 0, err
	}

	return int(h.size), nil
}
