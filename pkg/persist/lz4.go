package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Block header layout: one mode byte followed by the uncompressed length.
const (
	headerSize     = 5
	modeStored     = 0
	modeCompressed = 1
)

// ErrCorruptBlock indicates a compressed payload with an invalid header.
var ErrCorruptBlock = errors.New("corrupt lz4 block")

// LZ4Codec compresses the output of an inner codec as a single LZ4 block.
// Payloads LZ4 cannot shrink are stored uncompressed.
type LZ4Codec struct {
	inner Codec
}

// NewLZ4Codec wraps inner with LZ4 block compression.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{inner: inner}
}

// Encode implements Codec.Encode.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	var plain bytes.Buffer

	err := c.inner.Encode(&plain, state)
	if err != nil {
		return err
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[1:], uint32(plain.Len()))

	compressed := make([]byte, lz4.CompressBlockBound(plain.Len()))

	written, compressErr := lz4.CompressBlock(plain.Bytes(), compressed, nil)
	if compressErr != nil {
		return fmt.Errorf("lz4 compress: %w", compressErr)
	}

	payload := plain.Bytes()
	header[0] = modeStored

	if written > 0 && written < plain.Len() {
		payload = compressed[:written]
		header[0] = modeCompressed
	}

	_, err = w.Write(header)
	if err == nil {
		_, err = w.Write(payload)
	}

	if err != nil {
		return fmt.Errorf("lz4 write: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("lz4 read: %w", err)
	}

	if len(data) < headerSize {
		return fmt.Errorf("%w: short header", ErrCorruptBlock)
	}

	size := int(binary.LittleEndian.Uint32(data[1:headerSize]))
	body := data[headerSize:]

	switch data[0] {
	case modeStored:
		if len(body) != size {
			return fmt.Errorf("%w: stored size %d, header %d", ErrCorruptBlock, len(body), size)
		}
	case modeCompressed:
		plain := make([]byte, size)

		n, uncompressErr := lz4.UncompressBlock(body, plain)
		if uncompressErr != nil {
			return fmt.Errorf("lz4 uncompress: %w", uncompressErr)
		}

		body = plain[:n]
	default:
		return fmt.Errorf("%w: mode %d", ErrCorruptBlock, data[0])
	}

	return c.inner.Decode(bytes.NewReader(body), state)
}

// Extension implements Codec.Extension, e.g. ".gob.lz4".
func (c *LZ4Codec) Extension() string {
	return c.inner.Extension() + lz4Suffix
}
