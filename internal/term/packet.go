package term

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// PacketHeaderLen is the size of the {packet,4} length prefix.
const PacketHeaderLen = 4

// ReadPacket reads one {packet,4} framed term. The returned body starts
// with the version byte.
func ReadPacket(r io.Reader, limits Limits) ([]byte, error) {
	var head [PacketHeaderLen]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: packet header", ErrTruncated)
		}
		return nil, fmt.Errorf("%w: read packet header: %w", ErrIO, err)
	}

	n := uint64(binary.BigEndian.Uint32(head[:]))
	if n == 0 {
		return nil, ErrEmptyPacket
	}
	if n > limits.MaxPacketBytes {
		return nil, ErrPacketTooLarge
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: packet body", ErrTruncated)
		}
		return nil, fmt.Errorf("%w: read packet body: %w", ErrIO, err)
	}
	if body[0] != Version {
		return nil, fmt.Errorf("%w: got %d", ErrBadVersion, body[0])
	}
	return body, nil
}

// WritePacket frames body, which must start with the version byte.
func WritePacket(w io.Writer, body []byte, limits Limits) error {
	if len(body) == 0 {
		return ErrEmptyPacket
	}
	if uint64(len(body)) > limits.MaxPacketBytes || uint64(len(body)) > 0xffffffff {
		return ErrPacketTooLarge
	}
	if body[0] != Version {
		return fmt.Errorf("%w: got %d", ErrBadVersion, body[0])
	}

	var head [PacketHeaderLen]byte
	binary.BigEndian.PutUint32(head[:], uint32(len(body)))
	if _, err := w.Write(head[:]); err != nil {
		return fmt.Errorf("%w: write packet header: %w", ErrIO, err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("%w: write packet body: %w", ErrIO, err)
	}
	return nil
}
