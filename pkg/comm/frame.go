package comm

import (
	"encoding/binary"
	"fmt"
	"io"
)

// service connections exchange one length-prefixed binary frame in each
// direction: 4-byte big-endian length, then that many payload bytes.

const maxServiceFrame = 16 << 20

func writeFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxServiceFrame {
		return fmt.Errorf("comm: frame of %d bytes exceeds limit", len(payload))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxServiceFrame {
		return nil, fmt.Errorf("comm: frame of %d bytes exceeds limit", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
