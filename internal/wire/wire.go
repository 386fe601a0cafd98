// Package wire frames values written by store.Key so foreign, truncated or
// bit-flipped bytes under the same key are detected instead of handed to a codec.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 4 + 8
)

var (
	ErrCorrupt = errors.New("accessor: corrupt entry")
	magic4     = [...]byte{'A', 'C', 'C', 'V'}
)

// Encode: magic(4) | ver(1) | vlen(u32 be) | xxh64(payload, u64 be) | payload(vlen)
func Encode(payload []byte) []byte {
	out := make([]byte, hdrLen+len(payload))
	copy(out, magic4[:])
	out[4] = version
	binary.BigEndian.PutUint32(out[5:9], uint32(len(payload)))
	binary.BigEndian.PutUint64(out[9:hdrLen], xxhash.Sum64(payload))
	copy(out[hdrLen:], payload)
	return out
}

// Decode returns the payload of a frame built by Encode. The returned slice aliases b.
// Anything other than exactly one well-formed frame is ErrCorrupt.
func Decode(b []byte) ([]byte, error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return nil, ErrCorrupt
	}
	vlen := binary.BigEndian.Uint32(b[5:9])
	if uint64(vlen) != uint64(len(b)-hdrLen) {
		return nil, ErrCorrupt
	}
	payload := b[hdrLen:]
	if xxhash.Sum64(payload) != binary.BigEndian.Uint64(b[9:hdrLen]) {
		return nil, ErrCorrupt
	}
	return payload, nil
}
