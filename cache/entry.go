package cache

import (
	"encoding/binary"
	"errors"
	"time"
)

const (
	envelopeMagic      = "TIC1"
	envelopeHeaderSize = len(envelopeMagic) + 1 + 8

	flagMarker byte = 1 << 0
)

var (
	errBadEnvelope = errors.New("cache: bad entry envelope")
	errMarker      = errors.New("cache: entry marked too large to cache")
)

// Entry is a retrieved cache entry.
type Entry struct {
	Key        string
	Payload    []byte    // decompressed payload
	Compressed int       // size of the compressed frame
	StoredAt   time.Time // time of the Store call that wrote the entry
	Tier       string    // tier the entry was read from
	Marker     bool      // the payload did not fit and only a marker was stored
}

func encodeEnvelope(frame []byte, storedAt time.Time, marker bool) []byte {
	out := make([]byte, envelopeHeaderSize+len(frame))
	copy(out, envelopeMagic)
	if marker {
		out[len(envelopeMagic)] = flagMarker
	}
	binary.LittleEndian.PutUint64(out[len(envelopeMagic)+1:], uint64(storedAt.UnixNano()))
	copy(out[envelopeHeaderSize:], frame)
	return out
}

func decodeEnvelope(data []byte) (frame []byte, storedAt time.Time, marker bool, err error) {
	if len(data) < envelopeHeaderSize || string(data[:len(envelopeMagic)]) != envelopeMagic {
		return nil, time.Time{}, false, errBadEnvelope
	}
	flags := data[len(envelopeMagic)]
	nanos := int64(binary.LittleEndian.Uint64(data[len(envelopeMagic)+1:]))
	return data[envelopeHeaderSize:], time.Unix(0, nanos), flags&flagMarker != 0, nil
}
