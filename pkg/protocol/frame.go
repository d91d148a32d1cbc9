package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic is the 4-byte sentinel ("IMIM" in ASCII) that opens every frame.
const Magic uint32 = 0x494D494D

// HeaderSize is the fixed length of magic+type+length preceding the payload.
const HeaderSize = 4 + 2 + 4

// MaxMismatches bounds how many consecutive magic-mismatches the decoder
// tolerates before giving up and discarding everything it has buffered.
const MaxMismatches = 10

// MaxPayloadSize guards against a corrupted length field claiming an
// unreasonable amount of memory.
const MaxPayloadSize = 16 * 1024 * 1024

// ErrPayloadTooLarge is returned when a frame's declared length exceeds
// MaxPayloadSize.
var ErrPayloadTooLarge = errors.New("protocol: frame payload too large")

// Packet is one fully decoded message.
type Packet struct {
	Type    MessageType
	Payload []byte
}

// Encode builds a complete wire frame for the given type and payload.
func Encode(msgType MessageType, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint16(buf[4:6], uint16(msgType))
	binary.BigEndian.PutUint32(buf[6:10], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf
}

// Decoder is a stateful streaming frame decoder with magic-byte resync,
// ported from the mismatch-counting algorithm in the original C++
// MessageDecoder::decodeMessages.
type Decoder struct {
	buf           []byte
	mismatch      int
	maxMismatches int
}

// NewDecoder returns an empty streaming decoder using the default resync
// tolerance, MaxMismatches.
func NewDecoder() *Decoder {
	return &Decoder{maxMismatches: MaxMismatches}
}

// NewDecoderWithResyncLimit returns a streaming decoder whose magic-mismatch
// tolerance is configurable, for operators tuning resync_max_mismatches. A
// non-positive limit falls back to MaxMismatches.
func NewDecoderWithResyncLimit(maxMismatches int) *Decoder {
	if maxMismatches <= 0 {
		maxMismatches = MaxMismatches
	}
	return &Decoder{maxMismatches: maxMismatches}
}

// Write appends newly received bytes to the decoder's internal buffer.
func (d *Decoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

// Decode drains as many complete packets as are currently available in the
// buffer, applying the resync algorithm on magic mismatches. It never
// returns an error for malformed input — corrupted bytes are discarded via
// resync, matching the original decoder's behavior — but it does return an
// error if a well-framed packet declares an unreasonable payload length.
func (d *Decoder) Decode() ([]Packet, error) {
	var packets []Packet

	for len(d.buf) >= HeaderSize {
		magic := binary.BigEndian.Uint32(d.buf[0:4])
		if magic != Magic {
			d.mismatch++
			if d.mismatch > d.maxMismatches {
				d.buf = d.buf[:0]
				d.mismatch = 0
				break
			}
			d.buf = d.buf[1:]
			continue
		}
		d.mismatch = 0

		msgType := MessageType(binary.BigEndian.Uint16(d.buf[4:6]))
		length := binary.BigEndian.Uint32(d.buf[6:10])
		if length > MaxPayloadSize {
			return packets, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, length)
		}

		total := HeaderSize + int(length)
		if len(d.buf) < total {
			// Wait for more bytes.
			break
		}

		payload := make([]byte, length)
		copy(payload, d.buf[HeaderSize:total])
		packets = append(packets, Packet{Type: msgType, Payload: payload})

		d.buf = d.buf[total:]
	}

	return packets, nil
}

// Reset clears all buffered state, as if the decoder had just been created.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.mismatch = 0
}
