// Package digest is a portable, streaming implementation of the SHA-256 hash
// function. A State is created with New, fed with Update (or Write) any number
// of times, and consumed exactly once by Finalize.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
)

// --- Constants ---

// Size is the length of a SHA-256 digest in bytes.
const Size = 32

// BlockSize is the number of input bytes consumed by one compression pass.
const BlockSize = 64

// lengthOffset is the block offset at which the 64-bit message length starts.
const lengthOffset = BlockSize - 8

// iv holds the initial hash value: the first 32 bits of the fractional parts of
// the square roots of the first eight primes.
var iv = [8]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

// ErrFinalized is returned when a State is used after Finalize.
var ErrFinalized = errors.New("digest: state already finalized")

// --- Types ---

// Digest is a finished SHA-256 value.
type Digest [Size]byte

// String renders the digest as 64 lowercase hex characters.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Hex is the function form of Digest.String.
func Hex(d Digest) string {
	return d.String()
}

// State is the running hash of a single message. It must not be shared between
// goroutines, and it cannot be reused once Finalize has returned.
type State struct {
	h         [8]uint32
	n         uint64
	buf       [BlockSize]byte
	finalized bool
}

// New returns a State loaded with the SHA-256 initial hash value.
func New() *State {
	return &State{h: iv}
}

// Len reports how many message bytes have been absorbed so far.
func (s *State) Len() uint64 {
	return s.n
}

// Update absorbs p into the state. It may be called any number of times with
// chunks of any size, including empty ones; the final digest only depends on
// the concatenation of everything passed in.
func (s *State) Update(p []byte) error {
	if s.finalized {
		return ErrFinalized
	}
	if s.n+uint64(len(p)) < s.n {
		panic("digest: message length overflows 2^64 bytes")
	}
	s.absorb(p)
	return nil
}

// Write implements io.Writer so a State can be the destination of io.Copy.
func (s *State) Write(p []byte) (int, error) {
	if err := s.Update(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// absorb places p into the block buffer at offset n mod 64 and runs one
// compression pass for every block that fills up. Whole blocks are compressed
// straight from p without staging them in the buffer.
func (s *State) absorb(p []byte) {
	off := int(s.n % BlockSize)
	s.n += uint64(len(p))

	if off > 0 {
		c := copy(s.buf[off:], p)
		p = p[c:]
		if off+c < BlockSize {
			return
		}
		compress(&s.h, s.buf[:])
	}
	for len(p) >= BlockSize {
		compress(&s.h, p[:BlockSize])
		p = p[BlockSize:]
	}
	copy(s.buf[:], p)
}

// Finalize pads the message, runs the last one or two compression passes and
// returns the digest. The state is scrubbed afterwards and every later call to
// Update, Write or Finalize returns ErrFinalized.
func (s *State) Finalize() (Digest, error) {
	if s.finalized {
		return Digest{}, ErrFinalized
	}
	bits := s.n << 3

	// 0x80 followed by zeros up to offset 56. When the marker lands past 56 the
	// zeros spill into a fresh block, compressed on the way by absorb.
	var pad [BlockSize]byte
	pad[0] = 0x80
	off := int(s.n % BlockSize)
	padLen := BlockSize + lengthOffset - off
	if off < lengthOffset {
		padLen = lengthOffset - off
	}
	s.absorb(pad[:padLen])

	var length [8]byte
	binary.BigEndian.PutUint64(length[:], bits)
	s.absorb(length[:])

	var d Digest
	for i, v := range s.h {
		binary.BigEndian.PutUint32(d[i*4:], v)
	}

	s.scrub()
	return d, nil
}

// scrub zeroes the hash words and the block buffer and marks the state spent.
func (s *State) scrub() {
	clear(s.h[:])
	clear(s.buf[:])
	s.n = 0
	s.finalized = true
}

// Sum returns the digest of data in one call.
func Sum(data []byte) Digest {
	s := New()
	s.absorb(data)
	d, _ := s.Finalize()
	return d
}
