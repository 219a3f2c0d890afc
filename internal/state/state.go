// Package state provides the binary save-state cursor used throughout
// the core. Every stateful peripheral (CPU, PPU, APU, timer, cartridge
// MBC) saves and restores itself through State's Write/Read cursor
// methods, declared as a narrow local interface in each Save/Load; the
// interrupt controller's fields are written by the MMU. Machine.SaveState
// / Machine.LoadState drive the whole tree through a single byte stream.
//
// Grounded on _examples/thelolagemann-gomeboy/internal/types/state.go's
// Stater/State read/write-cursor design. This package additionally
// compresses the stream with brotli and tags it with an xxhash checksum
// (spec.md's distillation only asked for raw battery-RAM persistence;
// the original Rust source this was distilled from, MagenBoy, round-
// trips full component state through its own save format — see
// SPEC_FULL.md's "Supplemented features" section).
package state

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/cespare/xxhash"
)

// Stater is implemented by anything that can serialize and restore its
// own state through a State cursor.
type Stater interface {
	Save(*State)
	Load(*State)
}

// State is a flat byte buffer with independent read/write cursors, used
// to serialize and deserialize the machine's component tree.
type State struct {
	raw  []byte
	read int
}

// New returns an empty State ready for writing.
func New() *State {
	return &State{}
}

// FromBytes wraps raw as a State ready for reading.
func FromBytes(raw []byte) *State {
	return &State{raw: raw}
}

// Bytes returns the accumulated raw buffer.
func (s *State) Bytes() []byte {
	return s.raw
}

func (s *State) Write8(v uint8) {
	s.raw = append(s.raw, v)
}

func (s *State) Write16(v uint16) {
	s.raw = append(s.raw, uint8(v), uint8(v>>8))
}

func (s *State) WriteBool(v bool) {
	if v {
		s.Write8(1)
	} else {
		s.Write8(0)
	}
}

func (s *State) WriteData(v []byte) {
	s.Write32(uint32(len(v)))
	s.raw = append(s.raw, v...)
}

func (s *State) Write32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	s.raw = append(s.raw, b[:]...)
}

func (s *State) Read8() uint8 {
	v := s.raw[s.read]
	s.read++
	return v
}

func (s *State) Read16() uint16 {
	lo := s.Read8()
	hi := s.Read8()
	return uint16(hi)<<8 | uint16(lo)
}

func (s *State) Read32() uint32 {
	v := binary.LittleEndian.Uint32(s.raw[s.read : s.read+4])
	s.read += 4
	return v
}

func (s *State) ReadBool() bool {
	return s.Read8() != 0
}

func (s *State) ReadData(dst []byte) {
	n := s.Read32()
	copy(dst, s.raw[s.read:s.read+int(n)])
	s.read += int(n)
}

// ReadBytes reads and returns a freshly-allocated copy of a WriteData block.
func (s *State) ReadBytes() []byte {
	n := s.Read32()
	out := make([]byte, n)
	copy(out, s.raw[s.read:s.read+int(n)])
	s.read += int(n)
	return out
}

// Encode compresses s's buffer with brotli and prefixes it with an
// xxhash checksum of the uncompressed contents, producing the format
// Machine.SaveState writes to disk.
func Encode(s *State) ([]byte, error) {
	sum := xxhash.Sum64(s.raw)

	var compressed bytes.Buffer
	w := brotli.NewWriterLevel(&compressed, brotli.DefaultCompression)
	if _, err := w.Write(s.raw); err != nil {
		return nil, fmt.Errorf("state: compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("state: compress: %w", err)
	}

	out := make([]byte, 8, 8+compressed.Len())
	binary.LittleEndian.PutUint64(out, sum)
	out = append(out, compressed.Bytes()...)
	return out, nil
}

// Decode reverses Encode, verifying the checksum before returning a
// readable State.
func Decode(raw []byte) (*State, error) {
	if len(raw) < 8 {
		return nil, fmt.Errorf("state: truncated save data")
	}
	wantSum := binary.LittleEndian.Uint64(raw[:8])

	r := brotli.NewReader(bytes.NewReader(raw[8:]))
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("state: decompress: %w", err)
	}

	if gotSum := xxhash.Sum64(data); gotSum != wantSum {
		return nil, fmt.Errorf("state: checksum mismatch (save file corrupt or from a different build)")
	}

	return FromBytes(data), nil
}
