package models

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Base62Length is the length of an encoded [ID].
const Base62Length = 22

var (
	ErrInvalidID = errors.New("invalid catalog id")
	ErrIDRange   = errors.New("catalog id exceeds 128 bits")
)

// ID is a 128-bit catalog identifier, stored big-endian.
type ID [16]byte

// IDFromBase62 decodes an identifier written in the base-62 alphabet.
//
// Shorter inputs are accepted and behave as if left-padded with '0'.
func IDFromBase62(s string) (ID, error) {
	if s == "" {
		return ID{}, fmt.Errorf("%w: empty", ErrInvalidID)
	}

	var hi, lo uint64
	for i := 0; i < len(s); i++ {
		d := strings.IndexByte(base62Alphabet, s[i])
		if d < 0 {
			return ID{}, fmt.Errorf("%w: %q has invalid character %q", ErrInvalidID, s, s[i])
		}

		carry, nlo := bits.Mul64(lo, 62)
		over, nhi := bits.Mul64(hi, 62)
		if over != 0 {
			return ID{}, fmt.Errorf("%w: %q", ErrIDRange, s)
		}

		var c uint64
		nhi, c = bits.Add64(nhi, carry, 0)
		if c != 0 {
			return ID{}, fmt.Errorf("%w: %q", ErrIDRange, s)
		}
		nlo, c = bits.Add64(nlo, uint64(d), 0)
		nhi, c = bits.Add64(nhi, 0, c)
		if c != 0 {
			return ID{}, fmt.Errorf("%w: %q", ErrIDRange, s)
		}

		hi, lo = nhi, nlo
	}

	var id ID
	binary.BigEndian.PutUint64(id[:8], hi)
	binary.BigEndian.PutUint64(id[8:], lo)
	return id, nil
}

// IDFromHex decodes a 32 character hex identifier.
func IDFromHex(s string) (ID, error) {
	var id ID
	if len(s) != hex.EncodedLen(len(id)) {
		return ID{}, fmt.Errorf("%w: hex id %q has length %d", ErrInvalidID, s, len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return id, nil
}

// Base62 encodes the identifier as 22 base-62 characters.
func (id ID) Base62() string {
	hi := binary.BigEndian.Uint64(id[:8])
	lo := binary.BigEndian.Uint64(id[8:])

	var out [Base62Length]byte
	for i := Base62Length - 1; i >= 0; i-- {
		var r uint64
		hi, r = hi/62, hi%62
		lo, r = bits.Div64(r, lo, 62)
		out[i] = base62Alphabet[r]
	}
	return string(out[:])
}

// Hex encodes the identifier as 32 lowercase hex characters.
func (id ID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String implements [fmt.Stringer] with the base-62 form.
func (id ID) String() string {
	return id.Base62()
}

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool {
	return id == ID{}
}

// FileID identifies one encoded file of a track.
type FileID [20]byte

// FileIDFromHex decodes a 40 character hex file handle.
func FileIDFromHex(s string) (FileID, error) {
	var f FileID
	if len(s) != hex.EncodedLen(len(f)) {
		return FileID{}, fmt.Errorf("%w: file id %q has length %d", ErrInvalidID, s, len(s))
	}
	if _, err := hex.Decode(f[:], []byte(s)); err != nil {
		return FileID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return f, nil
}

func (f FileID) Hex() string {
	return hex.EncodeToString(f[:])
}

func (f FileID) String() string {
	return f.Hex()
}

// AudioKey is the decryption key bound to one (track, file) pair.
type AudioKey [16]byte

// AudioKeyFromHex decodes a 32 character hex key.
func AudioKeyFromHex(s string) (AudioKey, error) {
	var k AudioKey
	if len(s) != hex.EncodedLen(len(k)) {
		return AudioKey{}, fmt.Errorf("audio key has length %d", len(s))
	}
	if _, err := hex.Decode(k[:], []byte(s)); err != nil {
		return AudioKey{}, fmt.Errorf("audio key: %w", err)
	}
	return k, nil
}
