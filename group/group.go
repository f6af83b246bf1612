// Package group implements the prime-order group operations that the
// SPAKE2+ exchange is built on: a Ristretto-encoded Curve25519 group,
// deterministic hash-to-group and hash-to-scalar derivations, and the
// keyed transcript hash H' that produces the final session key.
//
// All group operations here are constant-time with respect to secret
// scalars; the underlying gtank/ristretto255 primitives never branch on
// scalar or point contents.
package group

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"

	ristretto "github.com/gtank/ristretto255"
)

// Sizes of the canonical encodings used on the wire.
const (
	ScalarSize = 32
	PointSize  = 32
)

var (
	// ErrInvalidLength is returned when a decoded byte slice is not exactly
	// PointSize or ScalarSize bytes long.
	ErrInvalidLength = errors.New("group: invalid encoded length")
	// ErrInvalidEncoding is returned when bytes do not canonically encode a
	// group element.
	ErrInvalidEncoding = errors.New("group: non-canonical point encoding")
	// ErrIdentityElement is returned when a decoded point is the identity,
	// which is forbidden in every protocol message.
	ErrIdentityElement = errors.New("group: point is the identity element")
)

// basePoint, pointA and pointB are the three fixed public points the
// protocol relies on. They are derived once, at package initialization,
// and never change for the lifetime of the process.
var (
	basePoint = ristretto.NewElement().Base()
	pointA    = hashToGroup([]byte("A"))
	pointB    = hashToGroup([]byte("B"))
)

func init() {
	identity := ristretto.NewElement()
	if pointA.Equal(identity) == 1 {
		panic("group: hash_to_group(\"A\") produced the identity element")
	}
	if pointB.Equal(identity) == 1 {
		panic("group: hash_to_group(\"B\") produced the identity element")
	}
	if pointA.Equal(pointB) == 1 {
		panic("group: A and B are not distinct")
	}
	if pointA.Equal(basePoint) == 1 || pointB.Equal(basePoint) == 1 {
		panic("group: A or B collides with the generator")
	}
}

// Generator returns the group's standard base point G.
func Generator() *ristretto.Element { return basePoint }

// PointA returns the fixed public point A, domain-separated from G.
func PointA() *ristretto.Element { return pointA }

// PointB returns the fixed public point B, domain-separated from G and A.
func PointB() *ristretto.Element { return pointB }

// hashToGroup derives a group element from a byte label via Ristretto's
// uniform-bytes map (Elligator2 under the hood). It must be deterministic
// across implementations for the labels "A" and "B".
func hashToGroup(label []byte) *ristretto.Element {
	h := sha512.Sum512(label)
	return ristretto.NewElement().FromUniformBytes(h[:])
}

// HashToScalarPair hashes msg with SHA-512 and splits the 64-byte digest
// into two halves, each reduced mod q. It is used only by password
// derivation, where the caller's prefix bytes provide domain separation.
func HashToScalarPair(msg []byte) (*ristretto.Scalar, *ristretto.Scalar) {
	h := sha512.Sum512(msg)
	return reduceWide(h[:32]), reduceWide(h[32:])
}

// reduceWide treats b (32 bytes) as a little-endian integer and reduces it
// mod q by zero-extending it to 64 bytes before the uniform-bytes
// reduction; zero-extending a little-endian integer does not change its
// value, so this is equivalent to a direct mod-q reduction of b.
func reduceWide(b []byte) *ristretto.Scalar {
	var wide [64]byte
	copy(wide[:32], b)
	return ristretto.NewScalar().FromUniformBytes(wide[:])
}

// RandomScalar draws a scalar from the system's cryptographically secure
// random source, rejecting and redrawing on the all-zero scalar.
func RandomScalar() (*ristretto.Scalar, error) {
	zero := ristretto.NewScalar()
	for {
		var b [64]byte
		if _, err := rand.Read(b[:]); err != nil {
			return nil, err
		}
		s := ristretto.NewScalar().FromUniformBytes(b[:])
		if s.Equal(zero) == 0 {
			return s, nil
		}
	}
}

// EncodePoint returns the 32-byte canonical compressed encoding of p.
func EncodePoint(p *ristretto.Element) [PointSize]byte {
	var out [PointSize]byte
	copy(out[:], p.Encode(nil))
	return out
}

// DecodePoint decodes a canonical 32-byte compressed encoding. It fails on
// wrong length, non-canonical encodings, and the identity element.
func DecodePoint(b []byte) (*ristretto.Element, error) {
	if len(b) != PointSize {
		return nil, ErrInvalidLength
	}
	p := ristretto.NewElement()
	if err := p.Decode(b); err != nil {
		return nil, ErrInvalidEncoding
	}
	if p.Equal(ristretto.NewElement()) == 1 {
		return nil, ErrIdentityElement
	}
	return p, nil
}

// EncodeScalar returns the 32-byte little-endian encoding of s, reduced
// mod q.
func EncodeScalar(s *ristretto.Scalar) [ScalarSize]byte {
	var out [ScalarSize]byte
	copy(out[:], s.Encode(nil))
	return out
}

// DecodeScalarReducing decodes 32 bytes as a scalar, reducing mod q. Unlike
// DecodePoint, it never fails for a well-formed length-32 input: zero and
// out-of-range byte patterns are simply reduced, not rejected.
func DecodeScalarReducing(b []byte) (*ristretto.Scalar, error) {
	if len(b) != ScalarSize {
		return nil, ErrInvalidLength
	}
	return reduceWide(b), nil
}

// ConstantTimeEqual compares two 32-byte arrays without short-circuiting.
func ConstantTimeEqual(a, b [32]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
