package group

import (
	"crypto/sha512"

	ristretto "github.com/gtank/ristretto255"
)

// DeriveSessionKey computes H', the keyed hash that turns a completed
// SPAKE2+ exchange into a 32-byte session key. The inputs are hashed in
// exactly the order below; reordering them would silently break
// interoperability with any other implementation of this protocol.
func DeriveSessionKey(phi0 *ristretto.Scalar, idc, ids string, u, v, w, d *ristretto.Element) [32]byte {
	h := sha512.New()

	phi0Bytes := EncodeScalar(phi0)
	h.Write(phi0Bytes[:])
	h.Write([]byte(idc))
	h.Write([]byte(ids))

	for _, p := range [...]*ristretto.Element{u, v, w, d} {
		enc := EncodePoint(p)
		h.Write(enc[:])
	}

	sum := h.Sum(nil)
	var key [32]byte
	copy(key[:], sum[:32])
	return key
}
