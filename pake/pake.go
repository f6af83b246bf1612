// Package pake implements the five algebraic steps of SPAKE2+ as pure
// functions: no I/O, no mutable state beyond the group's cached fixed
// points. Everything here operates on secret scalars; callers are expected
// to scrub the values they hold once a session key has been derived.
package pake

import (
	ristretto "github.com/gtank/ristretto255"

	"github.com/avahowell/spake2p/group"
)

// Secrets holds the two password-derived half-secrets phi0 and phi1.
// phi0 is retained by the server as part of the verifier; phi1 is known
// only to the client, which uses it at setup time to compute C and again
// in ClientKey on every login to compute D.
type Secrets struct {
	Phi0 *ristretto.Scalar
	Phi1 *ristretto.Scalar
}

// Commitment is the per-exchange message a party sends (U for the client,
// V for the server) together with the ephemeral blinding scalar it used
// to produce it.
type Commitment struct {
	Point *ristretto.Element
	Blind *ristretto.Scalar
}

// DeriveSecrets deterministically derives (phi0, phi1) from a password and
// the two party identifiers. The same inputs always yield the same
// secrets, on any conforming implementation.
func DeriveSecrets(password, idc, ids string) Secrets {
	msg := make([]byte, 0, len(password)+len(idc)+len(ids))
	msg = append(msg, password...)
	msg = append(msg, idc...)
	msg = append(msg, ids...)

	phi0, phi1 := group.HashToScalarPair(msg)
	return Secrets{Phi0: phi0, Phi1: phi1}
}

// MakeVerifier computes C = G * phi1, the group element the server stores
// in place of phi1 itself.
func MakeVerifier(phi1 *ristretto.Scalar) *ristretto.Element {
	return ristretto.NewElement().ScalarBaseMult(phi1)
}

// ClientCommit draws a fresh ephemeral scalar alpha and computes the
// client's first message U = G*alpha + A*phi0.
func ClientCommit(phi0 *ristretto.Scalar) (Commitment, error) {
	alpha, err := group.RandomScalar()
	if err != nil {
		return Commitment{}, err
	}
	u := ristretto.NewElement().ScalarBaseMult(alpha)
	u.Add(u, ristretto.NewElement().ScalarMult(phi0, group.PointA()))
	return Commitment{Point: u, Blind: alpha}, nil
}

// ServerCommit draws a fresh ephemeral scalar beta and computes the
// server's message V = G*beta + B*phi0.
func ServerCommit(phi0 *ristretto.Scalar) (Commitment, error) {
	beta, err := group.RandomScalar()
	if err != nil {
		return Commitment{}, err
	}
	v := ristretto.NewElement().ScalarBaseMult(beta)
	v.Add(v, ristretto.NewElement().ScalarMult(phi0, group.PointB()))
	return Commitment{Point: v, Blind: beta}, nil
}

// ClientKey derives the client's view of the session key from its own
// ephemeral state and the server's commitment V.
//
//	W = (V - B*phi0) * alpha
//	D = (V - B*phi0) * phi1
func ClientKey(idc, ids string, phi0, phi1, alpha *ristretto.Scalar, u, v *ristretto.Element) [32]byte {
	bPhi0 := ristretto.NewElement().ScalarMult(phi0, group.PointB())
	vMinusBPhi0 := ristretto.NewElement().Subtract(v, bPhi0)

	w := ristretto.NewElement().ScalarMult(alpha, vMinusBPhi0)
	d := ristretto.NewElement().ScalarMult(phi1, vMinusBPhi0)

	return group.DeriveSessionKey(phi0, idc, ids, u, v, w, d)
}

// ServerKey derives the server's view of the session key from its stored
// verifier (phi0, C), its own ephemeral beta, and the client's commitment
// U.
//
//	W = (U - A*phi0) * beta
//	D = C * beta
func ServerKey(idc, ids string, phi0 *ristretto.Scalar, c *ristretto.Element, beta *ristretto.Scalar, u, v *ristretto.Element) [32]byte {
	aPhi0 := ristretto.NewElement().ScalarMult(phi0, group.PointA())
	uMinusAPhi0 := ristretto.NewElement().Subtract(u, aPhi0)

	w := ristretto.NewElement().ScalarMult(beta, uMinusAPhi0)
	d := ristretto.NewElement().ScalarMult(beta, c)

	return group.DeriveSessionKey(phi0, idc, ids, u, v, w, d)
}
