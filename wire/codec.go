// Package wire maps between in-memory group elements/scalars and the
// hex-encoded JSON envelopes used on the HTTP transport. Decoding never
// trusts its input: invalid hex, wrong lengths, and non-canonical or
// identity group points are all rejected here before the PAKE core ever
// sees the value.
package wire

import (
	"encoding/hex"
	"fmt"

	ristretto "github.com/gtank/ristretto255"

	"github.com/avahowell/spake2p/group"
)

// DecodeErrorKind classifies why decoding a wire message failed.
type DecodeErrorKind int

const (
	// KindInvalidHex means a field was not valid hex (either letter case is
	// accepted on decode; encoding always produces lowercase).
	KindInvalidHex DecodeErrorKind = iota
	// KindInvalidLength means decoded bytes were the wrong length.
	KindInvalidLength
	// KindInvalidPoint means decoded bytes did not canonically encode a
	// non-identity group element.
	KindInvalidPoint
)

func (k DecodeErrorKind) String() string {
	switch k {
	case KindInvalidHex:
		return "invalid_hex"
	case KindInvalidLength:
		return "invalid_length"
	case KindInvalidPoint:
		return "invalid_point"
	default:
		return "unknown"
	}
}

// DecodeError reports a failure to decode a wire message field.
type DecodeError struct {
	Kind  DecodeErrorKind
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wire: decode %s: %s: %v", e.Field, e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeHexField(field, value string, wantLen int) ([]byte, error) {
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, &DecodeError{Kind: KindInvalidHex, Field: field, Err: err}
	}
	if len(b) != wantLen {
		return nil, &DecodeError{Kind: KindInvalidLength, Field: field, Err: fmt.Errorf("want %d bytes, got %d", wantLen, len(b))}
	}
	return b, nil
}

// SetupRequest is the hex-encoded wire form of a Setup message.
type SetupRequest struct {
	ID   string `json:"id"`
	Phi0 string `json:"phi0"`
	C    string `json:"c"`
}

// NewSetupRequest encodes a Setup message for the wire.
func NewSetupRequest(id string, phi0 *ristretto.Scalar, c *ristretto.Element) SetupRequest {
	phi0Bytes := group.EncodeScalar(phi0)
	cBytes := group.EncodePoint(c)
	return SetupRequest{
		ID:   id,
		Phi0: hex.EncodeToString(phi0Bytes[:]),
		C:    hex.EncodeToString(cBytes[:]),
	}
}

// Decode validates and decodes a SetupRequest into its in-memory form.
func (r SetupRequest) Decode() (id string, phi0 *ristretto.Scalar, c *ristretto.Element, err error) {
	phi0Bytes, err := decodeHexField("phi0", r.Phi0, group.ScalarSize)
	if err != nil {
		return "", nil, nil, err
	}
	cBytes, err := decodeHexField("c", r.C, group.PointSize)
	if err != nil {
		return "", nil, nil, err
	}

	phi0Scalar, err := group.DecodeScalarReducing(phi0Bytes)
	if err != nil {
		return "", nil, nil, &DecodeError{Kind: KindInvalidLength, Field: "phi0", Err: err}
	}
	cPoint, err := group.DecodePoint(cBytes)
	if err != nil {
		return "", nil, nil, &DecodeError{Kind: KindInvalidPoint, Field: "c", Err: err}
	}

	return r.ID, phi0Scalar, cPoint, nil
}

// ExchangeRequest is the hex-encoded wire form of a Login message.
type ExchangeRequest struct {
	ID string `json:"id"`
	U  string `json:"u"`
}

// NewExchangeRequest encodes a Login message for the wire.
func NewExchangeRequest(id string, u *ristretto.Element) ExchangeRequest {
	uBytes := group.EncodePoint(u)
	return ExchangeRequest{ID: id, U: hex.EncodeToString(uBytes[:])}
}

// Decode validates and decodes an ExchangeRequest into its in-memory form.
func (r ExchangeRequest) Decode() (id string, u *ristretto.Element, err error) {
	uBytes, err := decodeHexField("u", r.U, group.PointSize)
	if err != nil {
		return "", nil, err
	}
	uPoint, err := group.DecodePoint(uBytes)
	if err != nil {
		return "", nil, &DecodeError{Kind: KindInvalidPoint, Field: "u", Err: err}
	}
	return r.ID, uPoint, nil
}

// ExchangeResponse is the hex-encoded wire form of the server's Login
// response.
type ExchangeResponse struct {
	V string `json:"v"`
}

// NewExchangeResponse encodes a Login response for the wire.
func NewExchangeResponse(v *ristretto.Element) ExchangeResponse {
	vBytes := group.EncodePoint(v)
	return ExchangeResponse{V: hex.EncodeToString(vBytes[:])}
}

// Decode validates and decodes an ExchangeResponse into its in-memory form.
func (r ExchangeResponse) Decode() (v *ristretto.Element, err error) {
	vBytes, err := decodeHexField("v", r.V, group.PointSize)
	if err != nil {
		return nil, err
	}
	vPoint, err := group.DecodePoint(vBytes)
	if err != nil {
		return nil, &DecodeError{Kind: KindInvalidPoint, Field: "v", Err: err}
	}
	return vPoint, nil
}

// VerifyRequest is the hex-encoded wire form of a Verify message.
type VerifyRequest struct {
	IDc string `json:"idc"`
	Key string `json:"key"`
}

// NewVerifyRequest encodes a Verify message for the wire.
func NewVerifyRequest(idc string, key [32]byte) VerifyRequest {
	return VerifyRequest{IDc: idc, Key: hex.EncodeToString(key[:])}
}

// Decode validates and decodes a VerifyRequest into its in-memory form.
func (r VerifyRequest) Decode() (idc string, key [32]byte, err error) {
	keyBytes, err := decodeHexField("key", r.Key, 32)
	if err != nil {
		return "", key, err
	}
	copy(key[:], keyBytes)
	return r.IDc, key, nil
}
