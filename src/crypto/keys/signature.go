package keys

import (
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Sign signs the data with the private key and the built-in pseudo-random
// generator rand.Reader.
func Sign(priv *ecdsa.PrivateKey, data []byte) (r, s *big.Int, err error) {
	return ecdsa.Sign(rand.Reader, priv, data)
}

// Verify verifies that a signature represented by r and s values, is a valid
// signature of the data by an owner of the private key associated with the
// provided public key.
func Verify(pub *ecdsa.PublicKey, data []byte, r, s *big.Int) bool {
	return ecdsa.Verify(pub, data, r, s)
}

// EncodeSignature returns a string representation of a signature.
func EncodeSignature(r, s *big.Int) string {
	return fmt.Sprintf("%s|%s", r.Text(36), s.Text(36))
}

// DecodeSignature parses a string representation of a signature as produced by
// EncodeSignature.
func DecodeSignature(sig string) (r, s *big.Int, err error) {
	values := strings.Split(sig, "|")
	if len(values) != 2 {
		return r, s, fmt.Errorf("wrong number of values in signature: got %d, want 2", len(values))
	}
	var ok bool
	if r, ok = new(big.Int).SetString(values[0], 36); !ok {
		return nil, nil, fmt.Errorf("invalid signature r value %q", values[0])
	}
	if s, ok = new(big.Int).SetString(values[1], 36); !ok {
		return nil, nil, fmt.Errorf("invalid signature s value %q", values[1])
	}
	return r, s, nil
}

// SignString signs data and returns the encoded signature.
func SignString(priv *ecdsa.PrivateKey, data []byte) (string, error) {
	r, s, err := Sign(priv, data)
	if err != nil {
		return "", err
	}
	return EncodeSignature(r, s), nil
}

// VerifyString checks an encoded signature of data against the agent
// identity returned by PublicKeyHex.
func VerifyString(agent string, data []byte, sig string) (bool, error) {
	pub, err := ParsePublicKeyHex(agent)
	if err != nil {
		return false, err
	}
	r, s, err := DecodeSignature(sig)
	if err != nil {
		return false, err
	}
	return Verify(pub, data, r, s), nil
}
