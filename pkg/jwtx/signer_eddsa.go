package jwtx

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// EdDSASigner signs session tokens with an Ed25519 key whose public half is
// served from /.well-known/jwks.json.
type EdDSASigner struct {
	kid  string
	priv ed25519.PrivateKey
}

func newEdDSASigner(kid string, priv ed25519.PrivateKey) (*EdDSASigner, error) {
	s := &EdDSASigner{kid: kid, priv: priv}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseEd25519PEM reads a PKCS8 "PRIVATE KEY" block, the format
// cryptox.GenerateEd25519Key writes.
func parseEd25519PEM(pemKey []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemKey)
	switch {
	case block == nil:
		return nil, errors.New("jwtx: no PEM block in Ed25519 key")
	case block.Type != "PRIVATE KEY":
		return nil, fmt.Errorf("jwtx: Ed25519 key must be PKCS8, got PEM type %q", block.Type)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("jwtx: PKCS8 key is %T, not Ed25519", parsed)
	}
	return priv, nil
}

func (s *EdDSASigner) Alg() string { return jwt.SigningMethodEdDSA.Alg() }
func (s *EdDSASigner) KID() string { return s.kid }

// Sign issues a session token. The kid header selects the verification key
// from the key set.
func (s *EdDSASigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.priv)
}

func (s *EdDSASigner) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, "sig", s.Alg(), s.priv.Public().(ed25519.PublicKey))
}

// Validate reports whether the signer holds a usable key. /readyz calls it.
func (s *EdDSASigner) Validate() error {
	if len(s.priv) != ed25519.PrivateKeySize {
		return fmt.Errorf("jwtx: Ed25519 private key is %d bytes, want %d", len(s.priv), ed25519.PrivateKeySize)
	}
	return nil
}
