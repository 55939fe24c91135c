package jwtx

import (
	"fmt"

	"github.com/aussiebroadwan/eventpass/pkg/cryptox"
)

// KeyManager bundles the signer, verifier and published KeySet for one
// instance.
type KeyManager struct {
	Signer   Signer
	Verifier Verifier
	KeySet   *KeySet

	algorithm string
}

// KeyManagerOptions configures the KeyManager.
type KeyManagerOptions struct {
	// Algorithm is "HS256" (default) or "EdDSA".
	Algorithm string

	// Issuer is the iss claim stamped on and required of every token.
	Issuer string

	// Secret is the HS256 shared secret. Ignored for EdDSA.
	Secret []byte
}

// NewKeyManager wires a signer and matching verifier for opts.Algorithm.
//
// HS256 uses the supplied secret and publishes nothing. EdDSA generates an
// ephemeral Ed25519 key that only exists in memory, so its tokens become
// invalid when the process restarts; the public half is served as a JWKS.
func NewKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	keyset := NewKeySet()

	switch opts.Algorithm {
	case "", AlgorithmHS256:
		signer, err := NewSignerHS256("", opts.Secret)
		if err != nil {
			return nil, err
		}
		return &KeyManager{
			Signer:    signer,
			Verifier:  NewVerifierHS256(opts.Secret, opts.Issuer),
			KeySet:    keyset,
			algorithm: AlgorithmHS256,
		}, nil

	case AlgorithmEdDSA:
		kid, err := generateRandomKeyID()
		if err != nil {
			return nil, err
		}
		pemBytes, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate EdDSA key: %w", err)
		}
		signer, err := NewSignerEdDSA(kid, pemBytes)
		if err != nil {
			return nil, err
		}
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer to keyset: %w", err)
		}
		return &KeyManager{
			Signer:    signer,
			Verifier:  NewVerifierEdDSA(keyset, opts.Issuer),
			KeySet:    keyset,
			algorithm: AlgorithmEdDSA,
		}, nil

	default:
		return nil, fmt.Errorf("jwtx: unsupported algorithm %q (supported: HS256, EdDSA)", opts.Algorithm)
	}
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return km.algorithm
}

// generateRandomKeyID creates a random key identifier using cryptographic entropy.
// Format: "eventpass-{random-token}" where random-token is a 128-bit secure token.
func generateRandomKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate random key ID: %w", err)
	}
	return fmt.Sprintf("eventpass-%s", token), nil
}
