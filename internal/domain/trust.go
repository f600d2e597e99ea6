package domain

import "time"

// Identity is an ed25519 public key identifying a signer or an authority.
type Identity [32]byte

// Digest is the 32-byte hash uniquely identifying one published risk verdict.
type Digest [32]byte

// DecisionSignature is an ed25519 signature over a decision digest.
type DecisionSignature [64]byte

// TrustConfig is the process-wide trust root: exactly one exists per
// deployment. TrustedSigner is mutable only by Authority; RotationNonce
// counts rotations and saturates instead of wrapping.
type TrustConfig struct {
	Authority     Identity
	TrustedSigner Identity
	RotationNonce uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
