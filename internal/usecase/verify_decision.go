package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"catetrust/internal/domain"
	"catetrust/internal/infra/edverify"
)

type VerifyRequest struct {
	Digest            domain.Digest
	Signature         domain.DecisionSignature
	SignerIdentity    domain.Identity
	DecisionTimestamp int64
	Batch             domain.BatchContext
}

// VerifyDecision is the side-effect-free provenance check: timestamp window,
// trusted-signer check, replay-freshness read and verification cross-check,
// without consuming the digest or touching the registry. Third parties use it
// to audit a decision before or without publishing.
type VerifyDecision struct {
	Configs    TrustConfigStore
	Ledger     ReplayLedger
	Cache      VerificationCache
	Clock      Clock
	CacheTTL   time.Duration
	FacilityID string
}

func (v *VerifyDecision) Execute(ctx context.Context, req VerifyRequest) (*domain.VerificationOutcome, error) {
	now := v.now().Unix()

	if req.DecisionTimestamp < now-publishStaleSeconds || req.DecisionTimestamp > now+publishFutureSkewSeconds {
		return nil, domain.ErrInvalidTimestamp
	}

	cfg, err := v.Configs.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotInitialized
		}
		return nil, err
	}
	if req.SignerIdentity != cfg.TrustedSigner {
		return nil, domain.ErrInvalidSigner
	}

	fresh := true
	if v.Ledger != nil {
		fresh, err = v.Ledger.CheckFresh(ctx, req.Digest, req.DecisionTimestamp)
		if err != nil {
			return nil, err
		}
		if !fresh {
			return nil, domain.ErrDecisionAlreadyUsed
		}
	}

	if err := v.crossCheck(ctx, req); err != nil {
		return nil, err
	}

	return &domain.VerificationOutcome{
		SignerTrusted:      true,
		ProvenanceVerified: true,
		Fresh:              fresh,
		Digest:             req.Digest,
		SignerIdentity:     req.SignerIdentity,
		CheckedAt:          now,
	}, nil
}

// crossCheck locates the verifier operation and runs the byte-level
// cross-check, memoizing successful results by the exact payload and claimed
// triple. Only this pure step goes through the cache; the timestamp window,
// trusted-signer and freshness checks above run on every call, so a rotation
// or a consumed digest is never masked by a prior cached verify.
func (v *VerifyDecision) crossCheck(ctx context.Context, req VerifyRequest) error {
	op, err := edverify.Locate(req.Batch, v.facilityID())
	if err != nil {
		return err
	}
	if v.Cache == nil || v.CacheTTL <= 0 {
		return edverify.CrossCheckOperation(op, req.SignerIdentity, req.Digest, req.Signature)
	}

	key := crossCheckCacheKey(op.Data, req)
	if _, ok, err := v.Cache.Get(ctx, key); err == nil && ok {
		return nil
	}
	if err := edverify.CrossCheckOperation(op, req.SignerIdentity, req.Digest, req.Signature); err != nil {
		return err
	}
	_ = v.Cache.Put(ctx, key, domain.VerificationOutcome{
		ProvenanceVerified: true,
		Digest:             req.Digest,
		SignerIdentity:     req.SignerIdentity,
	}, v.CacheTTL)
	return nil
}

func (v *VerifyDecision) facilityID() string {
	if v.FacilityID != "" {
		return v.FacilityID
	}
	return domain.Ed25519VerifierFacility
}

func (v *VerifyDecision) now() time.Time {
	if v.Clock != nil {
		return v.Clock()
	}
	return time.Now()
}

// crossCheckCacheKey fingerprints everything the cross-check reads: the
// located verifier payload and the full claimed triple. Any byte that could
// change the result changes the key.
func crossCheckCacheKey(payload []byte, req VerifyRequest) string {
	h := sha256.New()
	h.Write(payload)
	h.Write(req.SignerIdentity[:])
	h.Write(req.Digest[:])
	h.Write(req.Signature[:])
	return "crosscheck:" + hex.EncodeToString(h.Sum(nil))
}

func identityHex(id domain.Identity) string {
	return hex.EncodeToString(id[:])
}
