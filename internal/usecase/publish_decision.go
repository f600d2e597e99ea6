package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"catetrust/internal/domain"
	"catetrust/internal/infra/edverify"
)

const (
	// publishStaleSeconds rejects decisions older than five minutes.
	publishStaleSeconds = 300
	// publishFutureSkewSeconds tolerates one minute of clock skew.
	publishFutureSkewSeconds = 60
)

type PublishRequest struct {
	AssetID           string
	RiskScore         uint8
	IsBlocked         bool
	ConfidenceRatio   uint64
	PublisherCount    uint8
	DecisionTimestamp int64
	Digest            domain.Digest
	Signature         domain.DecisionSignature
	SignerIdentity    domain.Identity
	Batch             domain.BatchContext
}

// PublishDecision runs the full publish protocol: input validation, policy
// gate, timestamp window, trusted-signer check, replay freshness, co-located
// verification cross-check, ledger consumption, registry write: strictly in
// that order, all-or-nothing. The internal mutex makes the ledger's
// check-then-act atomic, so publishes serialize even across unrelated assets.
type PublishDecision struct {
	mu sync.Mutex

	Configs    TrustConfigStore
	Registry   RiskRegistry
	Ledger     ReplayLedger
	Policy     PolicyEngine
	Audit      *AuditEmitter
	Clock      Clock
	FacilityID string
}

func (p *PublishDecision) Execute(ctx context.Context, req PublishRequest) (rec *domain.AssetRiskRecord, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() { p.auditOutcome(ctx, req, err) }()

	if err = validatePublishInput(req); err != nil {
		return nil, err
	}
	if err = p.evaluatePolicy(ctx, req); err != nil {
		return nil, err
	}

	now := p.now().Unix()
	if req.DecisionTimestamp < now-publishStaleSeconds || req.DecisionTimestamp > now+publishFutureSkewSeconds {
		return nil, domain.ErrInvalidTimestamp
	}

	cfg, err := p.Configs.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotInitialized
		}
		return nil, err
	}
	if req.SignerIdentity != cfg.TrustedSigner {
		return nil, domain.ErrInvalidSigner
	}

	fresh, err := p.Ledger.CheckFresh(ctx, req.Digest, req.DecisionTimestamp)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, domain.ErrDecisionAlreadyUsed
	}

	if err = edverify.CrossCheck(req.Batch, p.facilityID(), req.SignerIdentity, req.Digest, req.Signature); err != nil {
		return nil, err
	}

	if err = p.Ledger.Consume(ctx, req.Digest, req.DecisionTimestamp); err != nil {
		return nil, err
	}

	record := domain.AssetRiskRecord{
		AssetID:           req.AssetID,
		RiskScore:         req.RiskScore,
		IsBlocked:         req.IsBlocked,
		ConfidenceRatio:   req.ConfidenceRatio,
		PublisherCount:    req.PublisherCount,
		DecisionDigest:    req.Digest,
		Signature:         req.Signature,
		SignerIdentity:    req.SignerIdentity,
		DecisionTimestamp: req.DecisionTimestamp,
		LastUpdated:       now,
	}
	if err = p.Registry.Upsert(ctx, record); err != nil {
		// The digest was consumed this attempt; release it so the failed
		// publish leaves no state behind.
		_ = p.Ledger.Release(ctx, req.Digest)
		return nil, err
	}
	return &record, nil
}

func validatePublishInput(req PublishRequest) error {
	if len(req.AssetID) == 0 {
		return domain.ErrAssetIDEmpty
	}
	if len(req.AssetID) > domain.MaxAssetIDLen {
		return domain.ErrAssetIDTooLong
	}
	if req.RiskScore > domain.MaxRiskScore {
		return domain.ErrInvalidRiskScore
	}
	if req.ConfidenceRatio > domain.MaxConfidenceRatio {
		return domain.ErrInvalidConfidenceRatio
	}
	return nil
}

func (p *PublishDecision) evaluatePolicy(ctx context.Context, req PublishRequest) error {
	if p.Policy == nil {
		return nil
	}
	eval, err := p.Policy.Evaluate(ctx, domain.PolicyInput{
		AssetID:         req.AssetID,
		RiskScore:       req.RiskScore,
		IsBlocked:       req.IsBlocked,
		ConfidenceRatio: req.ConfidenceRatio,
		PublisherCount:  req.PublisherCount,
		SignerIdentity:  identityHex(req.SignerIdentity),
	})
	if err != nil {
		return err
	}
	if !eval.Result.Allow {
		return domain.ErrPolicyDenied
	}
	return nil
}

func (p *PublishDecision) auditOutcome(ctx context.Context, req PublishRequest, err error) {
	if err == nil {
		p.Audit.EmitDecisionPublished(ctx, req.AssetID, req.Digest, req.SignerIdentity)
		return
	}
	p.Audit.EmitDecisionRejected(ctx, req.AssetID, req.Digest, domain.ErrorCode(err))
}

func (p *PublishDecision) facilityID() string {
	if p.FacilityID != "" {
		return p.FacilityID
	}
	return domain.Ed25519VerifierFacility
}

func (p *PublishDecision) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}
