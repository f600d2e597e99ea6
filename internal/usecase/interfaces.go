package usecase

import (
	"context"
	"time"

	"catetrust/internal/domain"
)

type Clock func() time.Time

// TrustConfigStore holds the singleton trust configuration.
type TrustConfigStore interface {
	Get(ctx context.Context) (*domain.TrustConfig, error)
	Create(ctx context.Context, cfg domain.TrustConfig) error
	Update(ctx context.Context, cfg domain.TrustConfig) error
}

// RiskRegistry holds one durable record per asset.
type RiskRegistry interface {
	Upsert(ctx context.Context, rec domain.AssetRiskRecord) error
	GetByAssetID(ctx context.Context, assetID string) (*domain.AssetRiskRecord, error)
}

// ReplayLedger is the bounded, time-windowed set of consumed decision
// digests. CheckFresh and Consume are two halves of one check-then-act;
// the publish service serializes them behind its own lock.
type ReplayLedger interface {
	Init(ctx context.Context) error
	CheckFresh(ctx context.Context, digest domain.Digest, asOf int64) (bool, error)
	Consume(ctx context.Context, digest domain.Digest, producedAt int64) error
	Release(ctx context.Context, digest domain.Digest) error
}

type AuditEventRepository interface {
	Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error)
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error)
}

type PolicyEngine interface {
	Evaluate(ctx context.Context, input domain.PolicyInput) (domain.PolicyEvaluation, error)
}

type VerificationCache interface {
	Get(ctx context.Context, key string) (*domain.VerificationOutcome, bool, error)
	Put(ctx context.Context, key string, value domain.VerificationOutcome, ttl time.Duration) error
}
