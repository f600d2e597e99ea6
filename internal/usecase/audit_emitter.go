package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"catetrust/internal/domain"
)

// AuditEmitter appends durable audit rows for trust-layer events. A nil
// emitter (or one without a repository) is a no-op, so callers never branch.
type AuditEmitter struct {
	Repo  AuditEventRepository
	Clock Clock
}

func NewAuditEmitter(repo AuditEventRepository, clock Clock) *AuditEmitter {
	return &AuditEmitter{Repo: repo, Clock: clock}
}

func (e *AuditEmitter) Emit(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if e == nil || e.Repo == nil {
		return domain.AuditEvent{}, errors.New("audit repository required")
	}
	if event.EventType == "" || event.Result == "" {
		return domain.AuditEvent{}, errors.New("audit event missing required fields")
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = e.now().UTC()
	} else {
		event.CreatedAt = event.CreatedAt.UTC()
	}
	return e.Repo.Append(ctx, event)
}

func (e *AuditEmitter) EmitBootstrapped(ctx context.Context, administrator, signer domain.Identity) {
	if e == nil || e.Repo == nil {
		return
	}
	_, _ = e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventBootstrapped,
		ActorHash: hashIdentity(administrator),
		Payload: map[string]any{
			"trusted_signer": identityHex(signer),
		},
		Result: domain.AuditResultSuccess,
	})
}

func (e *AuditEmitter) EmitSignerRotated(ctx context.Context, caller, previous, next domain.Identity, nonce uint64) {
	if e == nil || e.Repo == nil {
		return
	}
	_, _ = e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventSignerRotated,
		ActorHash: hashIdentity(caller),
		Payload: map[string]any{
			"previous_signer": identityHex(previous),
			"new_signer":      identityHex(next),
			"rotation_nonce":  nonce,
		},
		Result: domain.AuditResultSuccess,
	})
}

func (e *AuditEmitter) EmitDecisionPublished(ctx context.Context, assetID string, digest domain.Digest, signer domain.Identity) {
	if e == nil || e.Repo == nil {
		return
	}
	_, _ = e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventDecisionPublished,
		AssetID:   assetID,
		Payload: map[string]any{
			"decision_digest": hex.EncodeToString(digest[:]),
			"signer":          identityHex(signer),
		},
		Result: domain.AuditResultSuccess,
	})
}

func (e *AuditEmitter) EmitDecisionRejected(ctx context.Context, assetID string, digest domain.Digest, errorCode string) {
	if e == nil || e.Repo == nil {
		return
	}
	_, _ = e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventDecisionRejected,
		AssetID:   assetID,
		Payload: map[string]any{
			"decision_digest": hex.EncodeToString(digest[:]),
		},
		Result:    domain.AuditResultFailure,
		ErrorCode: errorCode,
	})
}

func (e *AuditEmitter) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func hashIdentity(id domain.Identity) string {
	sum := sha256.Sum256(id[:])
	return hex.EncodeToString(sum[:])
}
