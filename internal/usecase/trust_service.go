package usecase

import (
	"context"
	"errors"
	"math"
	"time"

	"catetrust/internal/domain"
)

// TrustService owns the trust configuration lifecycle: one bootstrap, then
// authority-gated signer rotations.
type TrustService struct {
	Configs TrustConfigStore
	Ledger  ReplayLedger
	Audit   *AuditEmitter
	Clock   Clock
}

func NewTrustService(configs TrustConfigStore, ledger ReplayLedger, audit *AuditEmitter, clock Clock) *TrustService {
	return &TrustService{
		Configs: configs,
		Ledger:  ledger,
		Audit:   audit,
		Clock:   clock,
	}
}

// Bootstrap creates the trust configuration and an empty replay ledger.
// Fails once a configuration exists.
func (s *TrustService) Bootstrap(ctx context.Context, administrator, initialSigner domain.Identity) (domain.TrustConfig, error) {
	if _, err := s.Configs.Get(ctx); err == nil {
		return domain.TrustConfig{}, domain.ErrAlreadyInitialized
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.TrustConfig{}, err
	}

	now := s.now().UTC()
	cfg := domain.TrustConfig{
		Authority:     administrator,
		TrustedSigner: initialSigner,
		RotationNonce: 0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Configs.Create(ctx, cfg); err != nil {
		return domain.TrustConfig{}, err
	}
	if err := s.Ledger.Init(ctx); err != nil {
		return domain.TrustConfig{}, err
	}
	s.Audit.EmitBootstrapped(ctx, administrator, initialSigner)
	return cfg, nil
}

// RotateSigner replaces the trusted signer. Only the administrative
// authority may rotate; the nonce saturates instead of wrapping.
func (s *TrustService) RotateSigner(ctx context.Context, caller, newSigner domain.Identity) (domain.TrustConfig, error) {
	cfg, err := s.Configs.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TrustConfig{}, domain.ErrNotInitialized
		}
		return domain.TrustConfig{}, err
	}
	if caller != cfg.Authority {
		return domain.TrustConfig{}, domain.ErrUnauthorized
	}

	previous := cfg.TrustedSigner
	cfg.TrustedSigner = newSigner
	if cfg.RotationNonce < math.MaxUint64 {
		cfg.RotationNonce++
	}
	cfg.UpdatedAt = s.now().UTC()
	if err := s.Configs.Update(ctx, *cfg); err != nil {
		return domain.TrustConfig{}, err
	}
	s.Audit.EmitSignerRotated(ctx, caller, previous, newSigner, cfg.RotationNonce)
	return *cfg, nil
}

// Config returns the current trust configuration.
func (s *TrustService) Config(ctx context.Context) (*domain.TrustConfig, error) {
	cfg, err := s.Configs.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotInitialized
		}
		return nil, err
	}
	return cfg, nil
}

func (s *TrustService) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}
