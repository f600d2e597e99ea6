// Package memstore provides in-memory implementations of the trust and
// risk stores for no-db mode and tests.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"catetrust/internal/domain"
)

type TrustConfigStore struct {
	mu  sync.RWMutex
	cfg *domain.TrustConfig
}

func NewTrustConfigStore() *TrustConfigStore {
	return &TrustConfigStore{}
}

func (s *TrustConfigStore) Get(ctx context.Context) (*domain.TrustConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return nil, domain.ErrNotFound
	}
	cfg := *s.cfg
	return &cfg, nil
}

func (s *TrustConfigStore) Create(ctx context.Context, cfg domain.TrustConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg != nil {
		return domain.ErrAlreadyInitialized
	}
	s.cfg = &cfg
	return nil
}

func (s *TrustConfigStore) Update(ctx context.Context, cfg domain.TrustConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return domain.ErrNotFound
	}
	s.cfg = &cfg
	return nil
}

type RiskRegistry struct {
	mu      sync.RWMutex
	records map[string]domain.AssetRiskRecord
}

func NewRiskRegistry() *RiskRegistry {
	return &RiskRegistry{records: make(map[string]domain.AssetRiskRecord)}
}

func (r *RiskRegistry) Upsert(ctx context.Context, rec domain.AssetRiskRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.AssetID] = rec
	return nil
}

func (r *RiskRegistry) GetByAssetID(ctx context.Context, assetID string) (*domain.AssetRiskRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[assetID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

type AuditEventRepository struct {
	mu     sync.RWMutex
	events []domain.AuditEvent
}

func NewAuditEventRepository() *AuditEventRepository {
	return &AuditEventRepository{}
}

func (r *AuditEventRepository) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	r.events = append(r.events, event)
	return event, nil
}

func (r *AuditEventRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]domain.AuditEvent, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.events[i])
	}
	return out, nil
}
