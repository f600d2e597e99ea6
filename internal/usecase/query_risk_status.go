package usecase

import (
	"context"

	"catetrust/internal/domain"
)

// QueryRiskStatus is the pure read path. The full record is returned,
// provenance fields included, so downstream consumers can audit the update
// independently.
type QueryRiskStatus struct {
	Registry RiskRegistry
}

func (q *QueryRiskStatus) Execute(ctx context.Context, assetID string) (*domain.AssetRiskRecord, error) {
	if len(assetID) == 0 {
		return nil, domain.ErrAssetIDEmpty
	}
	if len(assetID) > domain.MaxAssetIDLen {
		return nil, domain.ErrAssetIDTooLong
	}
	return q.Registry.GetByAssetID(ctx, assetID)
}
