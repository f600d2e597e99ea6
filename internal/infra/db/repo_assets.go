package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catetrust/internal/domain"
)

type AssetRiskRepository struct {
	db *gorm.DB
}

func NewAssetRiskRepository(db *gorm.DB) *AssetRiskRepository {
	return &AssetRiskRepository{db: db}
}

// Upsert writes the full record; a later update replaces the previous
// provenance fields wholesale, never merges.
func (r *AssetRiskRepository) Upsert(ctx context.Context, rec domain.AssetRiskRecord) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := AssetRiskModel{
		AssetID:           rec.AssetID,
		RiskScore:         rec.RiskScore,
		IsBlocked:         rec.IsBlocked,
		ConfidenceRatio:   rec.ConfidenceRatio,
		PublisherCount:    rec.PublisherCount,
		DecisionDigest:    copyBytes(rec.DecisionDigest[:]),
		Signature:         copyBytes(rec.Signature[:]),
		SignerIdentity:    copyBytes(rec.SignerIdentity[:]),
		DecisionTimestamp: rec.DecisionTimestamp,
		LastUpdated:       rec.LastUpdated,
		CreatedAt:         time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "asset_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"risk_score", "is_blocked", "confidence_ratio", "publisher_count",
				"decision_digest", "signature", "signer_identity",
				"decision_timestamp", "last_updated",
			}),
		}).
		Create(&model).Error
}

func (r *AssetRiskRepository) GetByAssetID(ctx context.Context, assetID string) (*domain.AssetRiskRecord, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model AssetRiskModel
	err := r.db.WithContext(ctx).First(&model, "asset_id = ?", assetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec := domain.AssetRiskRecord{
		AssetID:           model.AssetID,
		RiskScore:         model.RiskScore,
		IsBlocked:         model.IsBlocked,
		ConfidenceRatio:   model.ConfidenceRatio,
		PublisherCount:    model.PublisherCount,
		DecisionTimestamp: model.DecisionTimestamp,
		LastUpdated:       model.LastUpdated,
	}
	copy(rec.DecisionDigest[:], model.DecisionDigest)
	copy(rec.Signature[:], model.Signature)
	copy(rec.SignerIdentity[:], model.SignerIdentity)
	return &rec, nil
}
