package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catetrust/internal/domain"
)

// trustConfigRowID pins the singleton row.
const trustConfigRowID = 1

type TrustConfigRepository struct {
	db *gorm.DB
}

func NewTrustConfigRepository(db *gorm.DB) *TrustConfigRepository {
	return &TrustConfigRepository{db: db}
}

func (r *TrustConfigRepository) Get(ctx context.Context) (*domain.TrustConfig, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model TrustConfigModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", trustConfigRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cfg := domain.TrustConfig{
		RotationNonce: model.RotationNonce,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
	copy(cfg.Authority[:], model.Authority)
	copy(cfg.TrustedSigner[:], model.TrustedSigner)
	return &cfg, nil
}

func (r *TrustConfigRepository) Create(ctx context.Context, cfg domain.TrustConfig) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := TrustConfigModel{
		ID:            trustConfigRowID,
		Authority:     copyBytes(cfg.Authority[:]),
		TrustedSigner: copyBytes(cfg.TrustedSigner[:]),
		RotationNonce: cfg.RotationNonce,
		CreatedAt:     cfg.CreatedAt,
		UpdatedAt:     cfg.UpdatedAt,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAlreadyInitialized
	}
	return nil
}

func (r *TrustConfigRepository) Update(ctx context.Context, cfg domain.TrustConfig) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).
		Model(&TrustConfigModel{}).
		Where("id = ?", trustConfigRowID).
		Updates(map[string]any{
			"trusted_signer": copyBytes(cfg.TrustedSigner[:]),
			"rotation_nonce": cfg.RotationNonce,
			"updated_at":     cfg.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
