package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"catetrust/internal/domain"
)

type AuditEventRepository struct {
	db *gorm.DB
}

func NewAuditEventRepository(db *gorm.DB) *AuditEventRepository {
	return &AuditEventRepository{db: db}
}

func (r *AuditEventRepository) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if r.db == nil {
		return domain.AuditEvent{}, errDBUnavailable
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return domain.AuditEvent{}, err
	}
	model := AuditEventModel{
		ID:        event.ID,
		EventType: event.EventType,
		AssetID:   event.AssetID,
		ActorHash: event.ActorHash,
		Payload:   payload,
		Result:    string(event.Result),
		ErrorCode: event.ErrorCode,
		CreatedAt: event.CreatedAt.Truncate(time.Microsecond),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.AuditEvent{}, err
	}
	return event, nil
}

func (r *AuditEventRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	if limit <= 0 {
		limit = 100
	}
	var models []AuditEventModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	events := make([]domain.AuditEvent, 0, len(models))
	for _, model := range models {
		event := domain.AuditEvent{
			ID:        model.ID,
			EventType: model.EventType,
			AssetID:   model.AssetID,
			ActorHash: model.ActorHash,
			Result:    domain.AuditResult(model.Result),
			ErrorCode: model.ErrorCode,
			CreatedAt: model.CreatedAt,
		}
		if len(model.Payload) > 0 {
			_ = json.Unmarshal(model.Payload, &event.Payload)
		}
		events = append(events, event)
	}
	return events, nil
}
