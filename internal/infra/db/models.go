package db

import "time"

// TrustConfigModel is the singleton trust root; exactly one row, ID fixed.
type TrustConfigModel struct {
	ID            uint8     `gorm:"primaryKey"`
	Authority     []byte    `gorm:"type:bytea;not null"`
	TrustedSigner []byte    `gorm:"type:bytea;not null"`
	RotationNonce uint64    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (TrustConfigModel) TableName() string { return "trust_configs" }

type AssetRiskModel struct {
	AssetID           string    `gorm:"primaryKey;size:16"`
	RiskScore         uint8     `gorm:"not null"`
	IsBlocked         bool      `gorm:"not null"`
	ConfidenceRatio   uint64    `gorm:"not null"`
	PublisherCount    uint8     `gorm:"not null"`
	DecisionDigest    []byte    `gorm:"type:bytea;not null"`
	Signature         []byte    `gorm:"type:bytea;not null"`
	SignerIdentity    []byte    `gorm:"type:bytea;not null"`
	DecisionTimestamp int64     `gorm:"not null"`
	LastUpdated       int64     `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
}

func (AssetRiskModel) TableName() string { return "asset_risk_records" }

type AuditEventModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	EventType string    `gorm:"index;not null"`
	AssetID   string    `gorm:"index"`
	ActorHash string    ``
	Payload   []byte    `gorm:"type:jsonb;not null"`
	Result    string    `gorm:"not null"`
	ErrorCode string    ``
	CreatedAt time.Time `gorm:"index;not null"`
}

func (AuditEventModel) TableName() string { return "audit_events" }
