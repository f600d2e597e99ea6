package domain

import "time"

type AuditResult string

const (
	AuditResultSuccess AuditResult = "success"
	AuditResultFailure AuditResult = "failure"
)

const (
	AuditEventBootstrapped      = "trust.bootstrapped"
	AuditEventSignerRotated     = "trust.signer_rotated"
	AuditEventDecisionPublished = "risk.decision_published"
	AuditEventDecisionRejected  = "risk.decision_rejected"
)

type AuditEvent struct {
	ID        string
	EventType string
	AssetID   string
	ActorHash string
	Payload   map[string]any
	Result    AuditResult
	ErrorCode string
	CreatedAt time.Time
}
