package domain

const (
	// MaxAssetIDLen bounds the fixed-width asset identifier.
	MaxAssetIDLen = 16
	// MaxRiskScore is the top of the 0-100 score range.
	MaxRiskScore = 100
	// MaxConfidenceRatio is 100% in basis points.
	MaxConfidenceRatio = 10000
)

// AssetRiskRecord is the durable per-asset verdict. DecisionDigest,
// Signature and SignerIdentity together are the provenance proof for the
// last accepted update; a new update replaces them wholesale.
type AssetRiskRecord struct {
	AssetID           string
	RiskScore         uint8
	IsBlocked         bool
	ConfidenceRatio   uint64
	PublisherCount    uint8
	DecisionDigest    Digest
	Signature         DecisionSignature
	SignerIdentity    Identity
	DecisionTimestamp int64
	LastUpdated       int64
}

// DecisionRecord is one consumed decision digest in the replay ledger.
type DecisionRecord struct {
	Digest     Digest
	ProducedAt int64
}

// VerificationOutcome reports a side-effect-free provenance check.
type VerificationOutcome struct {
	SignerTrusted      bool     `json:"signer_trusted"`
	ProvenanceVerified bool     `json:"provenance_verified"`
	Fresh              bool     `json:"fresh"`
	Digest             Digest   `json:"-"`
	SignerIdentity     Identity `json:"-"`
	CheckedAt          int64    `json:"checked_at"`
}
