package domain

type PolicyInput struct {
	AssetID         string `json:"asset_id"`
	RiskScore       uint8  `json:"risk_score"`
	IsBlocked       bool   `json:"is_blocked"`
	ConfidenceRatio uint64 `json:"confidence_ratio"`
	PublisherCount  uint8  `json:"publisher_count"`
	SignerIdentity  string `json:"signer_identity"`
}

type PolicyDeny struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PolicyResult struct {
	Allow bool         `json:"allow"`
	Deny  []PolicyDeny `json:"deny,omitempty"`
}

type PolicyEvaluation struct {
	BundleID   string       `json:"bundle_id,omitempty"`
	BundleHash string       `json:"bundle_hash"`
	Result     PolicyResult `json:"result"`
}
