package domain

import "errors"

var (
	ErrAssetIDEmpty           = errors.New("asset id is empty")
	ErrAssetIDTooLong         = errors.New("asset id exceeds 16 characters")
	ErrInvalidRiskScore       = errors.New("risk score must be 0-100")
	ErrInvalidConfidenceRatio = errors.New("confidence ratio must be 0-10000 basis points")
	ErrInvalidTimestamp       = errors.New("decision timestamp outside accepted window")

	ErrNotInitialized     = errors.New("trust config not initialized")
	ErrAlreadyInitialized = errors.New("trust config already initialized")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidSigner      = errors.New("signer is not the trusted signer")

	ErrMissingVerificationStep     = errors.New("missing verification step")
	ErrInvalidVerifierFacility     = errors.New("preceding operation is not the verifier facility")
	ErrInvalidVerifierPayload      = errors.New("invalid verifier payload")
	ErrOffsetOverflow              = errors.New("verifier offset overflow")
	ErrOffsetOutOfBounds           = errors.New("verifier offset out of bounds")
	ErrInvalidMessageSize          = errors.New("verifier message size must be 32 bytes")
	ErrSignatureVerificationFailed = errors.New("signature verification failed")

	ErrDecisionAlreadyUsed = errors.New("decision already used")
	ErrLedgerFull          = errors.New("replay ledger full")

	ErrNotFound     = errors.New("not found")
	ErrPolicyDenied = errors.New("publish denied by policy")
)

// ErrorCode maps a domain error to its stable code. Auditors rely on these
// codes to tell bad input from forged provenance from replay; keep them stable.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAssetIDEmpty):
		return "ASSET_ID_EMPTY"
	case errors.Is(err, ErrAssetIDTooLong):
		return "ASSET_ID_TOO_LONG"
	case errors.Is(err, ErrInvalidRiskScore):
		return "INVALID_RISK_SCORE"
	case errors.Is(err, ErrInvalidConfidenceRatio):
		return "INVALID_CONFIDENCE_RATIO"
	case errors.Is(err, ErrInvalidTimestamp):
		return "INVALID_TIMESTAMP"
	case errors.Is(err, ErrNotInitialized):
		return "NOT_INITIALIZED"
	case errors.Is(err, ErrAlreadyInitialized):
		return "ALREADY_INITIALIZED"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrInvalidSigner):
		return "INVALID_SIGNER"
	case errors.Is(err, ErrMissingVerificationStep):
		return "MISSING_VERIFICATION_STEP"
	case errors.Is(err, ErrInvalidVerifierFacility):
		return "INVALID_VERIFIER_FACILITY"
	case errors.Is(err, ErrInvalidVerifierPayload):
		return "INVALID_VERIFIER_PAYLOAD"
	case errors.Is(err, ErrOffsetOverflow):
		return "OFFSET_OVERFLOW"
	case errors.Is(err, ErrOffsetOutOfBounds):
		return "OFFSET_OUT_OF_BOUNDS"
	case errors.Is(err, ErrInvalidMessageSize):
		return "INVALID_MESSAGE_SIZE"
	case errors.Is(err, ErrSignatureVerificationFailed):
		return "SIGNATURE_VERIFICATION_FAILED"
	case errors.Is(err, ErrDecisionAlreadyUsed):
		return "DECISION_ALREADY_USED"
	case errors.Is(err, ErrLedgerFull):
		return "LEDGER_FULL"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrPolicyDenied):
		return "POLICY_DENIED"
	default:
		return "INTERNAL"
	}
}
