package http

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"catetrust/internal/domain"
	"catetrust/internal/usecase"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type trustConfigResponse struct {
	Authority     string    `json:"authority"`
	TrustedSigner string    `json:"trusted_signer"`
	RotationNonce uint64    `json:"rotation_nonce"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type bootstrapRequest struct {
	Administrator string `json:"administrator" binding:"required"`
	InitialSigner string `json:"initial_signer" binding:"required"`
}

type rotateSignerRequest struct {
	Caller    string `json:"caller" binding:"required"`
	NewSigner string `json:"new_signer" binding:"required"`
}

type batchOperationDTO struct {
	FacilityID string `json:"facility_id"`
	Data       string `json:"data"`
}

type batchDTO struct {
	CurrentIndex int                 `json:"current_index"`
	Operations   []batchOperationDTO `json:"operations" binding:"required"`
}

type publishDecisionRequest struct {
	AssetID           string   `json:"asset_id" binding:"required"`
	RiskScore         uint8    `json:"risk_score"`
	IsBlocked         bool     `json:"is_blocked"`
	ConfidenceRatio   uint64   `json:"confidence_ratio"`
	PublisherCount    uint8    `json:"publisher_count"`
	DecisionTimestamp int64    `json:"decision_timestamp" binding:"required"`
	Digest            string   `json:"digest" binding:"required"`
	Signature         string   `json:"signature" binding:"required"`
	SignerIdentity    string   `json:"signer_identity" binding:"required"`
	Batch             batchDTO `json:"batch" binding:"required"`
}

type verifyDecisionRequest struct {
	Digest            string   `json:"digest" binding:"required"`
	Signature         string   `json:"signature" binding:"required"`
	SignerIdentity    string   `json:"signer_identity" binding:"required"`
	DecisionTimestamp int64    `json:"decision_timestamp" binding:"required"`
	Batch             batchDTO `json:"batch" binding:"required"`
}

type assetRiskResponse struct {
	AssetID           string `json:"asset_id"`
	RiskScore         uint8  `json:"risk_score"`
	IsBlocked         bool   `json:"is_blocked"`
	ConfidenceRatio   uint64 `json:"confidence_ratio"`
	PublisherCount    uint8  `json:"publisher_count"`
	DecisionDigest    string `json:"decision_digest"`
	Signature         string `json:"signature"`
	SignerIdentity    string `json:"signer_identity"`
	DecisionTimestamp int64  `json:"decision_timestamp"`
	LastUpdated       int64  `json:"last_updated"`
}

type verificationResponse struct {
	SignerTrusted      bool   `json:"signer_trusted"`
	ProvenanceVerified bool   `json:"provenance_verified"`
	Fresh              bool   `json:"fresh"`
	Digest             string `json:"digest"`
	SignerIdentity     string `json:"signer_identity"`
	CheckedAt          int64  `json:"checked_at"`
}

type auditEventResponse struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	AssetID   string         `json:"asset_id,omitempty"`
	ActorHash string         `json:"actor_hash,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Result    string         `json:"result"`
	ErrorCode string         `json:"error_code,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleBootstrap(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req bootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	admin, err := parseIdentity(req.Administrator)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", "administrator: "+err.Error())
		return
	}
	signer, err := parseIdentity(req.InitialSigner)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", "initial_signer: "+err.Error())
		return
	}
	cfg, err := s.trust.Bootstrap(c.Request.Context(), admin, signer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildTrustConfigResponse(cfg))
}

func (s *Server) handleRotateSigner(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	var req rotateSignerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	caller, err := parseIdentity(req.Caller)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", "caller: "+err.Error())
		return
	}
	signer, err := parseIdentity(req.NewSigner)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", "new_signer: "+err.Error())
		return
	}
	cfg, err := s.trust.RotateSigner(c.Request.Context(), caller, signer)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildTrustConfigResponse(cfg))
}

func (s *Server) handleGetTrustConfig(c *gin.Context) {
	cfg, err := s.trust.Config(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildTrustConfigResponse(*cfg))
}

func (s *Server) handlePublishDecision(c *gin.Context) {
	if !s.enforceRateLimit(c, "risk:publish") {
		return
	}
	var req publishDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	digest, err := parseDigest(req.Digest)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_DIGEST", err.Error())
		return
	}
	sig, err := parseSignature(req.Signature)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_SIGNATURE_ENCODING", err.Error())
		return
	}
	signer, err := parseIdentity(req.SignerIdentity)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", err.Error())
		return
	}
	batch, err := buildBatch(req.Batch)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_BATCH", err.Error())
		return
	}
	rec, err := s.publish.Execute(c.Request.Context(), usecase.PublishRequest{
		AssetID:           req.AssetID,
		RiskScore:         req.RiskScore,
		IsBlocked:         req.IsBlocked,
		ConfidenceRatio:   req.ConfidenceRatio,
		PublisherCount:    req.PublisherCount,
		DecisionTimestamp: req.DecisionTimestamp,
		Digest:            digest,
		Signature:         sig,
		SignerIdentity:    signer,
		Batch:             batch,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, buildAssetRiskResponse(rec))
}

func (s *Server) handleVerifyDecision(c *gin.Context) {
	if !s.enforceRateLimit(c, "risk:verify") {
		return
	}
	var req verifyDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	digest, err := parseDigest(req.Digest)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_DIGEST", err.Error())
		return
	}
	sig, err := parseSignature(req.Signature)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_SIGNATURE_ENCODING", err.Error())
		return
	}
	signer, err := parseIdentity(req.SignerIdentity)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_IDENTITY", err.Error())
		return
	}
	batch, err := buildBatch(req.Batch)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_BATCH", err.Error())
		return
	}
	outcome, err := s.verify.Execute(c.Request.Context(), usecase.VerifyRequest{
		Digest:            digest,
		Signature:         sig,
		SignerIdentity:    signer,
		DecisionTimestamp: req.DecisionTimestamp,
		Batch:             batch,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verificationResponse{
		SignerTrusted:      outcome.SignerTrusted,
		ProvenanceVerified: outcome.ProvenanceVerified,
		Fresh:              outcome.Fresh,
		Digest:             hex.EncodeToString(outcome.Digest[:]),
		SignerIdentity:     base64.StdEncoding.EncodeToString(outcome.SignerIdentity[:]),
		CheckedAt:          outcome.CheckedAt,
	})
}

func (s *Server) handleGetAssetRisk(c *gin.Context) {
	rec, err := s.query.Execute(c.Request.Context(), c.Param("asset_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, buildAssetRiskResponse(rec))
}

func (s *Server) handleListAuditEvents(c *gin.Context) {
	if !s.requireAdmin(c) {
		return
	}
	if s.auditRepo == nil {
		c.JSON(http.StatusOK, gin.H{"events": []auditEventResponse{}})
		return
	}
	events, err := s.auditRepo.ListRecent(c.Request.Context(), 100)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]auditEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, auditEventResponse{
			ID:        ev.ID,
			EventType: ev.EventType,
			AssetID:   ev.AssetID,
			ActorHash: ev.ActorHash,
			Payload:   ev.Payload,
			Result:    string(ev.Result),
			ErrorCode: ev.ErrorCode,
			CreatedAt: ev.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

func (s *Server) requireAdmin(c *gin.Context) bool {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "admin key required")
		return false
	}
	key := c.GetHeader("X-Admin-Key")
	if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.adminAPIKey)) != 1 {
		writeErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid admin key")
		return false
	}
	return true
}

func buildTrustConfigResponse(cfg domain.TrustConfig) trustConfigResponse {
	return trustConfigResponse{
		Authority:     base64.StdEncoding.EncodeToString(cfg.Authority[:]),
		TrustedSigner: base64.StdEncoding.EncodeToString(cfg.TrustedSigner[:]),
		RotationNonce: cfg.RotationNonce,
		CreatedAt:     cfg.CreatedAt,
		UpdatedAt:     cfg.UpdatedAt,
	}
}

func buildAssetRiskResponse(rec *domain.AssetRiskRecord) assetRiskResponse {
	if rec == nil {
		return assetRiskResponse{}
	}
	return assetRiskResponse{
		AssetID:           rec.AssetID,
		RiskScore:         rec.RiskScore,
		IsBlocked:         rec.IsBlocked,
		ConfidenceRatio:   rec.ConfidenceRatio,
		PublisherCount:    rec.PublisherCount,
		DecisionDigest:    hex.EncodeToString(rec.DecisionDigest[:]),
		Signature:         base64.StdEncoding.EncodeToString(rec.Signature[:]),
		SignerIdentity:    base64.StdEncoding.EncodeToString(rec.SignerIdentity[:]),
		DecisionTimestamp: rec.DecisionTimestamp,
		LastUpdated:       rec.LastUpdated,
	}
}

func buildBatch(dto batchDTO) (*domain.OperationBatch, error) {
	ops := make([]domain.RawOperation, 0, len(dto.Operations))
	for _, op := range dto.Operations {
		data, err := base64.StdEncoding.DecodeString(op.Data)
		if err != nil {
			return nil, errors.New("operation data is not valid base64")
		}
		ops = append(ops, domain.RawOperation{FacilityID: op.FacilityID, Data: data})
	}
	if dto.CurrentIndex < 0 || dto.CurrentIndex >= len(ops) {
		return nil, errors.New("current_index out of range")
	}
	return &domain.OperationBatch{Operations: ops, Index: dto.CurrentIndex}, nil
}

func parseIdentity(encoded string) (domain.Identity, error) {
	var id domain.Identity
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return id, errors.New("not valid base64")
	}
	if len(raw) != len(id) {
		return id, errors.New("identity must be 32 bytes")
	}
	copy(id[:], raw)
	return id, nil
}

func parseSignature(encoded string) (domain.DecisionSignature, error) {
	var sig domain.DecisionSignature
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return sig, errors.New("not valid base64")
	}
	if len(raw) != len(sig) {
		return sig, errors.New("signature must be 64 bytes")
	}
	copy(sig[:], raw)
	return sig, nil
}

func parseDigest(encoded string) (domain.Digest, error) {
	var digest domain.Digest
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		return digest, errors.New("not valid hex")
	}
	if len(raw) != len(digest) {
		return digest, errors.New("digest must be 32 bytes")
	}
	copy(digest[:], raw)
	return digest, nil
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAssetIDEmpty),
		errors.Is(err, domain.ErrAssetIDTooLong),
		errors.Is(err, domain.ErrInvalidRiskScore),
		errors.Is(err, domain.ErrInvalidConfidenceRatio),
		errors.Is(err, domain.ErrInvalidTimestamp),
		errors.Is(err, domain.ErrMissingVerificationStep),
		errors.Is(err, domain.ErrInvalidVerifierFacility),
		errors.Is(err, domain.ErrInvalidVerifierPayload),
		errors.Is(err, domain.ErrOffsetOverflow),
		errors.Is(err, domain.ErrOffsetOutOfBounds),
		errors.Is(err, domain.ErrInvalidMessageSize),
		errors.Is(err, domain.ErrSignatureVerificationFailed):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrPolicyDenied):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNotInitialized),
		errors.Is(err, domain.ErrAlreadyInitialized),
		errors.Is(err, domain.ErrInvalidSigner),
		errors.Is(err, domain.ErrDecisionAlreadyUsed):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrLedgerFull):
		status = http.StatusTooManyRequests
	}
	writeErrorCode(c, status, domain.ErrorCode(err), err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
