package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"backoffice/internal/logger"
	"backoffice/internal/repository"
)

var (
	ErrVerificationSecret    = &DetailError{Kind: ErrConfig, Code: "WEBHOOK_SECRET_MISSING", Message: "AUCO_WEBHOOK_SECRET is not configured"}
	ErrVerificationSignature = &DetailError{Kind: ErrUnauthorized, Code: "INVALID_SIGNATURE", Message: "invalid webhook signature"}
)

// VerificationResult acknowledges an identity verification callback.
type VerificationResult struct {
	Received       bool   `json:"received"`
	VerificationID string `json:"verification_id"`
	Status         string `json:"status"`
	Updated        int64  `json:"updated"`
}

// VerificationService applies Auco identity verification (veriface)
// callbacks to participants.
type VerificationService interface {
	HandleWebhook(ctx context.Context, signature string, body []byte) (*VerificationResult, error)
}

type verificationService struct {
	participants repository.ParticipantRepository
	secret       string
	log          *logger.Logger
}

func NewVerificationService(participants repository.ParticipantRepository, secret string, log *logger.Logger) VerificationService {
	if log == nil {
		log = logger.Nop()
	}
	return &verificationService{participants: participants, secret: secret, log: log}
}

type verificationPayload struct {
	Event string `json:"event"`
	Data  struct {
		VerificationID string `json:"verification_id"`
		Status         string `json:"status"`
	} `json:"data"`
}

// SignVerificationBody returns the hex HMAC-SHA256 of body, the value Auco
// sends in X-Auco-Signature.
func SignVerificationBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *verificationService) validSignature(signature string, body []byte) bool {
	signature = strings.ToLower(strings.TrimSpace(signature))
	signature = strings.TrimPrefix(signature, "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) != sha256.Size {
		return false
	}
	want, _ := hex.DecodeString(SignVerificationBody(s.secret, body))
	return hmac.Equal(got, want)
}

func (s *verificationService) HandleWebhook(ctx context.Context, signature string, body []byte) (*VerificationResult, error) {
	if s.secret == "" {
		s.log.Error("verification webhook secret not configured")
		return nil, ErrVerificationSecret
	}
	if !s.validSignature(signature, body) {
		s.log.Warn("verification webhook signature mismatch", "signature", logger.MaskKey(signature))
		return nil, ErrVerificationSignature
	}

	var p verificationPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, invalid("payload is not valid JSON")
	}
	id := strings.TrimSpace(p.Data.VerificationID)
	status := strings.ToLower(strings.TrimSpace(p.Data.Status))
	if id == "" || status == "" {
		return nil, invalid("data.verification_id and data.status are required")
	}

	n, err := s.participants.SetVerificationStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("update verification status: %w", err)
	}
	if n == 0 {
		s.log.Warn("verification for unknown participant", "verification_id", id, "status", status)
	} else {
		s.log.Info("participant verification updated", "verification_id", id, "status", status, "event", p.Event)
	}
	return &VerificationResult{Received: true, VerificationID: id, Status: status, Updated: n}, nil
}
