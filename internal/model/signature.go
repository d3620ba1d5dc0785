package model

import "time"

const (
	SignaturePending   = "pending"
	SignatureSent      = "sent"
	SignatureViewed    = "viewed"
	SignatureSigned    = "signed"
	SignatureCompleted = "completed"
	SignatureRejected  = "rejected"
	SignatureExpired   = "expired"
	SignatureUnknown   = "unknown"
)

// Signature is one signer's state on one e-signature document.
type Signature struct {
	ID                 string     `db:"id" json:"id"`
	ContractID         *string    `db:"contract_id" json:"contract_id,omitempty"`
	SignatureRequestID string     `db:"signature_request_id" json:"signature_request_id"`
	SignerEmail        string     `db:"signer_email" json:"signer_email"`
	SignerName         *string    `db:"signer_name" json:"signer_name,omitempty"`
	SignerPhone        *string    `db:"signer_phone" json:"signer_phone,omitempty"`
	Status             string     `db:"status" json:"status"`
	DocumentURL        *string    `db:"document_url" json:"document_url,omitempty"`
	DocumentName       *string    `db:"document_name" json:"document_name,omitempty"`
	CreatorEmail       *string    `db:"creator_email" json:"creator_email,omitempty"`
	SignaturePlatform  *string    `db:"signature_platform" json:"signature_platform,omitempty"`
	SignatureLocation  *string    `db:"signature_location" json:"signature_location,omitempty"`
	ReadingTime        *string    `db:"reading_time" json:"reading_time,omitempty"`
	Archived           bool       `db:"archived" json:"archived"`
	SignedAt           *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// SignatureStats counts non-deleted signatures by state.
type SignatureStats struct {
	Total     int `db:"total" json:"total"`
	Pending   int `db:"pending" json:"pending"`
	Completed int `db:"completed" json:"completed"`
}

// ContractStatusView is a contract with the signatures collected for it.
type ContractStatusView struct {
	ID         string      `json:"id"`
	Status     string      `json:"status"`
	SignedAt   *time.Time  `json:"signed_at,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Signatures []Signature `json:"signatures"`
}
