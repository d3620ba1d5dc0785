package model

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

const (
	ParticipantArtista    = "ARTISTA"
	ParticipantProductor  = "PRODUCTOR"
	ParticipantCompositor = "COMPOSITOR"
	ParticipantManager    = "MANAGER"
	ParticipantLawyer     = "LAWYER"
)

// Participant is a person or entity that can be party to contracts.
type Participant struct {
	ID               string          `db:"id" json:"id"`
	Name             string          `db:"name" json:"name"`
	Email            *string         `db:"email" json:"email,omitempty"`
	Type             string          `db:"type" json:"type"`
	IDNumber         *string         `db:"id_number" json:"id_number,omitempty"`
	Address          *string         `db:"address" json:"address,omitempty"`
	Country          *string         `db:"country" json:"country,omitempty"`
	Phone            *string         `db:"phone" json:"phone,omitempty"`
	BankInfo         *types.JSONText `db:"bank_info" json:"bank_info,omitempty"`
	ArtisticName     *string         `db:"artistic_name" json:"artistic_name,omitempty"`
	ManagementEntity *string         `db:"management_entity" json:"management_entity,omitempty"`
	IPI              *string         `db:"ipi" json:"ipi,omitempty"`

	AucoVerificationID *string `db:"auco_verification_id" json:"auco_verification_id,omitempty"`
	VerificationStatus *string `db:"verification_status" json:"verification_status,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Work is a musical project (single, album, ...) that contracts refer to.
type Work struct {
	ID               string     `db:"id" json:"id"`
	ArtistID         string     `db:"artist_id" json:"artist_id"`
	Name             string     `db:"name" json:"name"`
	AlternativeTitle *string    `db:"alternative_title" json:"alternative_title,omitempty"`
	ISWC             *string    `db:"iswc" json:"iswc,omitempty"`
	ISRC             *string    `db:"isrc" json:"isrc,omitempty"`
	UPC              *string    `db:"upc" json:"upc,omitempty"`
	Type             string     `db:"type" json:"type"`
	Status           string     `db:"status" json:"status"`
	ReleaseDate      *time.Time `db:"release_date" json:"release_date,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// Template is the HTML body a contract is rendered from.
type Template struct {
	ID           string    `db:"id" json:"id" yaml:"-"`
	Name         string    `db:"name" json:"name" yaml:"name"`
	Language     *string   `db:"language" json:"language,omitempty" yaml:"language"`
	Type         *string   `db:"type" json:"type,omitempty" yaml:"type"`
	Version      *string   `db:"version" json:"version,omitempty" yaml:"version"`
	Jurisdiction *string   `db:"jurisdiction" json:"jurisdiction,omitempty" yaml:"jurisdiction"`
	TemplateHTML string    `db:"template_html" json:"template_html" yaml:"template_html"`
	CreatedAt    time.Time `db:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at" yaml:"-"`
}

const (
	ContractDraft    = "draft"
	ContractSent     = "sent"
	ContractSigned   = "signed"
	ContractExpired  = "expired"
	ContractArchived = "archived"
)

type Contract struct {
	ID                  string                `db:"id" json:"id"`
	WorkID              string                `db:"work_id" json:"work_id"`
	TemplateID          string                `db:"template_id" json:"template_id"`
	Status              string                `db:"status" json:"status"`
	InternalReference   *string               `db:"internal_reference" json:"internal_reference,omitempty"`
	SigningLocation     *string               `db:"signing_location" json:"signing_location,omitempty"`
	AdditionalNotes     *string               `db:"additional_notes" json:"additional_notes,omitempty"`
	Publisher           *string               `db:"publisher" json:"publisher,omitempty"`
	PublisherPercentage *float64              `db:"publisher_percentage" json:"publisher_percentage,omitempty"`
	CoPublishers        *string               `db:"co_publishers" json:"co_publishers,omitempty"`
	PublisherAdmin      *string               `db:"publisher_admin" json:"publisher_admin,omitempty"`
	AucoDocumentID      *string               `db:"auco_document_id" json:"auco_document_id,omitempty"`
	FinalContractPDFKey *string               `db:"final_contract_pdf_key" json:"final_contract_pdf_key,omitempty"`
	SignedAt            *time.Time            `db:"signed_at" json:"signed_at,omitempty"`
	CreatedAt           time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time             `db:"updated_at" json:"updated_at"`
	Participants        []ContractParticipant `db:"-" json:"participants"`
}

// ContractParticipant links a participant to a contract with a role and an
// optional ownership share. Name, Email, ArtisticName and Phone are joined
// from participants on read.
type ContractParticipant struct {
	ContractID    string   `db:"contract_id" json:"contract_id"`
	ParticipantID string   `db:"participant_id" json:"participant_id"`
	Role          string   `db:"role" json:"role"`
	Percentage    *float64 `db:"percentage" json:"percentage,omitempty"`
	Name          string   `db:"name" json:"name,omitempty"`
	Email         *string  `db:"email" json:"email,omitempty"`
	ArtisticName  *string  `db:"artistic_name" json:"artistic_name,omitempty"`
	Phone         *string  `db:"phone" json:"phone,omitempty"`
}

// ContractBundle is everything needed to render and send a contract.
type ContractBundle struct {
	Contract Contract
	Work     Work
	Template Template
}
