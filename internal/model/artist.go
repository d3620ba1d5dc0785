package model

import "time"

// Artist is a roster entry managed by the label.
type Artist struct {
	ID              string    `db:"id" json:"id"`
	UserID          *string   `db:"user_id" json:"user_id,omitempty"`
	Name            string    `db:"name" json:"name"`
	LegalName       *string   `db:"legal_name" json:"legal_name,omitempty"`
	Genre           string    `db:"genre" json:"genre"`
	Country         string    `db:"country" json:"country"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	Email           *string   `db:"email" json:"email,omitempty"`
	Phone           *string   `db:"phone" json:"phone,omitempty"`
	SpotifyArtistID *string   `db:"spotify_artist_id" json:"spotify_artist_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
