package model

import "time"

// ShareableTrack is an uploaded audio file exposed through a public share code.
type ShareableTrack struct {
	ID              string     `db:"id" json:"id"`
	UserID          string     `db:"user_id" json:"user_id"`
	ArtistID        *string    `db:"artist_id" json:"artist_id,omitempty"`
	TrackName       string     `db:"track_name" json:"track_name"`
	ArtistName      string     `db:"artist_name" json:"artist_name"`
	AlbumName       *string    `db:"album_name" json:"album_name,omitempty"`
	CoverImageURL   *string    `db:"cover_image_url" json:"cover_image_url,omitempty"`
	AudioStorageKey string     `db:"audio_storage_key" json:"-"`
	DurationMs      *int       `db:"duration_ms" json:"duration_ms,omitempty"`
	ShareCode       string     `db:"share_code" json:"share_code"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	IsPublic        bool       `db:"is_public" json:"is_public"`
	PasswordHash    *string    `db:"password_hash" json:"-"`
	MaxPlays        *int       `db:"max_plays" json:"max_plays,omitempty"`
	ExpiresAt       *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	Description     *string    `db:"description" json:"description,omitempty"`
	Genre           *string    `db:"genre" json:"genre,omitempty"`
	ReleaseDate     *time.Time `db:"release_date" json:"release_date,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	ShareURL        string `db:"-" json:"share_url"`
	HasPassword     bool   `db:"-" json:"has_password"`
	TotalPlays      int    `db:"total_plays" json:"total_plays"`
	UniqueListeners int    `db:"unique_listeners" json:"unique_listeners"`
}

// TrackPlay aggregates one listening session on a shared track.
type TrackPlay struct {
	ID                   string     `db:"id" json:"id"`
	ShareableTrackID     string     `db:"shareable_track_id" json:"shareable_track_id"`
	SessionID            string     `db:"session_id" json:"session_id"`
	ListenerCountry      *string    `db:"listener_country" json:"listener_country,omitempty"`
	DeviceType           *string    `db:"device_type" json:"device_type,omitempty"`
	ReferrerURL          *string    `db:"referrer_url" json:"referrer_url,omitempty"`
	UTMSource            *string    `db:"utm_source" json:"utm_source,omitempty"`
	UTMMedium            *string    `db:"utm_medium" json:"utm_medium,omitempty"`
	UTMCampaign          *string    `db:"utm_campaign" json:"utm_campaign,omitempty"`
	StartedAt            time.Time  `db:"started_at" json:"started_at"`
	EndedAt              *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	ListenDurationMs     int64      `db:"listen_duration_ms" json:"listen_duration_ms"`
	MaxPositionReachedMs int64      `db:"max_position_reached_ms" json:"max_position_reached_ms"`
	CompletionPercentage float64    `db:"completion_percentage" json:"completion_percentage"`
	Completed            bool       `db:"completed" json:"completed"`
	PlayCount            int        `db:"play_count" json:"play_count"`
	PauseCount           int        `db:"pause_count" json:"pause_count"`
	SeekCount            int        `db:"seek_count" json:"seek_count"`
}

type CountBucket struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

type DayBucket struct {
	Day   string `db:"day" json:"day"`
	Plays int    `db:"plays" json:"plays"`
}

// TrackAnalytics summarises plays of a shared track over a time window.
type TrackAnalytics struct {
	TrackID           string        `json:"track_id"`
	From              time.Time     `json:"from"`
	To                time.Time     `json:"to"`
	TotalPlays        int           `db:"total_plays" json:"total_plays"`
	UniqueListeners   int           `db:"unique_listeners" json:"unique_listeners"`
	TotalListenTimeMs int64         `db:"total_listen_time_ms" json:"total_listen_time_ms"`
	AvgListenTimeMs   float64       `db:"avg_listen_time_ms" json:"avg_listen_time_ms"`
	CompletionRate    float64       `db:"completion_rate" json:"completion_rate"`
	TotalCompletes    int           `db:"total_completes" json:"total_completes"`
	TopCountries      []CountBucket `json:"top_countries"`
	TopDevices        []CountBucket `json:"top_devices"`
	TopReferrers      []CountBucket `json:"top_referrers"`
	PlaysByDay        []DayBucket   `json:"plays_by_day"`
}

const (
	AudioPlay     = "play"
	AudioPause    = "pause"
	AudioComplete = "complete"
	AudioSeek     = "seek"
	AudioProgress = "progress"
	AudioError    = "error"
)

// AudioEvent is one player event reported by a client.
type AudioEvent struct {
	ID                   string    `db:"id" json:"id,omitempty"`
	UserID               *string   `db:"user_id" json:"user_id,omitempty"`
	SessionID            string    `db:"session_id" json:"session_id"`
	TrackID              string    `db:"track_id" json:"track_id"`
	TrackName            *string   `db:"track_name" json:"track_name,omitempty"`
	ArtistName           *string   `db:"artist_name" json:"artist_name,omitempty"`
	AlbumName            *string   `db:"album_name" json:"album_name,omitempty"`
	TrackDurationMs      *int64    `db:"track_duration_ms" json:"track_duration_ms,omitempty"`
	EventType            string    `db:"event_type" json:"event_type"`
	EventTimestamp       time.Time `db:"event_timestamp" json:"event_timestamp"`
	CurrentPositionMs    int64     `db:"current_position_ms" json:"current_position_ms"`
	PreviousPositionMs   *int64    `db:"previous_position_ms" json:"previous_position_ms,omitempty"`
	ListenDurationMs     *int64    `db:"listen_duration_ms" json:"listen_duration_ms,omitempty"`
	CompletionPercentage float64   `db:"completion_percentage" json:"completion_percentage"`
	Source               string    `db:"source" json:"source"`
	DeviceType           string    `db:"device_type" json:"device_type"`
}

type AudioSummary struct {
	TrackID        string  `db:"track_id" json:"track_id"`
	Plays          int     `db:"plays" json:"plays"`
	Completes      int     `db:"completes" json:"completes"`
	TotalListenMs  int64   `db:"total_listen_ms" json:"total_listen_ms"`
	AvgCompletion  float64 `db:"avg_completion" json:"avg_completion"`
	UniqueSessions int     `db:"unique_sessions" json:"unique_sessions"`
}
