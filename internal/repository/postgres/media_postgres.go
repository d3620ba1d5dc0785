package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const trackCols = `t.id, t.user_id, t.artist_id, t.track_name, t.artist_name, t.album_name, t.cover_image_url,
	t.audio_storage_key, t.duration_ms, t.share_code, t.is_active, t.is_public, t.password_hash, t.max_plays,
	t.expires_at, t.description, t.genre, t.release_date, t.created_at, t.updated_at`

const trackStats = `
	(SELECT COALESCE(SUM(p.play_count), 0) FROM track_plays p WHERE p.shareable_track_id = t.id) AS total_plays,
	(SELECT COUNT(DISTINCT p.session_id) FROM track_plays p WHERE p.shareable_track_id = t.id) AS unique_listeners`

// TrackPostgres is a PostgreSQL implementation of repository.TrackRepository.
type TrackPostgres struct {
	db *sqlx.DB
}

func NewTrackPostgres(db *sqlx.DB) *TrackPostgres {
	return &TrackPostgres{db: db}
}

var _ repository.TrackRepository = (*TrackPostgres)(nil)

func (r *TrackPostgres) Create(ctx context.Context, t *model.ShareableTrack) (*model.ShareableTrack, error) {
	const q = `
		INSERT INTO shareable_tracks (user_id, artist_id, track_name, artist_name, album_name, cover_image_url,
			audio_storage_key, duration_ms, share_code, is_active, is_public, password_hash, max_plays, expires_at,
			description, genre, release_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`
	var id string
	if err := r.db.GetContext(ctx, &id, q,
		t.UserID, t.ArtistID, t.TrackName, t.ArtistName, t.AlbumName, t.CoverImageURL,
		t.AudioStorageKey, t.DurationMs, t.ShareCode, t.IsActive, t.IsPublic, t.PasswordHash, t.MaxPlays, t.ExpiresAt,
		t.Description, t.Genre, t.ReleaseDate,
	); err != nil {
		return nil, duplicate(err)
	}
	return r.FindByID(ctx, id)
}

func (r *TrackPostgres) ListByUser(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.ShareableTrack], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM shareable_tracks WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	items := make([]model.ShareableTrack, 0)
	q := `SELECT ` + trackCols + `,` + trackStats + `
		FROM shareable_tracks t WHERE t.user_id = $1
		ORDER BY t.created_at DESC, t.id DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &items, q, userID, pq.Limit, pq.Offset); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.ShareableTrack]{Items: items, Total: total}, nil
}

func (r *TrackPostgres) FindByID(ctx context.Context, id string) (*model.ShareableTrack, error) {
	var t model.ShareableTrack
	q := `SELECT ` + trackCols + `,` + trackStats + ` FROM shareable_tracks t WHERE t.id = $1`
	if err := r.db.GetContext(ctx, &t, q, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TrackPostgres) FindByCode(ctx context.Context, code string) (*model.ShareableTrack, error) {
	var t model.ShareableTrack
	q := `SELECT ` + trackCols + `,` + trackStats + ` FROM shareable_tracks t WHERE t.share_code = $1`
	if err := r.db.GetContext(ctx, &t, q, code); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TrackPostgres) Update(ctx context.Context, id string, f repository.Fields) (*model.ShareableTrack, error) {
	set, args := updateSet(f, true)
	q := `UPDATE shareable_tracks SET ` + set + ` WHERE id = $` + itoa(len(args)+1)
	if err := execOne(ctx, r.db, q, append(args, id)...); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *TrackPostgres) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM shareable_tracks WHERE id = $1`, id)
}

func (r *TrackPostgres) PlayCount(ctx context.Context, trackID string) (int, error) {
	var n int
	const q = `SELECT COALESCE(SUM(play_count), 0) FROM track_plays WHERE shareable_track_id = $1`
	if err := r.db.GetContext(ctx, &n, q, trackID); err != nil {
		return 0, err
	}
	return n, nil
}

// RecordPlay folds one listener event into the (track, session) row.
func (r *TrackPostgres) RecordPlay(ctx context.Context, p *model.TrackPlay, ev repository.PlayEvent) error {
	const q = `
		INSERT INTO track_plays (shareable_track_id, session_id, listener_country, device_type, referrer_url,
			utm_source, utm_medium, utm_campaign, listen_duration_ms, max_position_reached_ms, completion_percentage,
			completed, play_count, pause_count, seek_count, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			CASE WHEN $13 = 'play' THEN 1 ELSE 0 END,
			CASE WHEN $13 = 'pause' THEN 1 ELSE 0 END,
			CASE WHEN $13 = 'seek' THEN 1 ELSE 0 END,
			CASE WHEN $13 = 'complete' THEN now() ELSE NULL END)
		ON CONFLICT (shareable_track_id, session_id) DO UPDATE SET
			listen_duration_ms = track_plays.listen_duration_ms + EXCLUDED.listen_duration_ms,
			max_position_reached_ms = GREATEST(track_plays.max_position_reached_ms, EXCLUDED.max_position_reached_ms),
			completion_percentage = GREATEST(track_plays.completion_percentage, EXCLUDED.completion_percentage),
			completed = track_plays.completed OR EXCLUDED.completed,
			play_count = track_plays.play_count + EXCLUDED.play_count,
			pause_count = track_plays.pause_count + EXCLUDED.pause_count,
			seek_count = track_plays.seek_count + EXCLUDED.seek_count,
			ended_at = COALESCE(EXCLUDED.ended_at, track_plays.ended_at)`
	_, err := r.db.ExecContext(ctx, q,
		p.ShareableTrackID, p.SessionID, p.ListenerCountry, p.DeviceType, p.ReferrerURL,
		p.UTMSource, p.UTMMedium, p.UTMCampaign, ev.ListenMs, p.MaxPositionReachedMs, p.CompletionPercentage,
		p.Completed, ev.Type,
	)
	return err
}

func (r *TrackPostgres) Analytics(ctx context.Context, trackID string, from, to time.Time) (*model.TrackAnalytics, error) {
	out := model.TrackAnalytics{TrackID: trackID, From: from, To: to}
	const qTotals = `
		SELECT COALESCE(SUM(play_count), 0) AS total_plays,
			COUNT(DISTINCT session_id) AS unique_listeners,
			COALESCE(SUM(listen_duration_ms), 0) AS total_listen_time_ms,
			COALESCE(AVG(listen_duration_ms), 0) AS avg_listen_time_ms,
			COALESCE(AVG(completion_percentage), 0) AS completion_rate,
			COUNT(*) FILTER (WHERE completed) AS total_completes
		FROM track_plays
		WHERE shareable_track_id = $1 AND started_at >= $2 AND started_at < $3`
	if err := r.db.GetContext(ctx, &out, qTotals, trackID, from, to); err != nil {
		return nil, err
	}

	top := func(col string) ([]model.CountBucket, error) {
		items := make([]model.CountBucket, 0)
		q := `SELECT COALESCE(` + col + `, 'unknown') AS key, COUNT(*) AS count
			FROM track_plays
			WHERE shareable_track_id = $1 AND started_at >= $2 AND started_at < $3
			GROUP BY 1 ORDER BY count DESC, key ASC LIMIT 5`
		err := r.db.SelectContext(ctx, &items, q, trackID, from, to)
		return items, err
	}
	var err error
	if out.TopCountries, err = top("listener_country"); err != nil {
		return nil, err
	}
	if out.TopDevices, err = top("device_type"); err != nil {
		return nil, err
	}
	if out.TopReferrers, err = top("referrer_url"); err != nil {
		return nil, err
	}

	out.PlaysByDay = make([]model.DayBucket, 0)
	const qDays = `
		SELECT to_char(date_trunc('day', started_at), 'YYYY-MM-DD') AS day, COALESCE(SUM(play_count), 0) AS plays
		FROM track_plays
		WHERE shareable_track_id = $1 AND started_at >= $2 AND started_at < $3
		GROUP BY 1 ORDER BY 1`
	if err := r.db.SelectContext(ctx, &out.PlaysByDay, qDays, trackID, from, to); err != nil {
		return nil, err
	}
	return &out, nil
}

// AudioEventPostgres is a PostgreSQL implementation of repository.AudioEventRepository.
type AudioEventPostgres struct {
	db *sqlx.DB
}

func NewAudioEventPostgres(db *sqlx.DB) *AudioEventPostgres {
	return &AudioEventPostgres{db: db}
}

var _ repository.AudioEventRepository = (*AudioEventPostgres)(nil)

func (r *AudioEventPostgres) Insert(ctx context.Context, events []model.AudioEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	const q = `
		INSERT INTO audio_events (user_id, session_id, track_id, track_name, artist_name, album_name, track_duration_ms,
			event_type, event_timestamp, current_position_ms, previous_position_ms, listen_duration_ms,
			completion_percentage, source, device_type)
		VALUES (:user_id, :session_id, :track_id, :track_name, :artist_name, :album_name, :track_duration_ms,
			:event_type, :event_timestamp, :current_position_ms, :previous_position_ms, :listen_duration_ms,
			:completion_percentage, :source, :device_type)`
	res, err := r.db.NamedExecContext(ctx, q, events)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *AudioEventPostgres) Summary(ctx context.Context, trackID string) (*model.AudioSummary, error) {
	const q = `
		SELECT $1::text AS track_id,
			COUNT(*) FILTER (WHERE event_type = 'play') AS plays,
			COUNT(*) FILTER (WHERE event_type = 'complete') AS completes,
			COALESCE(SUM(listen_duration_ms), 0) AS total_listen_ms,
			COALESCE(AVG(completion_percentage) FILTER (WHERE event_type IN ('progress', 'complete', 'pause')), 0) AS avg_completion,
			COUNT(DISTINCT session_id) AS unique_sessions
		FROM audio_events WHERE track_id = $1`
	var s model.AudioSummary
	if err := r.db.GetContext(ctx, &s, q, trackID); err != nil {
		return nil, err
	}
	return &s, nil
}
