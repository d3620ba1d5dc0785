package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const chatCols = `id, project_id, sender_id, content, type, is_read, created_at`

// ChatPostgres is a PostgreSQL implementation of repository.ChatRepository.
type ChatPostgres struct {
	db *sqlx.DB
}

func NewChatPostgres(db *sqlx.DB) *ChatPostgres {
	return &ChatPostgres{db: db}
}

var _ repository.ChatRepository = (*ChatPostgres)(nil)

// ListMessages returns a page of messages oldest first.
func (r *ChatPostgres) ListMessages(ctx context.Context, projectID string, pq repository.PageQuery) ([]model.ChatMessage, error) {
	items := make([]model.ChatMessage, 0)
	q := `SELECT ` + chatCols + ` FROM team_chat_messages WHERE project_id = $1
		ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &items, q, projectID, pq.Limit, pq.Offset); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ChatPostgres) CreateMessage(ctx context.Context, m *model.ChatMessage) (*model.ChatMessage, error) {
	q := `INSERT INTO team_chat_messages (project_id, sender_id, content, type)
		VALUES ($1, $2, $3, $4) RETURNING ` + chatCols
	var out model.ChatMessage
	if err := r.db.GetContext(ctx, &out, q, m.ProjectID, m.SenderID, m.Content, m.Type); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkRead flags every message in the project not sent by readerID as read.
func (r *ChatPostgres) MarkRead(ctx context.Context, projectID, readerID string) (int64, error) {
	const q = `UPDATE team_chat_messages SET is_read = true
		WHERE project_id = $1 AND sender_id <> $2 AND is_read = false`
	res, err := r.db.ExecContext(ctx, q, projectID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const eventCols = `id, user_id, artist_id, project_id, title, description, category, all_day, start_time, end_time, created_at`

// CalendarPostgres is a PostgreSQL implementation of repository.CalendarRepository.
type CalendarPostgres struct {
	db *sqlx.DB
}

func NewCalendarPostgres(db *sqlx.DB) *CalendarPostgres {
	return &CalendarPostgres{db: db}
}

var _ repository.CalendarRepository = (*CalendarPostgres)(nil)

// nullTime maps the zero time to NULL so "($n::timestamptz IS NULL OR ...)" filters skip it.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *CalendarPostgres) List(ctx context.Context, f repository.EventFilter) ([]model.CalendarEvent, error) {
	items := make([]model.CalendarEvent, 0)
	q := `SELECT ` + eventCols + ` FROM events
		WHERE ($1 = '' OR user_id::text = $1)
		  AND ($2 = '' OR artist_id::text = $2)
		  AND ($3::timestamptz IS NULL OR end_time >= $3)
		  AND ($4::timestamptz IS NULL OR start_time < $4)
		ORDER BY start_time ASC, id ASC`
	if err := r.db.SelectContext(ctx, &items, q, f.UserID, f.ArtistID, nullTime(f.From), nullTime(f.To)); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CalendarPostgres) FindByID(ctx context.Context, id string) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	if err := r.db.GetContext(ctx, &e, `SELECT `+eventCols+` FROM events WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *CalendarPostgres) Create(ctx context.Context, e *model.CalendarEvent) (*model.CalendarEvent, error) {
	q := `INSERT INTO events (user_id, artist_id, project_id, title, description, category, all_day, start_time, end_time)
		VALUES (:user_id, :artist_id, :project_id, :title, :description, :category, :all_day, :start_time, :end_time)
		RETURNING ` + eventCols
	rows, err := r.db.NamedQueryContext(ctx, q, e)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, errNoRows
	}
	var out model.CalendarEvent
	if err := rows.StructScan(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CalendarPostgres) Update(ctx context.Context, id string, f repository.Fields) (*model.CalendarEvent, error) {
	set, args := updateSet(f, false)
	q := `UPDATE events SET ` + set + ` WHERE id = $` + itoa(len(args)+1) + ` RETURNING ` + eventCols
	var out model.CalendarEvent
	if err := r.db.GetContext(ctx, &out, q, append(args, id)...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *CalendarPostgres) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM events WHERE id = $1`, id)
}

const categoryCols = `id, user_id, name, type, created_at`

const financeTxCols = `id, user_id, artist_id, category_id, type, amount, description, transaction_date, created_at`

const financeFilter = `user_id::text = $1
	AND ($2 = '' OR artist_id::text = $2)
	AND ($3::date IS NULL OR transaction_date >= $3)
	AND ($4::date IS NULL OR transaction_date <= $4)`

// FinancePostgres is a PostgreSQL implementation of repository.FinanceRepository.
type FinancePostgres struct {
	db *sqlx.DB
}

func NewFinancePostgres(db *sqlx.DB) *FinancePostgres {
	return &FinancePostgres{db: db}
}

var _ repository.FinanceRepository = (*FinancePostgres)(nil)

func (r *FinancePostgres) ListCategories(ctx context.Context, userID string) ([]model.FinanceCategory, error) {
	items := make([]model.FinanceCategory, 0)
	q := `SELECT ` + categoryCols + ` FROM transaction_categories WHERE user_id = $1 ORDER BY type, name`
	if err := r.db.SelectContext(ctx, &items, q, userID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *FinancePostgres) FindCategory(ctx context.Context, id string) (*model.FinanceCategory, error) {
	var c model.FinanceCategory
	if err := r.db.GetContext(ctx, &c, `SELECT `+categoryCols+` FROM transaction_categories WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *FinancePostgres) CreateCategory(ctx context.Context, c *model.FinanceCategory) (*model.FinanceCategory, error) {
	q := `INSERT INTO transaction_categories (user_id, name, type) VALUES ($1, $2, $3) RETURNING ` + categoryCols
	var out model.FinanceCategory
	if err := r.db.GetContext(ctx, &out, q, c.UserID, c.Name, c.Type); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *FinancePostgres) ListTransactions(ctx context.Context, f repository.FinanceFilter, pq repository.PageQuery) (*repository.PageResult[model.FinanceTransaction], error) {
	args := []any{f.UserID, f.ArtistID, nullTime(f.From), nullTime(f.To)}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions WHERE `+financeFilter, args...); err != nil {
		return nil, err
	}
	items := make([]model.FinanceTransaction, 0)
	q := `SELECT ` + financeTxCols + ` FROM transactions WHERE ` + financeFilter + `
		ORDER BY transaction_date DESC, created_at DESC LIMIT $5 OFFSET $6`
	if err := r.db.SelectContext(ctx, &items, q, append(args, pq.Limit, pq.Offset)...); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.FinanceTransaction]{Items: items, Total: total}, nil
}

func (r *FinancePostgres) CreateTransaction(ctx context.Context, t *model.FinanceTransaction) (*model.FinanceTransaction, error) {
	q := `INSERT INTO transactions (user_id, artist_id, category_id, type, amount, description, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING ` + financeTxCols
	var out model.FinanceTransaction
	if err := r.db.GetContext(ctx, &out, q,
		t.UserID, t.ArtistID, t.CategoryID, t.Type, t.Amount, t.Description, t.TransactionDate,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *FinancePostgres) DeleteTransaction(ctx context.Context, id, userID string) error {
	return execOne(ctx, r.db, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *FinancePostgres) CategoryTotals(ctx context.Context, f repository.FinanceFilter) ([]model.CategoryTotal, error) {
	items := make([]model.CategoryTotal, 0)
	q := `
		SELECT c.id AS category_id, c.name, c.type, COALESCE(SUM(t.amount), 0) AS total
		FROM transactions t JOIN transaction_categories c ON c.id = t.category_id
		WHERE t.` + financeFilterT + `
		GROUP BY c.id, c.name, c.type
		ORDER BY total DESC, c.name ASC`
	if err := r.db.SelectContext(ctx, &items, q, f.UserID, f.ArtistID, nullTime(f.From), nullTime(f.To)); err != nil {
		return nil, err
	}
	return items, nil
}

// financeFilterT is financeFilter qualified for the transactions alias t.
const financeFilterT = `user_id::text = $1
	AND ($2 = '' OR t.artist_id::text = $2)
	AND ($3::date IS NULL OR t.transaction_date >= $3)
	AND ($4::date IS NULL OR t.transaction_date <= $4)`

const musoCols = `id, artist_id, muso_profile_id, popularity, profile_data, last_updated, created_at`

// MusoPostgres is a PostgreSQL implementation of repository.MusoRepository.
type MusoPostgres struct {
	db *sqlx.DB
}

func NewMusoPostgres(db *sqlx.DB) *MusoPostgres {
	return &MusoPostgres{db: db}
}

var _ repository.MusoRepository = (*MusoPostgres)(nil)

func (r *MusoPostgres) Link(ctx context.Context, artistID, profileID string) (*model.MusoProfile, error) {
	q := `
		INSERT INTO muso_profiles (artist_id, muso_profile_id) VALUES ($1, $2)
		ON CONFLICT (artist_id) DO UPDATE SET muso_profile_id = EXCLUDED.muso_profile_id
		RETURNING ` + musoCols
	var out model.MusoProfile
	if err := r.db.GetContext(ctx, &out, q, artistID, profileID); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MusoPostgres) ListProfiles(ctx context.Context) ([]model.MusoProfile, error) {
	items := make([]model.MusoProfile, 0)
	if err := r.db.SelectContext(ctx, &items, `SELECT `+musoCols+` FROM muso_profiles ORDER BY created_at`); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MusoPostgres) SaveProfileData(ctx context.Context, artistID string, popularity *int, data []byte) error {
	const q = `
		UPDATE muso_profiles
		SET popularity = COALESCE($1, popularity), profile_data = $2::jsonb, last_updated = now()
		WHERE artist_id = $3`
	return execOne(ctx, r.db, q, popularity, string(data), artistID)
}
