package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"backoffice/internal/model"
	"backoffice/internal/repository"
)

const reportCols = `id, user_id, artist_id, file_name, storage_key, kind, status, row_count, created_at`

// rowBatch bounds how many rows go into one multi-row INSERT.
const rowBatch = 500

// RoyaltyReportPostgres is a PostgreSQL implementation of repository.RoyaltyReportRepository.
type RoyaltyReportPostgres struct {
	db *sqlx.DB
}

func NewRoyaltyReportPostgres(db *sqlx.DB) *RoyaltyReportPostgres {
	return &RoyaltyReportPostgres{db: db}
}

var _ repository.RoyaltyReportRepository = (*RoyaltyReportPostgres)(nil)

func (r *RoyaltyReportPostgres) CreateWithRows(ctx context.Context, rep *model.RoyaltyReport, royalties []model.RoyaltyRow, audience []model.AudienceRow) (*model.RoyaltyReport, error) {
	var out model.RoyaltyReport
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		q := `
			INSERT INTO royalty_reports (user_id, artist_id, file_name, storage_key, kind, status, row_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING ` + reportCols
		if err := tx.GetContext(ctx, &out, q,
			rep.UserID, rep.ArtistID, rep.FileName, rep.StorageKey, rep.Kind, rep.Status, rep.RowCount,
		); err != nil {
			return fmt.Errorf("insert report: %w", err)
		}

		for i := range royalties {
			royalties[i].ReportID = out.ID
		}
		for i := range audience {
			audience[i].ReportID = out.ID
		}

		const qRoyalty = `
			INSERT INTO royalties (report_id, artist_id, song_title, platform, country, revenue, isrc, quantity)
			VALUES (:report_id, :artist_id, :song_title, :platform, :country, :revenue, :isrc, :quantity)`
		if err := namedBatches(ctx, tx, qRoyalty, royalties, rowBatch); err != nil {
			return fmt.Errorf("insert royalties: %w", err)
		}

		const qAudience = `
			INSERT INTO audience_reports (report_id, artist_id, report_date, listeners, streams, followers)
			VALUES (:report_id, :artist_id, :report_date, :listeners, :streams, :followers)`
		if err := namedBatches(ctx, tx, qAudience, audience, rowBatch); err != nil {
			return fmt.Errorf("insert audience rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// namedBatches runs a sqlx named multi-row INSERT over rows in chunks of size.
func namedBatches[T any](ctx context.Context, tx *sqlx.Tx, q string, rows []T, size int) error {
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		if _, err := tx.NamedExecContext(ctx, q, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *RoyaltyReportPostgres) List(ctx context.Context, userID string, pq repository.PageQuery) (*repository.PageResult[model.RoyaltyReport], error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM royalty_reports WHERE user_id = $1`, userID); err != nil {
		return nil, err
	}
	items := make([]model.RoyaltyReport, 0)
	q := `SELECT ` + reportCols + ` FROM royalty_reports WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &items, q, userID, pq.Limit, pq.Offset); err != nil {
		return nil, err
	}
	return &repository.PageResult[model.RoyaltyReport]{Items: items, Total: total}, nil
}

func (r *RoyaltyReportPostgres) FindByID(ctx context.Context, id string) (*model.RoyaltyReport, error) {
	var rep model.RoyaltyReport
	if err := r.db.GetContext(ctx, &rep, `SELECT `+reportCols+` FROM royalty_reports WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &rep, nil
}

const statementCols = `id, artist_id, period_start, period_end, statement_month, legal_name, total_income,
	total_expenses, total_advances, balance, total_transactions, last_import_date, import_source`

const statementTxCols = `id, statement_id, artist_id, transaction_date, concept, amount, transaction_type, category,
	running_balance, invoice_number, transaction_type_code, payment_method_detail, invoice_value, bank_charges_amount,
	country_percentage, commission_20_percentage, legal_5_percentage, tax_retention, mvpx_payment, advance_amount,
	final_balance`

// statementTxBatch matches the batch size the import has always used.
const statementTxBatch = 100

// StatementPostgres is a PostgreSQL implementation of repository.StatementRepository.
type StatementPostgres struct {
	db *sqlx.DB
}

func NewStatementPostgres(db *sqlx.DB) *StatementPostgres {
	return &StatementPostgres{db: db}
}

var _ repository.StatementRepository = (*StatementPostgres)(nil)

func (r *StatementPostgres) Save(ctx context.Context, st *model.ArtistStatement, txs []model.StatementTransaction) (*model.ArtistStatement, error) {
	var out model.ArtistStatement
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		q := `
			INSERT INTO artist_statements (artist_id, period_start, period_end, statement_month, legal_name,
				total_income, total_expenses, total_advances, balance, total_transactions, last_import_date, import_source)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), $11)
			ON CONFLICT (artist_id, statement_month) DO UPDATE SET
				period_start = EXCLUDED.period_start,
				period_end = EXCLUDED.period_end,
				legal_name = COALESCE(EXCLUDED.legal_name, artist_statements.legal_name),
				total_income = EXCLUDED.total_income,
				total_expenses = EXCLUDED.total_expenses,
				total_advances = EXCLUDED.total_advances,
				balance = EXCLUDED.balance,
				total_transactions = EXCLUDED.total_transactions,
				last_import_date = now(),
				import_source = EXCLUDED.import_source
			RETURNING ` + statementCols
		if err := tx.GetContext(ctx, &out, q,
			st.ArtistID, st.PeriodStart, st.PeriodEnd, st.StatementMonth, st.LegalName,
			st.TotalIncome, st.TotalExpenses, st.TotalAdvances, st.Balance, st.TotalTransactions, st.ImportSource,
		); err != nil {
			return fmt.Errorf("upsert statement: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM statement_transactions WHERE statement_id = $1`, out.ID); err != nil {
			return fmt.Errorf("clear transactions: %w", err)
		}
		for i := range txs {
			txs[i].StatementID = out.ID
			txs[i].ArtistID = out.ArtistID
		}
		const qTx = `
			INSERT INTO statement_transactions (statement_id, artist_id, transaction_date, concept, amount,
				transaction_type, category, running_balance, invoice_number, transaction_type_code, payment_method_detail,
				invoice_value, bank_charges_amount, country_percentage, commission_20_percentage, legal_5_percentage,
				tax_retention, mvpx_payment, advance_amount, final_balance)
			VALUES (:statement_id, :artist_id, :transaction_date, :concept, :amount,
				:transaction_type, :category, :running_balance, :invoice_number, :transaction_type_code, :payment_method_detail,
				:invoice_value, :bank_charges_amount, :country_percentage, :commission_20_percentage, :legal_5_percentage,
				:tax_retention, :mvpx_payment, :advance_amount, :final_balance)`
		if err := namedBatches(ctx, tx, qTx, txs, statementTxBatch); err != nil {
			return fmt.Errorf("insert transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *StatementPostgres) RecordImport(ctx context.Context, imp *model.StatementImport) error {
	const q = `
		INSERT INTO statement_imports (file_name, file_size, total_artists, total_transactions,
			successful_imports, failed_imports, import_summary, imported_by)
		VALUES (:file_name, :file_size, :total_artists, :total_transactions,
			:successful_imports, :failed_imports, :import_summary, :imported_by)`
	_, err := r.db.NamedExecContext(ctx, q, imp)
	return err
}

func (r *StatementPostgres) ListByArtist(ctx context.Context, artistID string) ([]model.ArtistStatement, error) {
	items := make([]model.ArtistStatement, 0)
	q := `SELECT ` + statementCols + ` FROM artist_statements WHERE artist_id = $1 ORDER BY statement_month DESC`
	if err := r.db.SelectContext(ctx, &items, q, artistID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *StatementPostgres) ListTransactions(ctx context.Context, statementID string) ([]model.StatementTransaction, error) {
	items := make([]model.StatementTransaction, 0)
	q := `SELECT ` + statementTxCols + ` FROM statement_transactions WHERE statement_id = $1 ORDER BY transaction_date ASC, id ASC`
	if err := r.db.SelectContext(ctx, &items, q, statementID); err != nil {
		return nil, err
	}
	return items, nil
}
