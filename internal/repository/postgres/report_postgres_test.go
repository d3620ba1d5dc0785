package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/model"
)

func TestRoyaltyReportPostgres_CreateWithRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRoyaltyReportPostgres(db)
	now := time.Now()

	royalties := make([]model.RoyaltyRow, rowBatch+1)
	for i := range royalties {
		royalties[i] = model.RoyaltyRow{ArtistID: "a1", SongTitle: fmt.Sprintf("song %d", i), Platform: "Spotify", Country: "CO", Revenue: 1}
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO royalty_reports").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "file_name", "storage_key", "kind", "status", "row_count", "created_at"}).
			AddRow("r1", "u1", "report.csv", "reports/r.csv", "royalty", "processed", len(royalties), now))
	mock.ExpectExec("INSERT INTO royalties").WillReturnResult(sqlmock.NewResult(0, rowBatch))
	mock.ExpectExec("INSERT INTO royalties").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rep, err := repo.CreateWithRows(context.Background(), &model.RoyaltyReport{
		UserID: "u1", FileName: "report.csv", StorageKey: "reports/r.csv", Kind: model.ReportKindRoyalty, Status: "processed", RowCount: len(royalties),
	}, royalties, nil)

	require.NoError(t, err)
	assert.Equal(t, "r1", rep.ID)
	assert.Equal(t, "r1", royalties[0].ReportID)
	assert.Equal(t, "r1", royalties[rowBatch].ReportID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementPostgres_Save(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatementPostgres(db)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO artist_statements (.+) ON CONFLICT \\(artist_id, statement_month\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id", "artist_id", "period_start", "period_end", "statement_month", "total_income", "balance", "total_transactions", "last_import_date", "import_source"}).
			AddRow("st1", "a1", start, end, "2024-06", 100.0, 100.0, 1, time.Now(), "excel_import"))
	mock.ExpectExec("DELETE FROM statement_transactions WHERE statement_id = \\$1").
		WithArgs("st1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO statement_transactions").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	txs := []model.StatementTransaction{{TransactionDate: start, Concept: "Regalías", Amount: 100, TransactionType: "income", RunningBalance: 100}}
	st, err := repo.Save(context.Background(), &model.ArtistStatement{
		ArtistID: "a1", PeriodStart: start, PeriodEnd: end, StatementMonth: "2024-06", TotalIncome: 100, Balance: 100, TotalTransactions: 1, ImportSource: "excel_import",
	}, txs)

	require.NoError(t, err)
	assert.Equal(t, "st1", st.ID)
	assert.Equal(t, "st1", txs[0].StatementID)
	assert.Equal(t, "a1", txs[0].ArtistID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementPostgres_SaveWithoutTransactions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStatementPostgres(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO artist_statements").
		WillReturnRows(sqlmock.NewRows([]string{"id", "artist_id", "statement_month"}).AddRow("st1", "a1", "2024-06"))
	mock.ExpectExec("DELETE FROM statement_transactions").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := repo.Save(context.Background(), &model.ArtistStatement{ArtistID: "a1", StatementMonth: "2024-06"}, nil)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
