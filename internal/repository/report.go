package repository

import (
	"context"

	"backoffice/internal/model"
)

type RoyaltyReportRepository interface {
	// CreateWithRows stores the report and its parsed rows atomically.
	CreateWithRows(ctx context.Context, r *model.RoyaltyReport, royalties []model.RoyaltyRow, audience []model.AudienceRow) (*model.RoyaltyReport, error)
	List(ctx context.Context, userID string, pq PageQuery) (*PageResult[model.RoyaltyReport], error)
	FindByID(ctx context.Context, id string) (*model.RoyaltyReport, error)
}

type StatementRepository interface {
	// Save upserts the statement by (artist_id, statement_month) and replaces
	// its transactions in one transaction.
	Save(ctx context.Context, st *model.ArtistStatement, txs []model.StatementTransaction) (*model.ArtistStatement, error)
	RecordImport(ctx context.Context, imp *model.StatementImport) error
	ListByArtist(ctx context.Context, artistID string) ([]model.ArtistStatement, error)
	ListTransactions(ctx context.Context, statementID string) ([]model.StatementTransaction, error)
}
