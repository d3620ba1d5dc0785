package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"backoffice/internal/model"
	repoMocks "backoffice/internal/repository/mocks"
)

func statementWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Rosa"))
	rosa := map[string]any{
		"B1": "Nombre legal", "E1": "Rosa Gil",
		"A3": "Fecha", "B3": "Concepto", "C3": "Valor factura", "D3": "Cargos bancarios", "E3": "Balance",
		"A4": "2024-03-02", "B4": "Factura marzo", "C4": 900, "E4": 900,
		"A5": "2024-03-09", "B5": "Gasto video", "D5": -150, "E5": 750,
	}
	for ref, v := range rosa {
		require.NoError(t, f.SetCellValue("Rosa", ref, v))
	}
	_, err := f.NewSheet("Luis")
	require.NoError(t, err)
	luis := map[string]any{
		"A1": "Fecha", "B1": "Concepto", "C1": "Valor factura", "D1": "Balance",
		"A2": "2024-03-03", "B2": "Factura", "C2": 100, "D2": 100,
	}
	for ref, v := range luis {
		require.NoError(t, f.SetCellValue("Luis", ref, v))
	}
	_, err = f.NewSheet("Base de datos")
	require.NoError(t, err)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestStatementService_Import(t *testing.T) {
	ctx := context.Background()
	artists := new(repoMocks.MockArtistRepository)
	artists.On("FindByName", ctx, "Rosa").Return(&model.Artist{ID: "a-rosa", Name: "Rosa"}, nil)
	artists.On("FindByName", ctx, "Luis").Return(nil, sql.ErrNoRows)
	artists.On("Create", ctx, mock.MatchedBy(func(a *model.Artist) bool { return a.Name == "Luis" })).
		Return(&model.Artist{ID: "a-luis", Name: "Luis"}, nil)

	repo := new(repoMocks.MockStatementRepository)
	repo.On("Save", ctx, mock.MatchedBy(func(st *model.ArtistStatement) bool {
		return st.ArtistID == "a-rosa" && st.StatementMonth == "2024-05" && st.ImportSource == importSourceExcel &&
			st.TotalIncome == 900 && st.TotalExpenses == 150 && st.Balance == 750 && *st.LegalName == "Rosa Gil"
	}), mock.MatchedBy(func(txs []model.StatementTransaction) bool { return len(txs) == 2 })).
		Return(&model.ArtistStatement{ID: "st-1"}, nil)
	repo.On("Save", ctx, mock.MatchedBy(func(st *model.ArtistStatement) bool { return st.ArtistID == "a-luis" }), mock.Anything).
		Return(nil, errors.New("duplicate month"))
	repo.On("RecordImport", ctx, mock.MatchedBy(func(imp *model.StatementImport) bool {
		var details []ArtistImport
		return imp.FileName == "marzo.xlsx" && *imp.ImportedBy == "u1" &&
			imp.SuccessfulImports == 1 && imp.FailedImports == 1 &&
			json.Unmarshal(imp.ImportSummary, &details) == nil && len(details) == 2
	})).Return(errors.New("ignored"))

	svc := NewStatementService(repo, NewArtistService(artists), nil).(*statementService)
	svc.now = func() time.Time { return time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC) }

	body := statementWorkbook(t)
	res, err := svc.Import(ctx, StatementUpload{UserID: "u1", FileName: "uploads/marzo.xlsx", Size: int64(len(body)), Body: bytes.NewReader(body)})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalArtists)
	assert.Equal(t, 1, res.SuccessfulImports)
	assert.Equal(t, 1, res.FailedImports)
	assert.Equal(t, 2, res.TotalTransactions)
	require.Len(t, res.Details, 2)
	assert.Equal(t, ArtistImport{ArtistName: "Rosa", ArtistID: "a-rosa", StatementID: "st-1", Month: "2024-05", Transactions: 2, Balance: 750}, res.Details[0])
	assert.Equal(t, "Luis", res.Details[1].ArtistName)
	assert.Contains(t, res.Details[1].Error, "duplicate month")
	repo.AssertExpectations(t)
}

func TestStatementService_ImportRejects(t *testing.T) {
	ctx := context.Background()
	svc := NewStatementService(new(repoMocks.MockStatementRepository), NewArtistService(new(repoMocks.MockArtistRepository)), nil)

	_, err := svc.Import(ctx, StatementUpload{FileName: "data.csv", Body: strings.NewReader("a,b")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Import(ctx, StatementUpload{FileName: "data.xlsx", Body: strings.NewReader("not a zip")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.ListByArtist(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
}
