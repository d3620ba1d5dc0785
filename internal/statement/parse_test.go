package statement

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		concept  string
		wantType string
		wantCat  string
	}{
		{"Avance gira", TypeAdvance, "Avance"},
		{"ADELANTO regalías", TypeAdvance, "Avance"},
		{"Factura Spotify", TypeIncome, "Factura"},
		{"Pago productor", TypeExpense, "Pago por servicios"},
		{"Viatico Bogotá", TypeExpense, "Gastos de producción"},
		{"Video oficial", TypeExpense, "Gastos de producción"},
		{"Sync TV", TypeIncome, "Otros"},
	}
	for _, tt := range tests {
		t.Run(tt.concept, func(t *testing.T) {
			gotType, gotCat := Classify(tt.concept)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantCat, gotCat)
		})
	}
}

func TestParseRows(t *testing.T) {
	rows := [][]string{
		{"", "Nombre legal", "", "", "Ana María Ruiz"},
		{"", "Fecha de inicio", "", "", "45292"},
		{},
		{"Fecha", "Concepto", "Valor factura", "Cargos bancarios", "Balance"},
		{"45296", "Factura enero", "1500", "-10", "1490"},
		{"2024-01-12", "", "", "", ""},
		{"12/01/2024", "Gasto estudio", "", "300", "1190"},
		{"Total", "", "", "", "1190"},
	}

	s := ParseRows(" Ana ", rows)
	assert.Equal(t, "Ana", s.ArtistName)
	require.NotNil(t, s.LegalName)
	assert.Equal(t, "Ana María Ruiz", *s.LegalName)
	require.NotNil(t, s.PeriodStart)
	assert.Equal(t, day(2024, 1, 1), *s.PeriodStart)
	assert.Nil(t, s.PeriodEnd)

	require.Len(t, s.Transactions, 2)
	first := s.Transactions[0]
	assert.Equal(t, day(2024, 1, 5), first.TransactionDate)
	assert.Equal(t, 1500.0, first.Amount)
	assert.Equal(t, TypeIncome, first.TransactionType)
	require.NotNil(t, first.BankChargesAmount)
	assert.Equal(t, -10.0, *first.BankChargesAmount)

	second := s.Transactions[1]
	assert.Equal(t, day(2024, 1, 12), second.TransactionDate)
	assert.Equal(t, 300.0, second.Amount)
	assert.Equal(t, TypeExpense, second.TransactionType)

	assert.Equal(t, 1500.0, s.TotalIncome)
	assert.Equal(t, 300.0, s.TotalExpenses)
	assert.Equal(t, 1190.0, s.Balance)
}

func TestParseRows_NoHeader(t *testing.T) {
	s := ParseRows("X", [][]string{{"a", "b"}})
	assert.Empty(t, s.Transactions)
	assert.Zero(t, s.Balance)
}

func TestPeriod(t *testing.T) {
	now := time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)
	start, end, month := Period(&Sheet{}, now)
	assert.Equal(t, day(2024, 2, 1), start)
	assert.Equal(t, day(2024, 2, 29), end)
	assert.Equal(t, "2024-02", month)

	ps := day(2023, 11, 1)
	_, _, month = Period(&Sheet{PeriodStart: &ps}, now)
	assert.Equal(t, "2023-11", month)
}

func TestReadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	const artist = "Artista Uno"
	require.NoError(t, f.SetSheetName("Sheet1", artist))
	cells := map[string]any{
		"B1": "Nombre legal", "E1": "Juan Pérez",
		"B2": "Fecha de inicio", "E2": "2024-01-01",
		"B3": "Fecha fin", "E3": "2024-01-31",
		"A5": "Fecha", "B5": "Concepto", "C5": "Valor factura", "D5": "Cargos bancarios", "E5": "Avance", "F5": "Balance",
		"A6": day(2024, 1, 5), "B6": "Factura enero", "C6": 1500, "F6": 1500,
		"A7": "2024-01-10", "B7": "Avance gira", "E7": 500, "F7": 1000,
		"A8": "2024-01-20", "B8": "Pago productor", "D8": -200, "F8": 800,
		"A9": "2024-01-21", "B9": "Nota sin monto",
	}
	for ref, v := range cells {
		require.NoError(t, f.SetCellValue(artist, ref, v))
	}
	_, err := f.NewSheet("MODELO")
	require.NoError(t, err)
	_, err = f.NewSheet("Sin Datos")
	require.NoError(t, err)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	res, err := ReadWorkbook(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, artist, res[0].Name)
	s := res[0].Sheet
	require.NotNil(t, s)
	require.Len(t, s.Transactions, 3)
	assert.Equal(t, day(2024, 1, 5), s.Transactions[0].TransactionDate)
	assert.Equal(t, 500.0, s.Transactions[1].Amount)
	require.NotNil(t, s.Transactions[1].AdvanceAmount)
	assert.Equal(t, 500.0, *s.Transactions[1].AdvanceAmount)
	assert.Equal(t, 200.0, s.Transactions[2].Amount)

	assert.Equal(t, 1500.0, s.TotalIncome)
	assert.Equal(t, 200.0, s.TotalExpenses)
	assert.Equal(t, 500.0, s.TotalAdvances)
	assert.Equal(t, 800.0, s.Balance)
	require.NotNil(t, s.PeriodEnd)
	assert.Equal(t, day(2024, 1, 31), *s.PeriodEnd)

	assert.Equal(t, "Sin Datos", res[1].Name)
	assert.Empty(t, res[1].Sheet.Transactions)
}

func TestReadWorkbook_NotExcel(t *testing.T) {
	_, err := ReadWorkbook(bytes.NewReader([]byte("plain text")))
	assert.Error(t, err)
}
