// Package statement reads artist account statements from the label's Excel
// workbook. Each sheet holds one artist.
package statement

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"backoffice/internal/model"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"
	TypeAdvance = "advance"
)

var skippedSheets = map[string]bool{"Base de datos": true, "MODELO": true}

// Sheet is the parsed content of one artist sheet.
type Sheet struct {
	ArtistName    string
	LegalName     *string
	PeriodStart   *time.Time
	PeriodEnd     *time.Time
	Transactions  []model.StatementTransaction
	TotalIncome   float64
	TotalExpenses float64
	TotalAdvances float64
	Balance       float64
}

// SheetResult carries either a parsed sheet or the reason it failed.
type SheetResult struct {
	Name  string
	Sheet *Sheet
	Err   error
}

// ReadWorkbook parses every artist sheet of an .xlsx workbook.
func ReadWorkbook(r io.Reader) ([]SheetResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var out []SheetResult
	for _, name := range f.GetSheetList() {
		if skippedSheets[name] {
			continue
		}
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			out = append(out, SheetResult{Name: name, Err: fmt.Errorf("read sheet: %w", err)})
			continue
		}
		out = append(out, SheetResult{Name: name, Sheet: ParseRows(name, rows)})
	}
	return out, nil
}

// ParseRows converts raw cell values of one sheet. A sheet without a
// transaction header yields no transactions.
func ParseRows(name string, rows [][]string) *Sheet {
	s := &Sheet{ArtistName: strings.TrimSpace(name)}

	for i := 0; i < len(rows) && i < 10; i++ {
		label, value := cell(rows[i], 1), cell(rows[i], 4)
		if label == "" || value == "" {
			continue
		}
		label = strings.ToLower(label)
		switch {
		case strings.Contains(label, "nombre legal"):
			v := value
			s.LegalName = &v
		case strings.Contains(label, "fecha de inicio"), strings.Contains(label, "fecha inicio"):
			if t, ok := parseDate(value); ok {
				s.PeriodStart = &t
			}
		case strings.Contains(label, "fecha fin"), strings.Contains(label, "fecha de finalizacion"):
			if t, ok := parseDate(value); ok {
				s.PeriodEnd = &t
			}
		}
	}

	headerRow := -1
	for i, row := range rows {
		joined := strings.ToLower(strings.Join(row, " "))
		if strings.Contains(joined, "fecha") && strings.Contains(joined, "concepto") {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return s
	}

	cols := newColumns(rows[headerRow])
	for _, row := range rows[headerRow+1:] {
		tx, ok := cols.transaction(row)
		if !ok {
			continue
		}
		s.Transactions = append(s.Transactions, tx)
		switch tx.TransactionType {
		case TypeIncome:
			s.TotalIncome += tx.Amount
		case TypeExpense:
			s.TotalExpenses += tx.Amount
		case TypeAdvance:
			s.TotalAdvances += tx.Amount
		}
	}
	if n := len(s.Transactions); n > 0 {
		s.Balance = s.Transactions[n-1].RunningBalance
	}
	return s
}

type columns struct {
	headers []string
	concept int
	balance int
}

func newColumns(header []string) columns {
	c := columns{headers: make([]string, len(header))}
	for i, h := range header {
		c.headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	c.concept = c.find(func(h string) bool { return strings.Contains(h, "concepto") })
	c.balance = c.find(func(h string) bool { return strings.Contains(h, "balance") })
	return c
}

func (c columns) find(match func(string) bool) int {
	for i, h := range c.headers {
		if match(h) {
			return i
		}
	}
	return -1
}

func (c columns) contains(sub string) int {
	return c.find(func(h string) bool { return strings.Contains(h, sub) })
}

// number returns the first non-zero numeric value among the columns matched by subs.
func (c columns) number(row []string, subs ...string) *float64 {
	for _, sub := range subs {
		idx := c.contains(sub)
		if idx < 0 {
			continue
		}
		if v, ok := numeric(cell(row, idx)); ok && v != 0 {
			return &v
		}
	}
	return nil
}

func (c columns) text(row []string, idx int) *string {
	if v := cell(row, idx); v != "" {
		return &v
	}
	return nil
}

func (c columns) transaction(row []string) (model.StatementTransaction, bool) {
	var (
		date    time.Time
		dateCol = -1
	)
	for col := 0; col < 5 && col < len(row); col++ {
		if t, ok := parseDate(row[col]); ok {
			date, dateCol = t, col
			break
		}
	}
	if dateCol < 0 {
		return model.StatementTransaction{}, false
	}

	concept := ""
	if c.concept >= 0 {
		concept = cell(row, c.concept)
	}
	if concept == "" {
		for col, v := range row {
			if col == dateCol {
				continue
			}
			v = strings.TrimSpace(v)
			if _, isNum := numeric(v); !isNum && len([]rune(v)) > 5 {
				concept = v
				break
			}
		}
	}
	if concept == "" {
		return model.StatementTransaction{}, false
	}

	invoiceValue := c.number(row, "valor factura", "valor")
	var amount float64
	if invoiceValue != nil {
		amount = math.Abs(*invoiceValue)
	} else {
		for col := len(row) - 1; col >= 0; col-- {
			if col == c.balance || col == dateCol {
				continue
			}
			if v, ok := numeric(row[col]); ok && v != 0 {
				amount = math.Abs(v)
				break
			}
		}
	}
	if amount == 0 {
		return model.StatementTransaction{}, false
	}

	txType, category := Classify(concept)
	finalBalance := c.number(row, "balance")
	tx := model.StatementTransaction{
		TransactionDate:        date,
		Concept:                concept,
		Amount:                 amount,
		TransactionType:        txType,
		Category:               &category,
		InvoiceNumber:          c.text(row, c.find(func(h string) bool { return strings.Contains(h, "factura") && strings.Contains(h, "nº") })),
		TransactionTypeCode:    c.text(row, c.contains("tipo")),
		PaymentMethodDetail:    c.text(row, c.find(func(h string) bool { return strings.Contains(h, "método") || strings.Contains(h, "metodo") })),
		InvoiceValue:           invoiceValue,
		BankChargesAmount:      c.number(row, "cargo", "cargos banc"),
		CountryPercentage:      c.number(row, "80%", "país"),
		Commission20Percentage: c.number(row, "20%", "comisión"),
		Legal5Percentage:       c.number(row, "5%", "legal"),
		TaxRetention:           c.number(row, "retención", "iva"),
		MvpxPayment:            c.number(row, "pagado", "mvpx"),
		AdvanceAmount:          c.number(row, "avance"),
		FinalBalance:           finalBalance,
	}
	if finalBalance != nil {
		tx.RunningBalance = *finalBalance
	}
	return tx, true
}

// Classify maps a concept to a transaction type and category.
func Classify(concept string) (string, string) {
	l := strings.ToLower(concept)
	switch {
	case strings.Contains(l, "avance"), strings.Contains(l, "adelanto"):
		return TypeAdvance, "Avance"
	case strings.Contains(l, "factura"):
		return TypeIncome, "Factura"
	case strings.Contains(l, "pago"):
		return TypeExpense, "Pago por servicios"
	case strings.Contains(l, "gasto"), strings.Contains(l, "viatico"),
		strings.Contains(l, "video"), strings.Contains(l, "produccion"):
		return TypeExpense, "Gastos de producción"
	default:
		return TypeIncome, "Otros"
	}
}

// Period returns the statement window and its YYYY-MM key. Missing bounds
// default to the month of now.
func Period(s *Sheet, now time.Time) (start, end time.Time, month string) {
	if s.PeriodStart != nil {
		start = *s.PeriodStart
	} else {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if s.PeriodEnd != nil {
		end = *s.PeriodEnd
	} else {
		end = time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	}
	return start, end, start.Format("2006-01")
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func numeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Excel serials outside this window are treated as plain numbers.
const (
	minSerial = 20000 // 1954-10-03
	maxSerial = 80000 // 2119-01-10
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006", "2/1/2006", "02-01-2006", "2006/01/02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if v, ok := numeric(s); ok {
		if v < minSerial || v > maxSerial {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
