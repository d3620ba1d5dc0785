// Package royalty parses distributor CSV/TSV exports into royalty or audience rows.
package royalty

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/model"
)

var (
	ErrUnknownFormat = errors.New("unknown or invalid report format")
	ErrEmpty         = errors.New("report has no header")
)

var (
	royaltyHeaders  = []string{"song_title", "platform", "country", "revenue"}
	audienceHeaders = []string{"date", "listeners", "streams", "followers"}
)

// RowError describes a data line that could not be converted.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type Result struct {
	Kind      string
	Headers   []string
	Royalties []model.RoyaltyRow
	Audience  []model.AudienceRow
	Errors    []RowError
}

// Rows is the number of parsed rows of the detected kind.
func (r *Result) Rows() int {
	return len(r.Royalties) + len(r.Audience)
}

// NormalizeHeader trims, lower-cases, strips quotes and joins words with "_".
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ReplaceAll(h, `"`, "")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

// DetectDelimiter picks comma, then tab, falling back to whitespace runs (0).
func DetectDelimiter(header string) rune {
	switch {
	case strings.Contains(header, ","):
		return ','
	case strings.Contains(header, "\t"):
		return '\t'
	default:
		return 0
	}
}

// Classify decides the report kind from normalized headers.
func Classify(headers []string) string {
	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[h] = true
	}
	hasAll := func(want []string) bool {
		for _, w := range want {
			if !set[w] {
				return false
			}
		}
		return true
	}
	switch {
	case hasAll(royaltyHeaders):
		return model.ReportKindRoyalty
	case hasAll(audienceHeaders):
		return model.ReportKindAudience
	default:
		return model.ReportKindUnknown
	}
}

type record struct {
	line   int
	fields []string
}

// Parse reads the whole report and converts every data line for artistID.
// ReportID is left empty on the rows; the repository fills it in.
func Parse(r io.Reader, artistID string) (*Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	records, err := split(raw)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}

	res := &Result{}
	for _, h := range records[0].fields {
		res.Headers = append(res.Headers, NormalizeHeader(h))
	}
	res.Kind = Classify(res.Headers)
	if res.Kind == model.ReportKindUnknown {
		return res, ErrUnknownFormat
	}

	col := make(map[string]int, len(res.Headers))
	for i, h := range res.Headers {
		if _, dup := col[h]; !dup {
			col[h] = i
		}
	}
	get := func(rec record, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec.fields) {
			return ""
		}
		return strings.TrimSpace(rec.fields[i])
	}

	for _, rec := range records[1:] {
		switch res.Kind {
		case model.ReportKindRoyalty:
			row, err := royaltyRow(rec, get, artistID)
			if err != nil {
				res.Errors = append(res.Errors, RowError{Line: rec.line, Message: err.Error()})
				continue
			}
			res.Royalties = append(res.Royalties, row)
		case model.ReportKindAudience:
			row, err := audienceRow(rec, get, artistID)
			if err != nil {
				res.Errors = append(res.Errors, RowError{Line: rec.line, Message: err.Error()})
				continue
			}
			res.Audience = append(res.Audience, row)
		}
	}
	return res, nil
}

func royaltyRow(rec record, get func(record, string) string, artistID string) (model.RoyaltyRow, error) {
	rev := get(rec, "revenue")
	revenue, err := strconv.ParseFloat(rev, 64)
	if err != nil {
		return model.RoyaltyRow{}, fmt.Errorf("invalid revenue %q", rev)
	}
	row := model.RoyaltyRow{
		ArtistID:  artistID,
		SongTitle: get(rec, "song_title"),
		Platform:  get(rec, "platform"),
		Country:   get(rec, "country"),
		Revenue:   revenue,
	}
	if v := get(rec, "isrc"); v != "" {
		row.ISRC = &v
	}
	if v := get(rec, "quantity"); v != "" {
		if q, err := strconv.Atoi(v); err == nil {
			row.Quantity = &q
		}
	}
	return row, nil
}

func audienceRow(rec record, get func(record, string) string, artistID string) (model.AudienceRow, error) {
	d := get(rec, "date")
	date, err := parseDate(d)
	if err != nil {
		return model.AudienceRow{}, fmt.Errorf("invalid date %q", d)
	}
	return model.AudienceRow{
		ArtistID:   artistID,
		ReportDate: date,
		Listeners:  atoiOrZero(get(rec, "listeners")),
		Streams:    atoiOrZero(get(rec, "streams")),
		Followers:  atoiOrZero(get(rec, "followers")),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}

func split(raw []byte) ([]record, error) {
	raw = bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	header := firstLine(raw)
	if header == "" {
		return nil, nil
	}

	delim := DetectDelimiter(header)
	if delim == 0 {
		var out []record
		sc := bufio.NewScanner(bytes.NewReader(raw))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		line := 0
		for sc.Scan() {
			line++
			if f := strings.Fields(sc.Text()); len(f) > 0 {
				out = append(out, record{line: line, fields: f})
			}
		}
		return out, sc.Err()
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var out []record
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse report: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(fields) {
			continue
		}
		out = append(out, record{line: line, fields: fields})
	}
	return out, nil
}

func firstLine(raw []byte) string {
	for _, l := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(l) != "" {
			return l
		}
	}
	return ""
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
