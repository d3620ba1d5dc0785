package service

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"

	"backoffice/internal/repository"
)

type fieldKind int

const (
	kindText     fieldKind = iota // required string, never empty
	kindNullText                  // string or null, "" stored as NULL
	kindJSON                      // any JSON value, "" or null stored as NULL
	kindBool
	kindNumber // float, null allowed
	kindInt    // integer, null allowed
	kindTime   // RFC3339 or YYYY-MM-DD, null allowed
)

// buildFields keeps the allow-listed keys of a decoded JSON patch and
// converts each value to what the column expects.
func buildFields(patch map[string]any, allowed map[string]fieldKind) (repository.Fields, error) {
	f := repository.Fields{}
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		kind, ok := allowed[k]
		if !ok {
			continue
		}
		v, err := convertField(k, patch[k], kind)
		if err != nil {
			return nil, err
		}
		f[k] = v
	}
	if len(f) == 0 {
		return nil, invalid("no valid fields to update")
	}
	return f, nil
}

func convertField(key string, v any, kind fieldKind) (any, error) {
	switch kind {
	case kindText:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, invalid("%s must be a non-empty string", key)
		}
		return strings.TrimSpace(s), nil
	case kindNullText:
		if v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, invalid("%s must be a string", key)
		}
		if s = strings.TrimSpace(s); s == "" {
			return nil, nil
		}
		return s, nil
	case kindJSON:
		if v == nil {
			return nil, nil
		}
		if s, ok := v.(string); ok {
			if strings.TrimSpace(s) == "" {
				return nil, nil
			}
			if !json.Valid([]byte(s)) {
				return nil, invalid("%s must be valid JSON", key)
			}
			return types.JSONText(s), nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, invalid("%s must be valid JSON", key)
		}
		return types.JSONText(b), nil
	case kindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, invalid("%s must be a boolean", key)
		}
		return b, nil
	case kindNumber:
		if v == nil {
			return nil, nil
		}
		n, ok := v.(float64)
		if !ok {
			return nil, invalid("%s must be a number", key)
		}
		return n, nil
	case kindInt:
		if v == nil {
			return nil, nil
		}
		n, ok := v.(float64)
		if !ok || n != float64(int64(n)) {
			return nil, invalid("%s must be an integer", key)
		}
		return int64(n), nil
	case kindTime:
		if v == nil {
			return nil, nil
		}
		s, ok := v.(string)
		if !ok {
			return nil, invalid("%s must be a date", key)
		}
		t, err := ParseTime(s)
		if err != nil {
			return nil, invalid("%s must be RFC3339 or YYYY-MM-DD", key)
		}
		return t, nil
	}
	return nil, invalid("%s is not updatable", key)
}

// ParseTime accepts RFC3339 timestamps and plain dates.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
