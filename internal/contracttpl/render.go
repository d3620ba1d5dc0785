// Package contracttpl fills contract templates with contract, work and
// participant data.
//
// Placeholders take the form {{key}} or {{key.nested}}. Missing or empty
// values render as N/A. Signature labels ({{signature:N}}) are left for the
// e-signature provider.
package contracttpl

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"backoffice/internal/model"
)

const missing = "N/A"

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)(?:\.([A-Za-z0-9_]+))?\s*\}\}`)

// Data maps top-level keys to scalars or to map[string]any for nested keys.
// Values of type Raw are inserted without escaping.
type Data map[string]any

// Raw is pre-rendered HTML.
type Raw string

// Render substitutes every placeholder in tpl.
func Render(tpl string, data Data) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		v, ok := data[sub[1]]
		if !ok {
			return missing
		}
		if sub[2] != "" {
			nested, ok := v.(map[string]any)
			if !ok {
				return missing
			}
			v = nested[sub[2]]
		}
		return format(v)
	})
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return missing
	case Raw:
		if x == "" {
			return missing
		}
		return string(x)
	case string:
		if strings.TrimSpace(x) == "" {
			return missing
		}
		return html.EscapeString(x)
	case *string:
		if x == nil {
			return missing
		}
		return format(*x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case *float64:
		if x == nil {
			return missing
		}
		return format(*x)
	case int:
		return strconv.Itoa(x)
	case time.Time:
		if x.IsZero() {
			return missing
		}
		return x.Format(dateLayout)
	case *time.Time:
		if x == nil {
			return missing
		}
		return format(*x)
	case map[string]any:
		return missing
	default:
		return html.EscapeString(fmt.Sprint(x))
	}
}

const dateLayout = "02/01/2006"

// BuildData assembles the placeholder values for a contract.
func BuildData(b model.ContractBundle, now time.Time) Data {
	c := b.Contract
	w := b.Work
	parts := c.Participants

	return Data{
		"contract": map[string]any{
			"id":                   c.ID,
			"status":               c.Status,
			"internal_reference":   c.InternalReference,
			"signing_location":     c.SigningLocation,
			"additional_notes":     c.AdditionalNotes,
			"publisher":            c.Publisher,
			"publisher_percentage": c.PublisherPercentage,
			"co_publishers":        c.CoPublishers,
			"publisher_admin":      c.PublisherAdmin,
			"created_at":           c.CreatedAt,
		},
		"work": map[string]any{
			"name":              w.Name,
			"alternative_title": w.AlternativeTitle,
			"iswc":              w.ISWC,
			"isrc":              w.ISRC,
			"upc":               w.UPC,
			"type":              w.Type,
			"status":            w.Status,
			"release_date":      w.ReleaseDate,
		},
		"participants": map[string]any{
			"table":            ParticipantsTable(parts),
			"total_percentage": TotalPercentage(parts),
			"count":            len(parts),
		},
		"current_date": now.Format(dateLayout),
		"current_year": now.Year(),
	}
}

// TotalPercentage sums the shares that are set.
func TotalPercentage(parts []model.ContractParticipant) float64 {
	var total float64
	for _, p := range parts {
		if p.Percentage != nil {
			total += *p.Percentage
		}
	}
	return total
}

// ParticipantsTable renders name, artistic name, role and share per participant.
func ParticipantsTable(parts []model.ContractParticipant) Raw {
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<table class="participants"><thead><tr><th>Nombre</th><th>Nombre artístico</th><th>Rol</th><th>%</th></tr></thead><tbody>`)
	for _, p := range parts {
		b.WriteString("<tr><td>")
		b.WriteString(format(p.Name))
		b.WriteString("</td><td>")
		b.WriteString(format(p.ArtisticName))
		b.WriteString("</td><td>")
		b.WriteString(format(p.Role))
		b.WriteString("</td><td>")
		b.WriteString(format(p.Percentage))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table>")
	return Raw(b.String())
}

// SignatureTags appends one provider signature label per participant.
func SignatureTags(parts []model.ContractParticipant) string {
	var b strings.Builder
	for i, p := range parts {
		name := p.Name
		if strings.TrimSpace(name) == "" {
			name = "Firmante"
		}
		fmt.Fprintf(&b, "<br/><p>Firma de %s: {{signature:%d}}</p>", html.EscapeString(name), i)
	}
	return b.String()
}
