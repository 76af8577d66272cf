// Package transform applies a confirmed column mapping plus type coercion to
// produce candidate records. All coercion for a row happens here, in one
// explicit step, instead of scattered through the call sites.
package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ledoux/bakehouse/internal/mapping"
	"github.com/ledoux/bakehouse/internal/resolve"
	"github.com/ledoux/bakehouse/internal/schema"
	"github.com/ledoux/bakehouse/internal/tabular"
)

// Error is a per-row transformation failure. It is recorded against the row
// and never aborts the batch.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// Value is one coerced field of a candidate record. Text always carries the
// cleaned source string; for dates it doubles as the raw fallback when
// parsing failed on an optional field.
type Value struct {
	Kind      schema.FieldKind
	Text      string
	Number    float64
	Date      time.Time
	DateValid bool
}

// Record is the candidate entity produced from one row. EntityID is the
// resolved foreign key (zero for kinds without a cross-reference). Records
// are built fresh per row and never mutated after creation.
type Record struct {
	EntityID int64
	Fields   map[string]Value
}

// Row coerces a parsed row into a Record using the confirmed mapping.
// naturalKeyField names the field whose value fed the resolver; its column
// is skipped here because the foreign key comes from the resolution, not the
// row. Rows with a Failed resolution must not reach this function.
func Row(row tabular.Row, m mapping.Mapping, fields []schema.FieldSpec, naturalKeyField string, res resolve.Resolution) (*Record, error) {
	rec := &Record{
		EntityID: res.EntityID,
		Fields:   make(map[string]Value, len(fields)),
	}

	for _, f := range fields {
		if f.DBField == naturalKeyField {
			continue
		}

		raw := ""
		if header := m[f.DBField]; header != "" {
			raw = row.Values[header]
		}

		v := Value{Kind: f.Kind, Text: raw}

		switch f.Kind {
		case schema.FieldNumeric:
			// Optional numeric columns default to zero rather than fail
			// the row; a rough financial figure beats a lost one.
			v.Number = ParseAmount(raw)
		case schema.FieldDate:
			t, ok := ParseDate(raw)
			if ok {
				v.Date = t
				v.DateValid = true
			} else if f.Required {
				return nil, &Error{Field: f.DBField, Reason: fmt.Sprintf("unparsable date %q", raw)}
			}
			// Optional unparsable dates keep the raw text for manual
			// correction later.
		case schema.FieldText:
			if f.Required && raw == "" {
				return nil, &Error{Field: f.DBField, Reason: "required field is empty"}
			}
		}

		rec.Fields[f.DBField] = v
	}

	return rec, nil
}

// ParseAmount strips everything except digits, '.' and '-' and parses the
// remainder. Unparsable or empty input yields 0, never an error.
func ParseAmount(s string) float64 {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0
	}
	return f
}

// Date layouts tried after the day-first slash forms the predecessor tool
// wrote. Four-digit years only; the exports never used two-digit years.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2-1-2006", "02-01-2006",
	"2.1.2006", "02.01.2006",
	"Jan 2, 2006", "2 Jan 2006", "2 January 2006",
	"20060102",
}

// ParseDate parses s as a date. Slash-delimited input is read day-first
// (DD/MM/YYYY); other common forms are tried afterwards.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{"2/1/2006", "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
