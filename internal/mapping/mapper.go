// Package mapping proposes and validates associations between internal
// fields and source file headers.
//
// The proposal is a best-effort heuristic; operator confirmation is
// mandatory before a commit, so a wrong guess costs a click, not data.
package mapping

import (
	"fmt"
	"strings"
)

// Mapping associates a DBField with the source header feeding it. An absent
// or empty entry means the field is unmapped.
type Mapping map[string]string

// Field is the minimal view of a field spec the mapper needs. Keeping the
// matcher independent of the schema package lets it be swapped for a smarter
// strategy without touching the session state machine.
type Field struct {
	DBField     string
	DisplayName string
	Required    bool
}

// MissingRequiredFieldsError lists required fields with no mapped header.
// It blocks only the transition to commit; the operator corrects and retries.
type MissingRequiredFieldsError struct {
	Fields []string
}

func (e *MissingRequiredFieldsError) Error() string {
	return fmt.Sprintf("required fields not mapped: %s", strings.Join(e.Fields, ", "))
}

// Propose matches headers to fields case-insensitively: exact display-name
// match first, then header-contains-display, then display-contains-header.
// Fields are tried in declaration order and each header satisfies at most
// one field. Propose is a pure function of its inputs.
func Propose(headers []string, fields []Field) Mapping {
	m := make(Mapping, len(fields))
	for _, f := range fields {
		m[f.DBField] = ""
	}

	taken := make(map[string]bool, len(headers))

	for _, h := range headers {
		if h == "" || taken[h] {
			continue
		}
		lh := strings.ToLower(h)

		match := ""
		for pass := 0; pass < 3 && match == ""; pass++ {
			for _, f := range fields {
				if m[f.DBField] != "" {
					continue
				}
				ld := strings.ToLower(f.DisplayName)
				ok := false
				switch pass {
				case 0:
					ok = lh == ld
				case 1:
					ok = strings.Contains(lh, ld)
				case 2:
					ok = strings.Contains(ld, lh)
				}
				if ok {
					match = f.DBField
					break
				}
			}
		}

		if match != "" {
			m[match] = h
			taken[h] = true
		}
	}

	return m
}

// Apply returns a copy of m with dbField mapped to header (empty string
// unmaps it). Any header already feeding another field is released from it:
// a header may feed at most one field.
func Apply(m Mapping, dbField, header string) Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	if header != "" {
		for k, v := range out {
			if v == header && k != dbField {
				out[k] = ""
			}
		}
	}
	out[dbField] = header
	return out
}

// Validate returns MissingRequiredFieldsError when any required field is
// unmapped. Optional fields never block.
func Validate(m Mapping, fields []Field) error {
	var missing []string
	for _, f := range fields {
		if f.Required && m[f.DBField] == "" {
			missing = append(missing, f.DBField)
		}
	}
	if len(missing) > 0 {
		return &MissingRequiredFieldsError{Fields: missing}
	}
	return nil
}

// HasHeader reports whether header occurs in headers. Used to reject
// overrides that reference columns the file does not have.
func HasHeader(headers []string, header string) bool {
	for _, h := range headers {
		if h == header {
			return true
		}
	}
	return false
}
