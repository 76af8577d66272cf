// Package tabular turns raw delimited text into ordered headers and row
// records. It has no knowledge of the business entities the rows will become.
package tabular

import (
	"fmt"
	"strings"
)

// DefaultDelimiter is the field separator used by predecessor-tool exports.
const DefaultDelimiter = ","

// MalformedInputError indicates the file is unparsable at the header level.
// No partial preview is possible; the import session cannot start.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

// Row is a single data line keyed by header name. Line is the 1-based data
// row number counted before ragged and empty rows are dropped, so failure
// reports match the numbering the operator sees in the source file.
type Row struct {
	Line   int
	Values map[string]string
}

// Table holds the parsed headers and surviving data rows in file order.
type Table struct {
	Headers []string
	Rows    []Row
}

// Parse splits raw delimited text into a Table using the default delimiter.
func Parse(raw string) (*Table, error) {
	return ParseDelim(raw, DefaultDelimiter)
}

// ParseDelim splits raw text on the given delimiter. Fields wrapped in
// matching double quotes have the quotes stripped; embedded delimiters and
// nested quotes are not supported (the exports this handles never escape).
//
// Data lines whose token count differs from the header count are dropped,
// as are lines where every field is empty. Dropped lines still consume a
// line number so later rows keep their original positions.
func ParseDelim(raw string, delim string) (*Table, error) {
	lines := splitLines(raw)
	if len(lines) == 0 {
		return nil, &MalformedInputError{Reason: "file is empty"}
	}

	headers := splitFields(lines[0], delim)
	if !hasHeaderToken(headers) {
		return nil, &MalformedInputError{Reason: "first line has no usable header"}
	}

	t := &Table{Headers: headers}

	for i, line := range lines[1:] {
		fields := splitFields(line, delim)

		// Ragged exports are tolerated by skipping the bad line rather
		// than failing the whole file.
		if len(fields) != len(headers) {
			continue
		}
		if allEmpty(fields) {
			continue
		}

		values := make(map[string]string, len(headers))
		for j, h := range headers {
			// First occurrence wins for duplicate headers.
			if _, seen := values[h]; seen {
				continue
			}
			values[h] = fields[j]
		}
		t.Rows = append(t.Rows, Row{Line: i + 1, Values: values})
	}

	return t, nil
}

// splitLines breaks raw text into lines, tolerating CRLF endings and a
// trailing newline.
func splitLines(raw string) []string {
	raw = strings.TrimPrefix(raw, "\ufeff")
	raw = strings.TrimRight(raw, "\n")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	lines := strings.Split(raw, "\n")
	for i := range lines {
		lines[i] = strings.TrimSuffix(lines[i], "\r")
	}
	return lines
}

// splitFields tokenizes one line and cleans each field.
func splitFields(line string, delim string) []string {
	parts := strings.Split(line, delim)
	fields := make([]string, len(parts))
	for i, p := range parts {
		fields[i] = CleanCell(p)
	}
	return fields
}

func hasHeaderToken(headers []string) bool {
	for _, h := range headers {
		if h != "" {
			return true
		}
	}
	return false
}

func allEmpty(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
