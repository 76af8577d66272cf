package tabular

import (
	"bytes"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first sheet of an XLSX workbook into a Table. The
// first row is treated as the header row. Short rows are padded with empty
// fields because excelize trims trailing blank cells; unlike delimited text
// a short XLSX row is genuinely blank at the end, not misaligned.
func ParseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &MalformedInputError{Reason: "not a readable workbook: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &MalformedInputError{Reason: "workbook has no sheets"}
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &MalformedInputError{Reason: "reading sheet: " + err.Error()}
	}
	if len(records) == 0 {
		return nil, &MalformedInputError{Reason: "sheet is empty"}
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = CleanCell(h)
	}
	if !hasHeaderToken(headers) {
		return nil, &MalformedInputError{Reason: "first row has no usable header"}
	}

	t := &Table{Headers: headers}

	for i, rec := range records[1:] {
		fields := make([]string, len(headers))
		for j := range headers {
			if j < len(rec) {
				fields[j] = CleanCell(rec[j])
			}
		}
		if allEmpty(fields) {
			continue
		}

		values := make(map[string]string, len(headers))
		for j, h := range headers {
			if _, seen := values[h]; seen {
				continue
			}
			values[h] = fields[j]
		}
		t.Rows = append(t.Rows, Row{Line: i + 1, Values: values})
	}

	return t, nil
}
