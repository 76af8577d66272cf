package tabular

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantHeaders []string
		wantRows    int
	}{
		{
			name:        "simple file",
			raw:         "a,b,c\n1,2,3\n4,5,6\n",
			wantHeaders: []string{"a", "b", "c"},
			wantRows:    2,
		},
		{
			name:        "quoted fields stripped",
			raw:         "order,\"sell price\"\n\"1001\",45.00\n",
			wantHeaders: []string{"order", "sell price"},
			wantRows:    1,
		},
		{
			name:        "crlf endings",
			raw:         "a,b\r\n1,2\r\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    1,
		},
		{
			name:        "empty rows dropped",
			raw:         "a,b\n1,2\n,\n3,4\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    2,
		},
		{
			name:        "ragged rows dropped",
			raw:         "a,b,c\n1,2,3\n1,2\n1,2,3,4\n5,6,7\n",
			wantHeaders: []string{"a", "b", "c"},
			wantRows:    2,
		},
		{
			name:        "excel formula prefix",
			raw:         "a,b\n=\"0042\",x\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(got.Headers) != len(tt.wantHeaders) {
				t.Fatalf("headers = %v, want %v", got.Headers, tt.wantHeaders)
			}
			for i, h := range tt.wantHeaders {
				if got.Headers[i] != h {
					t.Errorf("headers[%d] = %q, want %q", i, got.Headers[i], h)
				}
			}
			if len(got.Rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(got.Rows), tt.wantRows)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{"", "   \n", ",,,\n1,2,3\n"} {
		_, err := Parse(raw)
		var merr *MalformedInputError
		if !errors.As(err, &merr) {
			t.Errorf("Parse(%q) error = %v, want MalformedInputError", raw, err)
		}
	}
}

// Dropped lines must not shift the numbering of later rows: operators use
// the reported line number to find the row in the original file.
func TestParsePreservesLineNumbers(t *testing.T) {
	raw := "a,b\n1,2\nragged\n,\n3,4\n"
	table, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(table.Rows))
	}
	if table.Rows[0].Line != 1 {
		t.Errorf("first row line = %d, want 1", table.Rows[0].Line)
	}
	if table.Rows[1].Line != 4 {
		t.Errorf("second row line = %d, want 4", table.Rows[1].Line)
	}
}

func TestParseDuplicateHeaderFirstWins(t *testing.T) {
	table, err := Parse("name,name\nfirst,second\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := table.Rows[0].Values["name"]; got != "first" {
		t.Errorf("values[name] = %q, want %q", got, "first")
	}
}

// Reserializing a parsed table and parsing again must yield the same headers
// and row count.
func TestParseRoundTrip(t *testing.T) {
	raw := "order_id,description,sell_price\n1001,\"Choc cake\",45.00\n1002,Tart,12.50\n"
	first, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var b strings.Builder
	b.WriteString(strings.Join(first.Headers, ",") + "\n")
	for _, row := range first.Rows {
		fields := make([]string, len(first.Headers))
		for i, h := range first.Headers {
			fields[i] = row.Values[h]
		}
		b.WriteString(strings.Join(fields, ",") + "\n")
	}

	second, err := Parse(b.String())
	if err != nil {
		t.Fatalf("reparse error = %v", err)
	}
	if len(second.Headers) != len(first.Headers) || len(second.Rows) != len(first.Rows) {
		t.Errorf("round trip changed shape: %d/%d headers, %d/%d rows",
			len(second.Headers), len(first.Headers), len(second.Rows), len(first.Rows))
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{`"quoted"`, "quoted"},
		{`="0042"`, "0042"},
		{"=SUM(A1)", "SUM(A1)"},
		{`"`, `"`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeUTF8(t *testing.T) {
	valid := []byte("hello world")
	if got := SanitizeUTF8(valid); string(got) != "hello world" {
		t.Errorf("valid input modified: %q", got)
	}
	if got := SanitizeUTF8([]byte("caf\xe9")); string(got) != "caf�" {
		t.Errorf("invalid byte not replaced: %q", got)
	}
}
