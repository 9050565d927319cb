package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"scadenze/internal/core"
)

func TestParseSeriesParams(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    core.SeriesOptions
		wantErr bool
	}{
		{"defaults", url.Values{}, core.SeriesOptions{}, false},
		{"both values provided", url.Values{"year": {"2024"}, "limit": {"6"}}, core.SeriesOptions{Year: 2024, Limit: 6}, false},
		{"whitespace is trimmed", url.Values{"year": {" 2023 "}}, core.SeriesOptions{Year: 2023}, false},
		{"invalid year", url.Values{"year": {"abc"}}, core.SeriesOptions{}, true},
		{"invalid limit", url.Values{"limit": {"1.5"}}, core.SeriesOptions{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeriesParams(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSeriesParams() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !core.IsValidation(err) {
				t.Errorf("error %v is not a validation error", err)
			}
			if got != tt.want {
				t.Errorf("ParseSeriesParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMonthParam(t *testing.T) {
	tests := []struct {
		month   string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"2024-02", "2024-02", false},
		{" 2024-12 ", "2024-12", false},
		{"2024-13", "", true},
		{"2024-2", "", true},
		{"february", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMonthParam(url.Values{"month": {tt.month}})
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMonthParam(%q) = %q, %v", tt.month, got, err)
		}
	}
}

func TestQueryEntryType(t *testing.T) {
	tests := []struct {
		raw     string
		want    core.EntryType
		wantErr bool
	}{
		{"", "", false},
		{"expense", core.Expense, false},
		{"INCOME", core.Income, false},
		{"receivable", core.Receivable, false},
		{"gift", "", true},
	}
	for _, tt := range tests {
		got, err := queryEntryType(url.Values{"type": {tt.raw}})
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("queryEntryType(%q) = %q, %v", tt.raw, got, err)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"valid", `{"name":"rent"}`, "rent", false},
		{"empty", ``, "", true},
		{"unknown field", `{"name":"rent","extra":1}`, "", true},
		{"two objects", `{"name":"a"} {"name":"b"}`, "", true},
		{"wrong type", `{"name":42}`, "", true},
		{"array", `[]`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !core.IsValidation(err) {
					t.Errorf("error %v is not a validation error", err)
				}
				return
			}
			if p.Name != tt.want {
				t.Errorf("Name = %q, want %q", p.Name, tt.want)
			}
		})
	}
}

func TestAmountInput(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`"12.34"`, "12.34", false},
		{`"12,34"`, "12,34", false},
		{`12.5`, "12.5", false},
		{`100`, "100", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tt := range tests {
		var a amountInput
		err := json.Unmarshal([]byte(tt.raw), &a)
		if (err != nil) != tt.wantErr || string(a) != tt.want {
			t.Errorf("amountInput(%s) = %q, %v", tt.raw, a, err)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Groceries", "Groceries"},
		{"trims", "  Rent  ", "Rent"},
		{"drops control chars", "Car\x00 insurance\x07", "Car insurance"},
		{"keeps tabs and newlines", "a\tb\nc", "a\tb\nc"},
		{"unicode", "Caffè ☕", "Caffè ☕"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.input); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
