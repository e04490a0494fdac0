package scraper

import (
	"encoding/json"
	"testing"
)

func TestParseSchema(t *testing.T) {
	tests := []struct {
		in      string
		want    Schema
		wantErr bool
	}{
		{"a", SchemaA, false},
		{"ticket-item", SchemaA, false},
		{" Ticket-Item ", SchemaA, false},
		{"b", SchemaB, false},
		{"ticket-list", SchemaB, false},
		{"c", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSchema(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSchema(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSchema(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSchema_TextRoundTrip(t *testing.T) {
	data, err := json.Marshal(struct {
		S Schema `json:"s"`
	}{SchemaB})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"s":"ticket-list"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var back struct {
		S Schema `json:"s"`
	}
	if err := json.Unmarshal([]byte(`{"s":"a"}`), &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.S != SchemaA {
		t.Errorf("Unmarshal() = %v, want SchemaA", back.S)
	}
}

func TestSchema_String(t *testing.T) {
	if SchemaA.String() != "ticket-item" || SchemaB.String() != "ticket-list" {
		t.Errorf("unexpected names: %s %s", SchemaA, SchemaB)
	}
	if Schema(7).String() != "Schema(7)" {
		t.Errorf("unknown schema String() = %s", Schema(7))
	}
}
