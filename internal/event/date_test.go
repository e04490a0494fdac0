package event

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func TestParseSchemaADate(t *testing.T) {
	tests := []struct {
		name     string
		year     string
		monthDay string
		want     *Date
	}{
		{"slash separator", "2024", "03/15", &Date{2024, time.March, 15}},
		{"dot separator", "2024", "03.15", &Date{2024, time.March, 15}},
		{"single digits", "2024", "3/5", &Date{2024, time.March, 5}},
		{"leap day", "2024", "02/29", &Date{2024, time.February, 29}},
		{"full-width digits", "２０２４", "０３/１５", &Date{2024, time.March, 15}},
		{"not a leap year", "2023", "02/29", nil},
		{"month 13", "2024", "13/01", nil},
		{"day 32", "2024", "01/32", nil},
		{"empty year", "", "03/15", nil},
		{"empty month-day", "2024", "", nil},
		{"both empty", "", "", nil},
		{"two digit year", "24", "03/15", nil},
		{"trailing weekday", "2024", "03/15(金)", nil},
		{"non numeric", "year", "mm/dd", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSchemaADate(tt.year, tt.monthDay)
			assertDate(t, fmt.Sprintf("ParseSchemaADate(%q, %q)", tt.year, tt.monthDay), got, tt.want)
		})
	}
}

func TestParseSchemaADate_AllDaysOfLeapYear(t *testing.T) {
	for d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		got := ParseSchemaADate("2024", d.Format("01/02"))
		want := DateOf(d)
		if got == nil || *got != want {
			t.Fatalf("ParseSchemaADate(2024, %s) = %v, want %v", d.Format("01/02"), got, want)
		}
	}
}

func TestParseSchemaBDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *Date
	}{
		{"with weekday", "2024.03.15 (Fri)", &Date{2024, time.March, 15}},
		{"exact length", "2024.03.15", &Date{2024, time.March, 15}},
		{"range keeps first date", "2024.03.15(金)～2024.03.17(日)", &Date{2024, time.March, 15}},
		{"full-width", "２０２４．０３．１５（金）", &Date{2024, time.March, 15}},
		{"invalid day", "2024.02.30 (Fri)", nil},
		{"short garbage", "TBA", nil},
		{"empty", "", nil},
		{"slash separated", "2024/03/15", nil},
		{"japanese date", "2024年3月15日", nil},
		{"single digit month eats separator", "2024.3.15(金)", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSchemaBDate(tt.raw)
			assertDate(t, fmt.Sprintf("ParseSchemaBDate(%q)", tt.raw), got, tt.want)
		})
	}
}

func TestParseSchemaBDate_OnlyFirstTenCharactersMatter(t *testing.T) {
	suffixes := []string{"", " ", " (Fri)", "xxxxxxxxxxxxxxxx", "～2099.12.31"}
	for _, suffix := range suffixes {
		got := ParseSchemaBDate("2024.03.15" + suffix)
		if got == nil || got.String() != "2024-03-15" {
			t.Errorf("ParseSchemaBDate(%q) = %v, want 2024-03-15", "2024.03.15"+suffix, got)
		}
	}
}

func TestDate_JSON(t *testing.T) {
	d := Date{2024, time.March, 5}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2024-03-05"` {
		t.Errorf("Marshal() = %s, want \"2024-03-05\"", data)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != d {
		t.Errorf("Unmarshal() = %v, want %v", back, d)
	}

	if err := json.Unmarshal([]byte(`"not a date"`), &back); err == nil {
		t.Error("Unmarshal() expected error for invalid date")
	}
}

func TestRecord_JSONNullDate(t *testing.T) {
	rec := &Record{Title: "x", Source: Source}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"date", "venue", "url", "image_url"} {
		v, ok := raw[key]
		if !ok {
			t.Errorf("expected key %q to be present", key)
		}
		if v != nil {
			t.Errorf("expected %q to be null, got %v", key, v)
		}
	}
}

func TestDate_Scan(t *testing.T) {
	want := Date{2024, time.March, 15}

	tests := []struct {
		name    string
		src     interface{}
		wantErr bool
	}{
		{"time", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), false},
		{"string", "2024-03-15", false},
		{"bytes", []byte("2024-03-15"), false},
		{"timestamp string", "2024-03-15T00:00:00Z", false},
		{"int", 20240315, true},
		{"garbage", "garbage", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := d.Scan(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan(%v) error = %v, wantErr %v", tt.src, err, tt.wantErr)
			}
			if !tt.wantErr && d != want {
				t.Errorf("Scan(%v) = %v, want %v", tt.src, d, want)
			}
		})
	}
}

func assertDate(t *testing.T, call string, got, want *Date) {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Errorf("%s = %v, want nil", call, got)
		}
		return
	}
	if got == nil {
		t.Errorf("%s = nil, want %v", call, want)
		return
	}
	if *got != *want {
		t.Errorf("%s = %v, want %v", call, got, want)
	}
}
