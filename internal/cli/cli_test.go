package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

const (
	ticketItemFixture = "../../testdata/fixtures/ticket_item.html"
	ticketListFixture = "../../testdata/fixtures/ticket_list.html"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	out, err := execute(t, "extract", "--input", ticketListFixture, "--schema", "ticket-list", "--format", "json")
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}

	var result OutputResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if result.Schema != "ticket-list" || result.CardsFound != 3 || result.EventCount != 3 {
		t.Errorf("result = schema %q, %d cards, %d events", result.Schema, result.CardsFound, result.EventCount)
	}
	if result.Events[0].URL == nil || *result.Events[0].URL != "https://eplus.jp/sf/detail/3999990001" {
		t.Errorf("first URL = %v", result.Events[0].URL)
	}
}

func TestExtractCommandSorted(t *testing.T) {
	out, err := execute(t, "extract", "--input", ticketItemFixture, "--sort", "title")
	if err != nil {
		t.Fatalf("extract error = %v", err)
	}
	if !strings.Contains(out, "Total: 3 events (3 cards)") {
		t.Errorf("unexpected text output:\n%s", out)
	}
	if strings.Index(out, "Live Show") > strings.Index(out, "金沢ジャズストリート") {
		t.Errorf("records not sorted by title:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "extract without input", args: []string{"extract"}, wantErr: "input"},
		{name: "bad format", args: []string{"extract", "--input", ticketItemFixture, "--format", "xml"}, wantErr: "invalid format"},
		{name: "bad sort", args: []string{"extract", "--input", ticketItemFixture, "--sort", "state"}, wantErr: "invalid sort order"},
		{name: "bad schema", args: []string{"extract", "--input", ticketItemFixture, "--schema", "grid"}, wantErr: "schema"},
		{name: "migrate needs sql sink", args: []string{"migrate", "--sink", "dry-run"}, wantErr: "postgres or sqlite"},
		{name: "run with unknown sink", args: []string{"run", "--input", ticketItemFixture, "--sink", "mongo"}, wantErr: "unknown sink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestRunCommandDryRun(t *testing.T) {
	out, err := execute(t, "run", "--input", ticketItemFixture, "--sink", "dry-run", "--format", "json")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}

	var result OutputResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if result.Sink != "dry-run" || result.Persisted != 3 || result.EventCount != 3 {
		t.Errorf("result = sink %q, %d persisted, %d events", result.Sink, result.Persisted, result.EventCount)
	}
}

func TestRunCommandSQLite(t *testing.T) {
	t.Setenv("EPLUS_SQLITE_PATH", t.TempDir()+"/events.db")

	out, err := execute(t, "run", "--input", ticketItemFixture, "--sink", "sqlite", "--mode", "upsert")
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !strings.Contains(out, "3 saved to sqlite") {
		t.Errorf("unexpected output:\n%s", out)
	}

	out, err = execute(t, "migrate", "--sink", "sqlite")
	if err != nil {
		t.Fatalf("migrate error = %v", err)
	}
	if !strings.Contains(out, "sqlite schema at version 1") {
		t.Errorf("unexpected migrate output: %q", out)
	}
}
