package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
)

func TestCustomFormatter(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "回退到确定性后端",
		Data:    logrus.Fields{"mode": "openai", "b": 1},
	}
	out, err := (&CustomFormatter{}).Format(entry)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	want := "[2025-06-01 09:30:00] [WARN] [] 回退到确定性后端 b=1 mode=openai\n"
	if string(out) != want {
		t.Errorf("Format() = %q, want %q", out, want)
	}
}

func TestInitLogger_WritesFile(t *testing.T) {
	old := Log
	t.Cleanup(func() { Log = old })

	path := filepath.Join(t.TempDir(), "nested", "app.log")
	if err := InitLogger("debug", path); err != nil {
		t.Fatalf("InitLogger() error = %v", err)
	}
	Log.Debug("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[DEBU]") || !strings.Contains(string(data), "hello") {
		t.Errorf("log file = %q", data)
	}
}

func TestRunLedger_Record(t *testing.T) {
	var buf bytes.Buffer
	l := NewRunLedgerWriter(&buf)

	l.Record(RunRecord{RunID: "r1", Ticker: "ACME", Date: "2025-06-01", ModeRequested: "openai", ModeUsed: "deterministic", Attempts: 1, Verdict: "done"})
	l.Record(RunRecord{RunID: "r2", Ticker: "ACME", Verdict: "failed", Reasons: []string{"a", "b"}, Error: "validation failed", Markdown: "# x"})

	sc := bufio.NewScanner(&buf)
	var lines []map[string]any
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %q", sc.Text())
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0]["mode_used"] != "deterministic" || lines[0]["event"] != "run" {
		t.Errorf("first record = %v", lines[0])
	}
	if _, ok := lines[0]["markdown"]; ok {
		t.Error("markdown should be omitted on success")
	}
	if diff := cmp.Diff([]any{"a", "b"}, lines[1]["reasons"]); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
	if lines[1]["markdown"] != "# x" {
		t.Errorf("markdown = %v", lines[1]["markdown"])
	}
}

func TestNewRunLedger_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	for i := 0; i < 2; i++ {
		l, err := NewRunLedger(path)
		if err != nil {
			t.Fatal(err)
		}
		l.Record(RunRecord{RunID: "r", Verdict: "done"})
		if err := l.Close(); err != nil {
			t.Fatal(err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Errorf("ledger has %d lines, want 2", n)
	}
}
