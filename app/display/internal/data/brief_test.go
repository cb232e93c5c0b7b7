package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/go-cmp/cmp"
)

func newTestRepo(t *testing.T, files ...string) *briefRepo {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(f), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	d, cleanup, err := NewData(dir, log.DefaultLogger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cleanup)
	return NewBriefRepo(d, log.DefaultLogger).(*briefRepo)
}

func TestBriefRepo_ListBriefs(t *testing.T) {
	r := newTestRepo(t,
		"ACME_2025-06-01.md", "ACME_2025-06-01.json",
		"NOKIA.HE_2025-06-02.md",
		"AAPL_2025-06-01.json",
		"notes.txt", "ACME_latest.md", ".ACME_2025-06-01.md.tmp",
	)

	got, err := r.ListBriefs(context.Background())
	if err != nil {
		t.Fatalf("ListBriefs() error = %v", err)
	}
	var names []string
	for _, s := range got {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"NOKIA.HE_2025-06-02", "AAPL_2025-06-01", "ACME_2025-06-01"}, names); diff != "" {
		t.Errorf("ListBriefs() mismatch (-want +got):\n%s", diff)
	}
	if acme := got[2]; !acme.HasJSON || !acme.HasMD || acme.Ticker != "ACME" {
		t.Errorf("ACME summary = %+v", acme)
	}
}

func TestBriefRepo_GetBrief(t *testing.T) {
	r := newTestRepo(t, "ACME_2025-06-01.md", "ACME_2025-06-01.json")

	f, err := r.GetBrief(context.Background(), "ACME_2025-06-01.json")
	if err != nil {
		t.Fatalf("GetBrief() error = %v", err)
	}
	if f.ContentType != "application/json" || string(f.Content) != "ACME_2025-06-01.json" {
		t.Errorf("GetBrief() = %+v", f)
	}

	tests := []struct {
		name string
		code int
	}{
		{"ACME_2025-06-02.md", 404},
		{"../ACME_2025-06-01.md", 400},
		{"ACME_2025-06-01.txt", 400},
		{"ACME.md", 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.GetBrief(context.Background(), tt.name)
			if got := errors.Code(err); got != tt.code {
				t.Errorf("GetBrief(%q) code = %d, want %d (err %v)", tt.name, got, tt.code, err)
			}
		})
	}
}
