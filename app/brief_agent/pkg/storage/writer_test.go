package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
)

func doc() *model.BriefDocument {
	return &model.BriefDocument{
		Date:           "2025-06-01",
		Ticker:         "ACME",
		SummaryBullets: []string{"a", "b", "c"},
		IRReleases:     []model.RawItem{{Title: "Q1", Source: "IR", Date: "2025-05-30"}},
		News:           []model.RawItem{{Title: "N", Source: "Reuters"}},
		Drivers:        []string{"d"},
		Risks:          []string{"r"},
		Limitations:    []string{"l"},
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestWriter_Persist(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	w := NewWriter(dir)

	paths, err := w.Persist(context.Background(), doc(), "# brief\n")
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if diff := cmp.Diff(w.PathsFor("ACME", "2025-06-01"), paths); diff != "" {
		t.Errorf("paths mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ACME_2025-06-01.json", "ACME_2025-06-01.md"}, listDir(t, dir)); diff != "" {
		t.Errorf("directory contents mismatch:\n%s", diff)
	}

	md, _ := os.ReadFile(paths.Markdown)
	if string(md) != "# brief\n" {
		t.Errorf("markdown = %q", md)
	}
	data, _ := os.ReadFile(paths.JSON)
	var got model.BriefDocument
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if diff := cmp.Diff(*doc(), got); diff != "" {
		t.Errorf("json round trip mismatch:\n%s", diff)
	}
}

func TestWriter_SecondRenameFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	calls := 0
	w.rename = func(oldpath, newpath string) error {
		calls++
		if strings.HasSuffix(newpath, ".json") {
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	}

	_, err := w.Persist(context.Background(), doc(), "# brief\n")
	if !errors.Is(err, model.ErrWriteFailed) {
		t.Fatalf("Persist() error = %v, want ErrWriteFailed", err)
	}
	if calls != 2 {
		t.Errorf("rename calls = %d, want 2", calls)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("leftover files: %v", names)
	}
}

func TestWriter_JSONRenameFailureKeepsPreviousPair(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	prev := w.PathsFor("ACME", "2025-06-01")
	if err := os.WriteFile(prev.Markdown, []byte("# previous\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(prev.JSON, []byte("{\"previous\":true}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.rename = func(oldpath, newpath string) error {
		if strings.HasSuffix(newpath, ".json") {
			return errors.New("disk full")
		}
		return os.Rename(oldpath, newpath)
	}

	if _, err := w.Persist(context.Background(), doc(), "# brief\n"); !errors.Is(err, model.ErrWriteFailed) {
		t.Fatalf("Persist() error = %v, want ErrWriteFailed", err)
	}
	md, _ := os.ReadFile(prev.Markdown)
	js, _ := os.ReadFile(prev.JSON)
	if string(md) != "# previous\n" || string(js) != "{\"previous\":true}\n" {
		t.Errorf("previous pair not preserved: md %q, json %q", md, js)
	}
	if diff := cmp.Diff([]string{"ACME_2025-06-01.json", "ACME_2025-06-01.md"}, listDir(t, dir)); diff != "" {
		t.Errorf("directory contents mismatch:\n%s", diff)
	}
}

func TestWriter_OverwritesPreviousPair(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	if _, err := w.Persist(context.Background(), doc(), "# first\n"); err != nil {
		t.Fatal(err)
	}
	paths, err := w.Persist(context.Background(), doc(), "# second\n")
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if md, _ := os.ReadFile(paths.Markdown); string(md) != "# second\n" {
		t.Errorf("markdown = %q", md)
	}
	if names := listDir(t, dir); len(names) != 2 {
		t.Errorf("leftover files: %v", names)
	}
}

func TestWriter_UnwritableDirectory(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewWriter(filepath.Join(blocker, "out")).Persist(context.Background(), doc(), "# brief\n")
	if !errors.Is(err, model.ErrWriteFailed) {
		t.Errorf("Persist() error = %v, want ErrWriteFailed", err)
	}
}

func TestWriter_CancelledBeforeRename(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewWriter(dir).Persist(ctx, doc(), "# brief\n"); !errors.Is(err, context.Canceled) {
		t.Errorf("Persist() error = %v, want context.Canceled", err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("leftover files: %v", names)
	}
}
