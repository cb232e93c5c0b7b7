package validator

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/render"
)

func validDoc() *model.BriefDocument {
	return &model.BriefDocument{
		Date:           "2025-06-01",
		Ticker:         "ACME",
		SummaryBullets: []string{"s1", "s2", "s3"},
		IRReleases:     []model.RawItem{{Title: "Q1", Source: "Acme IR", Date: "2025-05-30"}},
		News:           []model.RawItem{{Title: "Rally", Source: "Reuters"}},
		Drivers:        []string{"d1"},
		Risks:          []string{"r1"},
		Limitations:    []string{"l1"},
	}
}

func mustRender(t *testing.T, doc *model.BriefDocument, lang model.Language) string {
	t.Helper()
	md, err := render.Render(doc, render.Options{Language: lang})
	if err != nil {
		t.Fatal(err)
	}
	return md
}

func TestValidate_RenderedDocumentIsValid(t *testing.T) {
	for _, lang := range []model.Language{model.LangEN, model.LangFI} {
		doc := validDoc()
		v := New(3, 5, lang)
		got := v.Validate(doc, mustRender(t, doc, lang))
		if !got.Valid {
			t.Errorf("%s: Validate() reasons = %v", lang, got.Reasons)
		}
	}
}

func TestValidate_Shape(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *model.BriefDocument)
		want   string
	}{
		{"two bullets", func(d *model.BriefDocument) { d.SummaryBullets = d.SummaryBullets[:2] }, "summary_bullets has 2 items, want 3-6"},
		{"seven bullets", func(d *model.BriefDocument) {
			d.SummaryBullets = []string{"a", "b", "c", "d", "e", "f", "g"}
		}, "summary_bullets has 7 items, want 3-6"},
		{"blank bullet", func(d *model.BriefDocument) { d.SummaryBullets[1] = " " }, "summary_bullets[1] is blank"},
		{"no ir", func(d *model.BriefDocument) { d.IRReleases = nil }, "ir_releases is empty"},
		{"too many ir", func(d *model.BriefDocument) {
			d.IRReleases = append(d.IRReleases, d.IRReleases[0], d.IRReleases[0], d.IRReleases[0])
		}, "ir_releases has 4 items, max 3"},
		{"ir without date", func(d *model.BriefDocument) { d.IRReleases[0].Date = "" }, "ir_releases[0] has no valid date"},
		{"no news", func(d *model.BriefDocument) { d.News = []model.RawItem{} }, "news is empty"},
		{"no risks", func(d *model.BriefDocument) { d.Risks = nil }, "risks is empty"},
		{"bad date", func(d *model.BriefDocument) { d.Date = "June 1" }, `date "June 1" is not YYYY-MM-DD`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			tt.mutate(doc)
			got := New(3, 5, model.LangEN).Validate(doc, mustRender(t, doc, model.LangEN))
			if got.Valid {
				t.Fatal("Validate() valid = true")
			}
			if !contains(got.Reasons, tt.want) {
				t.Errorf("reasons = %v, want %q", got.Reasons, tt.want)
			}
		})
	}
}

func TestValidate_NewsURLAndDateOptional(t *testing.T) {
	doc := validDoc()
	doc.News = []model.RawItem{{Title: "No link", Source: "Blog"}}
	if got := New(3, 5, model.LangEN).Validate(doc, mustRender(t, doc, model.LangEN)); !got.Valid {
		t.Errorf("reasons = %v", got.Reasons)
	}
}

func TestValidate_AggregatesAllReasons(t *testing.T) {
	doc := validDoc()
	doc.SummaryBullets = []string{"only"}
	doc.Drivers = nil
	md := strings.Replace(mustRender(t, doc, model.LangEN), "## Risks\n", "## Riskz\n", 1)

	got := New(3, 5, model.LangEN).Validate(doc, md)
	for _, want := range []string{
		"summary_bullets has 1 items, want 3-6",
		"drivers is empty",
		"json: drivers must be an array",
		"missing heading: ## Risks",
	} {
		if !contains(got.Reasons, want) {
			t.Errorf("missing reason %q in %v", want, got.Reasons)
		}
	}
}

func TestValidate_Congruence(t *testing.T) {
	doc := validDoc()
	md := mustRender(t, doc, model.LangEN)
	md = strings.Replace(md, "- s2\n", "- s2 edited\n", 1)
	md = strings.Replace(md, "### Rally\n", "### Rally!\n", 1)

	got := New(3, 5, model.LangEN).Validate(doc, md)
	want := []string{
		`summary_bullets: "s2" is in JSON but not in Markdown`,
		`summary_bullets: "s2 edited" is in Markdown but not in JSON`,
		`news: "Rally" is in JSON but not in Markdown`,
		`news: "Rally!" is in Markdown but not in JSON`,
	}
	if diff := cmp.Diff(want, got.Reasons); diff != "" {
		t.Errorf("reasons mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_Order(t *testing.T) {
	doc := validDoc()
	md := mustRender(t, doc, model.LangEN)
	md = strings.Replace(md, "- s1\n- s2\n", "- s2\n- s1\n", 1)
	got := New(3, 5, model.LangEN).Validate(doc, md)
	if diff := cmp.Diff([]string{"summary_bullets: Markdown order differs from JSON"}, got.Reasons); diff != "" {
		t.Errorf("reasons mismatch:\n%s", diff)
	}
}

func TestValidate_WrongLanguageHeadings(t *testing.T) {
	doc := validDoc()
	got := New(3, 5, model.LangFI).Validate(doc, mustRender(t, doc, model.LangEN))
	if got.Valid || !contains(got.Reasons, "missing heading: ## Yhteenveto") {
		t.Errorf("reasons = %v", got.Reasons)
	}
}

func TestParseMarkdown_ItemBulletsNotCounted(t *testing.T) {
	md := "## IR Releases\n### A\n- **Date:** 2025-01-01\n- summary\n\n### B\n## Drivers\n- x\n- y\n"
	s := parseMarkdown(md)
	if diff := cmp.Diff([]string{"A", "B"}, s["IR Releases"].titles); diff != "" {
		t.Errorf("titles mismatch:\n%s", diff)
	}
	if len(s["IR Releases"].bullets) != 0 {
		t.Errorf("item detail lines counted as bullets: %v", s["IR Releases"].bullets)
	}
	if diff := cmp.Diff([]string{"x", "y"}, s["Drivers"].bullets); diff != "" {
		t.Errorf("bullets mismatch:\n%s", diff)
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
