package server

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/engine"
	"github.com/iWorld-y/ir_brief/app/brief_agent/pkg/model"
	"github.com/iWorld-y/ir_brief/app/display/internal/conf"
	"github.com/iWorld-y/ir_brief/app/display/internal/data"
	"github.com/iWorld-y/ir_brief/app/display/internal/domain"
	"github.com/iWorld-y/ir_brief/app/display/internal/service"
	"github.com/iWorld-y/ir_brief/app/display/internal/usecase"
)

type stubGenerator struct{}

func (stubGenerator) Run(ctx context.Context, req model.BriefRequest, opts engine.RunOptions) (*model.RunResult, error) {
	return &model.RunResult{ModeUsed: "deterministic"}, nil
}

func newTestServer(t *testing.T) (*http.Server, *usecase.BriefUseCase) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ACME_2025-06-01.md"), []byte("# Company Brief: ACME\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, cleanup, err := data.NewData(dir, log.DefaultLogger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cleanup)

	uc := usecase.NewBriefUseCase(data.NewBriefRepo(d, log.DefaultLogger), stubGenerator{}, 0, 0, log.DefaultLogger)
	srv := NewHTTPServer(&conf.Server{Http: &conf.HTTP{Timeout: "5s"}}, service.NewBriefService(uc, log.DefaultLogger), log.DefaultLogger)
	return srv, uc
}

func do(srv *http.Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHTTP_ListAndGetBriefs(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, nethttp.MethodGet, "/api/briefs", "")
	if w.Code != 200 {
		t.Fatalf("GET /api/briefs status = %d, body %s", w.Code, w.Body)
	}
	var list service.ListBriefsReply
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || list.Briefs[0].Name != "ACME_2025-06-01" {
		t.Errorf("list = %+v", list)
	}

	w = do(srv, nethttp.MethodGet, "/api/briefs/ACME_2025-06-01.md", "")
	if w.Code != 200 || !strings.HasPrefix(w.Body.String(), "# Company Brief: ACME") {
		t.Errorf("GET brief status = %d, body %q", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("Content-Type = %q", ct)
	}

	if w = do(srv, nethttp.MethodGet, "/api/briefs/ACME_2025-06-02.md", ""); w.Code != 404 {
		t.Errorf("missing brief status = %d", w.Code)
	}
}

func TestHTTP_Generate(t *testing.T) {
	srv, uc := newTestServer(t)

	w := do(srv, nethttp.MethodPost, "/api/generate", `{"ticker":"acme","date":"2025-06-01","mode":"demo"}`)
	if w.Code != 202 {
		t.Fatalf("POST /api/generate status = %d, body %s", w.Code, w.Body)
	}
	var job domain.Job
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatal(err)
	}
	if job.ID == "" || job.Ticker != "ACME" {
		t.Errorf("job = %+v", job)
	}
	uc.Wait()

	w = do(srv, nethttp.MethodGet, "/api/jobs/"+job.ID, "")
	if w.Code != 200 || !strings.Contains(w.Body.String(), `"status":"completed"`) {
		t.Errorf("GET job status = %d, body %s", w.Code, w.Body)
	}

	if w = do(srv, nethttp.MethodPost, "/api/generate", `{"ticker":"","date":"2025-06-01"}`); w.Code != 400 {
		t.Errorf("invalid generate status = %d", w.Code)
	}
}

func TestHTTP_Tickers(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(srv, nethttp.MethodGet, "/api/tickers?q=oyj&limit=2", "")
	if w.Code != 200 {
		t.Fatalf("GET /api/tickers status = %d", w.Code)
	}
	var reply service.TickersReply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatal(err)
	}
	if len(reply.Tickers) != 2 {
		t.Errorf("tickers = %+v", reply.Tickers)
	}
}
