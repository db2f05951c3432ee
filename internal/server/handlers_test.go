package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/norsteel/takeoff/internal/catalog"
	"github.com/norsteel/takeoff/internal/config"
	"github.com/norsteel/takeoff/internal/document"
	"github.com/norsteel/takeoff/internal/export"
	"github.com/norsteel/takeoff/internal/extraction"
	"github.com/norsteel/takeoff/internal/models"
	"github.com/norsteel/takeoff/internal/pipeline"
	"github.com/norsteel/takeoff/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Extraction.UseMock = true
	cfg.Catalog.DatabasePath = filepath.Join(dir, "catalog.db")
	cfg.Catalog.BleveIndexPath = filepath.Join(dir, "catalog.bleve")
	cfg.Export.OutputDir = filepath.Join(dir, "exports")

	cat, err := catalog.NewSQLiteStore(&cfg.Catalog)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cat.Close() })
	seedCatalog(t, cat)

	st, err := store.NewSQLiteStore(filepath.Join(dir, "results.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	p := pipeline.New(cfg, pipeline.Deps{
		Source:    document.NewFileSource(),
		Extractor: extraction.NewMock(),
		Catalog:   cat,
		Store:     st,
	})
	srv := NewServer(p, st, cat, export.NewExporter(&cfg.Export), cfg, zap.NewNop())
	return srv.routes()
}

func seedCatalog(t *testing.T, cat catalog.Store) {
	t.Helper()
	mats := []models.Material{
		{
			ID: "m1", Code: "P-6-40", Category: models.CategoryPipe,
			Description:  `PIPE 6" SCH40 ASTM A106 GR.B SEAMLESS`,
			NPSInch:      models.FloatPtr(6),
			Schedule:     models.StrPtr("40"),
			SpecStandard: models.StrPtr("A106"),
			Grade:        models.StrPtr("GR.B"),
			Form:         models.StrPtr("seamless"),
		},
		{
			ID: "m2", Code: "P-2-80", Category: models.CategoryPipe,
			Description:  `PIPE 2" SCH80 ASTM A106 GR.B SEAMLESS`,
			NPSInch:      models.FloatPtr(2),
			Schedule:     models.StrPtr("80"),
			SpecStandard: models.StrPtr("A106"),
			Grade:        models.StrPtr("GR.B"),
			Form:         models.StrPtr("seamless"),
		},
	}
	if err := cat.BatchUpsertMaterials(context.Background(), mats); err != nil {
		t.Fatal(err)
	}
}

// takeoffUpload is a three-page text document the mock extractor can parse.
func takeoffUpload() []byte {
	cover := "TABLE OF CONTENTS\n1. Scope\n2. Take-off\n"
	notes := "This enquiry covers piping supply for the revamp project.\n"
	table := strings.Join([]string{
		"MATERIAL TAKE OFF  SHEET 3",
		`10  | PIPE 6" SCH40 ASTM A106 GR.B SEAMLESS  | 25  | M`,
		`20  | PIPE 2" SCH80 ASTM A106 GR.B SEAMLESS  | 12  | M`,
	}, "\n")
	return []byte(cover + "\f" + notes + "\f" + table)
}

func uploadRequest(t *testing.T, content []byte, filename string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func ingestTestDocument(t *testing.T, h http.Handler) *pipeline.Summary {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, uploadRequest(t, takeoffUpload(), "takeoff.txt"))
	if w.Code != http.StatusCreated {
		t.Fatalf("ingest status: got %d, body %s", w.Code, w.Body.String())
	}
	var summary pipeline.Summary
	if err := json.NewDecoder(w.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	return &summary
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body: %s", w.Body.String())
	}
}

func TestHandleIngestDocument(t *testing.T) {
	h := newTestServer(t)
	summary := ingestTestDocument(t, h)

	if summary.Document.Status != models.StatusCompleted {
		t.Errorf("status = %q, want %q", summary.Document.Status, models.StatusCompleted)
	}
	if len(summary.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(summary.Items))
	}
	for _, mi := range summary.Items {
		if mi.Outcome.Decision != models.DecisionAuto {
			t.Errorf("item %q decision = %q, want auto", mi.Item.Description, mi.Outcome.Decision)
		}
	}
}

func TestHandleIngestDocument_missingFile(t *testing.T) {
	h := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader("not multipart"))
	h.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleGetDocument(t *testing.T) {
	h := newTestServer(t)
	summary := ingestTestDocument(t, h)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+summary.Document.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var doc models.Document
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.ID != summary.Document.ID || doc.ItemCount != 2 {
		t.Errorf("doc: id=%q item_count=%d", doc.ID, doc.ItemCount)
	}
}

func TestHandleGetDocument_notFound(t *testing.T) {
	h := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}
}

func TestHandleGetItems(t *testing.T) {
	h := newTestServer(t)
	summary := ingestTestDocument(t, h)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+summary.Document.ID+"/items", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		DocumentID string               `json:"document_id"`
		Items      []models.MatchedItem `json:"items"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.DocumentID != summary.Document.ID || len(out.Items) != 2 {
		t.Errorf("items response: id=%q count=%d", out.DocumentID, len(out.Items))
	}
}

func TestHandleListDocuments(t *testing.T) {
	h := newTestServer(t)
	ingestTestDocument(t, h)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents?limit=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Documents []models.Document `json:"documents"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Documents) != 1 {
		t.Errorf("got %d documents, want 1", len(out.Documents))
	}
}

func TestHandleListDocuments_badLimit(t *testing.T) {
	h := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents?limit=zero", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleMatch(t *testing.T) {
	h := newTestServer(t)

	body, _ := json.Marshal(models.MergedLineItem{
		ExtractedLineItem: models.ExtractedLineItem{
			Description: `PIPE 6" SCH40 ASTM A106 GR.B SEAMLESS`,
		},
	})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/match", bytes.NewReader(body))
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var outcome models.MatchOutcome
	if err := json.NewDecoder(w.Body).Decode(&outcome); err != nil {
		t.Fatal(err)
	}
	if outcome.Decision != models.DecisionAuto {
		t.Errorf("decision = %q, want auto (candidates %v)", outcome.Decision, outcome.Candidates)
	}
	if outcome.Selected == nil || outcome.Selected.MaterialCode != "P-6-40" {
		t.Errorf("selected = %+v, want P-6-40", outcome.Selected)
	}
}

func TestHandleMatch_missingDescription(t *testing.T) {
	h := newTestServer(t)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/match", strings.NewReader(`{}`))
	h.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleExportDocument(t *testing.T) {
	h := newTestServer(t)
	summary := ingestTestDocument(t, h)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+summary.Document.ID+"/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type: %q", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Line Items")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("exported %d rows, want 3 (header + 2 items)", len(rows))
	}
}

func TestHandleStatus(t *testing.T) {
	h := newTestServer(t)
	ingestTestDocument(t, h)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Documents int64                  `json:"documents"`
		Items     int64                  `json:"items"`
		Materials int64                  `json:"materials"`
		Config    map[string]interface{} `json:"config"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Documents != 1 || out.Items != 2 || out.Materials != 2 {
		t.Errorf("counts: documents=%d items=%d materials=%d", out.Documents, out.Items, out.Materials)
	}
	if out.Config["extraction_mock"] != true {
		t.Errorf("config echo missing extraction_mock: %v", out.Config)
	}
}
