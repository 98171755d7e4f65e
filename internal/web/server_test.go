package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"github.com/martinslog/integra-backend/internal/config"
	"github.com/martinslog/integra-backend/internal/configstore"
	"github.com/martinslog/integra-backend/internal/store"
	"github.com/martinslog/integra-backend/internal/web"
)

func newTestServer(t *testing.T) *web.Server {
	t.Helper()

	st, err := store.Open(config.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "api.db"),
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	err = st.WithTx(ctx, func(tx *sqlx.Tx) error {
		return configstore.Bootstrap(ctx, tx)
	})
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 30 * time.Second,
		},
		Rate: config.RateLimitConfig{Enabled: false},
	}
	return web.NewServer(st, cfg)
}

func doJSON(t *testing.T, srv *web.Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func doGet(t *testing.T, srv *web.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func integrationBody(nome string) map[string]any {
	return map[string]any{
		"nome":       nome,
		"setor":      "Produção",
		"integracao": "Sim",
		"supervisor": "carlos",
		"turno":      "1° Turno",
		"cargo":      "Operador 1",
	}
}

func createIntegration(t *testing.T, srv *web.Server, nome string) int64 {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/integration", integrationBody(nome))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create %q status = %d, body %s", nome, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	return int64(body["record_id"].(float64))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf(`body["status"] = %v`, body["status"])
	}
}

func TestCreateIntegration(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/integration", integrationBody("Ana"))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "accepted" {
		t.Errorf("status field = %v", body["status"])
	}
	if id := body["record_id"].(float64); id < 1 {
		t.Errorf("record_id = %v", id)
	}
	if body["submission_id"] == "" || body["submission_id"] == nil {
		t.Error("submission_id missing")
	}
	options, ok := body["options"].(map[string]any)
	if !ok {
		t.Fatalf("options = %T", body["options"])
	}
	if setores, ok := options["setores"].([]any); !ok || len(setores) == 0 {
		t.Errorf("options.setores = %v", options["setores"])
	}

	list := doGet(t, srv, "/api/integration/records")
	listBody := decodeBody(t, list)
	items := listBody["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d", len(items))
	}
	stored := items[0].(map[string]any)
	if stored["supervisor"] != "CARLOS" {
		t.Errorf("supervisor = %v, want upper-cased CARLOS", stored["supervisor"])
	}
}

func TestCreateIntegration_ValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	payload := integrationBody("Ana")
	delete(payload, "nome")
	rec := doJSON(t, srv, http.MethodPost, "/api/integration", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "O campo 'nome' é obrigatório." {
		t.Errorf("error = %v", body["error"])
	}

	payload = integrationBody("Ana")
	payload["data"] = "15/03/2024"
	rec = doJSON(t, srv, http.MethodPost, "/api/integration", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Data em formato inválido." {
		t.Errorf("bad date error = %v", body["error"])
	}
}

func TestCreateIntegration_MalformedBody(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/integration", []byte("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Não foi possível interpretar os dados enviados." {
		t.Errorf("error = %v", body["error"])
	}
}

func TestCreateIntegration_FormFallback(t *testing.T) {
	srv := newTestServer(t)

	form := url.Values{}
	for key, value := range integrationBody("Edu") {
		form.Set(key, value.(string))
	}
	req := httptest.NewRequest(http.MethodPost, "/api/integration",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateIntegration(t *testing.T) {
	srv := newTestServer(t)
	id := createIntegration(t, srv, "Ana")

	payload := integrationBody("Ana Maria")
	rec := doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/integration/records/%d", id), payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "updated" || int64(body["record_id"].(float64)) != id {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["options"].(map[string]any); !ok {
		t.Errorf("options = %T", body["options"])
	}

	list := doGet(t, srv, "/api/integration/records")
	items := decodeBody(t, list)["items"].([]any)
	if items[0].(map[string]any)["nome"] != "Ana Maria" {
		t.Errorf("nome after update = %v", items[0].(map[string]any)["nome"])
	}
}

func TestUpdateIntegration_NotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPut, "/api/integration/records/999", integrationBody("Ana"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/integration/records/abc", integrationBody("Ana"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("non-numeric id status = %d", rec.Code)
	}
}

func TestDeleteIntegration(t *testing.T) {
	srv := newTestServer(t)
	id := createIntegration(t, srv, "Ana")

	path := fmt.Sprintf("/api/integration/records/%d", id)
	req := httptest.NewRequest(http.MethodDelete, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "deleted" {
		t.Errorf("body = %v", body)
	}

	req = httptest.NewRequest(http.MethodDelete, path, nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d", rec.Code)
	}
}

func TestListIntegrations_SearchAndPagination(t *testing.T) {
	srv := newTestServer(t)
	for _, nome := range []string{"Ana Silva", "Bruno Costa", "Mariana Costa", "Caio Costa", "Dora Lima"} {
		createIntegration(t, srv, nome)
	}

	rec := doGet(t, srv, "/api/integration/records?search=costa&page_size=2&page=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	meta := body["pagination"].(map[string]any)
	if meta["total_items"].(float64) != 3 || meta["total_pages"].(float64) != 2 {
		t.Errorf("pagination = %v", meta)
	}
	if items := body["items"].([]any); len(items) != 2 {
		t.Errorf("len(items) = %d", len(items))
	}

	// A page beyond the end is clamped, never empty.
	rec = doGet(t, srv, "/api/integration/records?search=costa&page_size=2&page=50")
	body = decodeBody(t, rec)
	meta = body["pagination"].(map[string]any)
	if meta["page"].(float64) != 2 {
		t.Errorf("overflow page = %v", meta["page"])
	}
	if items := body["items"].([]any); len(items) != 1 {
		t.Errorf("last page len(items) = %d", len(items))
	}
}

func TestCreateOccurrence(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/occurrence", map[string]any{
		"nome":       "Bruno",
		"setor":      "Expedição",
		"cargo":      "Operador 2",
		"turno":      "2° Turno",
		"supervisor": "maria",
		"grau":       7,
		"grau_label": "7 - Alto",
		"motivo":     "Avaria de carga",
		"volumes":    "12",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["status"] != "accepted" {
		t.Errorf("status field = %v", body["status"])
	}

	list := doGet(t, srv, "/api/occurrence/records")
	items := decodeBody(t, list)["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d", len(items))
	}
	stored := items[0].(map[string]any)
	if stored["grau"].(float64) != 7 || stored["volumes"].(float64) != 12 {
		t.Errorf("stored = %v", stored)
	}
	if stored["supervisor"] != "MARIA" {
		t.Errorf("supervisor = %v", stored["supervisor"])
	}
}

func TestCreateOccurrence_InvalidGrau(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/occurrence", map[string]any{
		"nome":       "Bruno",
		"setor":      "Expedição",
		"cargo":      "Operador 2",
		"turno":      "2° Turno",
		"supervisor": "maria",
		"grau":       "alto",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Valor numérico inválido." {
		t.Errorf("error = %v", body["error"])
	}
}

func TestConfiguration(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/configuration")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	integration := body["integration"].(map[string]any)
	if setores := integration["setores"].([]any); len(setores) != 6 {
		t.Errorf("setores = %v", setores)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/configuration", map[string]any{
		"occurrence": map[string]any{"graus": []string{"A", "", "  B  ", "A"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rec.Code, rec.Body.String())
	}
	body = decodeBody(t, rec)
	graus := body["occurrence"].(map[string]any)["graus"].([]any)
	want := []string{"A", "B", "A"}
	if len(graus) != len(want) {
		t.Fatalf("graus = %v, want %v", graus, want)
	}
	for i := range want {
		if graus[i] != want[i] {
			t.Fatalf("graus = %v, want %v", graus, want)
		}
	}
}

func TestConfiguration_Guards(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/configuration",
		strings.NewReader("setores=Docas"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("form post status = %d, want 415", rec.Code)
	}

	rec2 := doJSON(t, srv, http.MethodPost, "/api/configuration", []byte(`[1, 2, 3]`))
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("array payload status = %d, want 400", rec2.Code)
	}
}

func TestExportIntegrations(t *testing.T) {
	srv := newTestServer(t)
	for _, nome := range []string{"Ana Silva", "Bruno Costa", "Mariana Costa"} {
		createIntegration(t, srv, nome)
	}

	rec := doGet(t, srv, "/api/integration/export?search=costa")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="integracoes_`) {
		t.Errorf("Content-Disposition = %q", got)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Integrações")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want header + 2 filtered records", len(rows))
	}

	// The export covers exactly the rows the list endpoint counts.
	list := doGet(t, srv, "/api/integration/records?search=costa")
	meta := decodeBody(t, list)["pagination"].(map[string]any)
	if int(meta["total_items"].(float64)) != len(rows)-1 {
		t.Errorf("export rows = %d, list total = %v", len(rows)-1, meta["total_items"])
	}
}

func TestExportOccurrences_EmptySet(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/occurrence/export")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, `filename="ocorrencias_`) {
		t.Errorf("Content-Disposition = %q", got)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Ocorrências")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("len(rows) = %d, want header only", len(rows))
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doGet(t, srv, "/api/health")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRateLimiting(t *testing.T) {
	st, err := store.Open(config.DatabaseConfig{
		Path:         filepath.Join(t.TempDir(), "api.db"),
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{RequestTimeout: 30 * time.Second},
		Rate:   config.RateLimitConfig{Enabled: true, RequestsPerMinute: 3},
	}
	srv := web.NewServer(st, cfg)

	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Real-IP", "10.0.0.9")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("fourth request status = %d, want 429", last)
	}
}
