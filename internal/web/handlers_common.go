package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/martinslog/integra-backend/internal/record"
)

// payloadParseError is returned to clients whose body could not be read
// as a JSON object or form field map.
const payloadParseError = "Não foi possível interpretar os dados enviados."

// extractPayload reads the request body as an untyped field map. JSON
// object bodies are preferred; form submissions are accepted as a
// fallback for older clients. Returns nil when neither yields fields.
func extractPayload(r *http.Request) record.Payload {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var data record.Payload
		if err := json.NewDecoder(r.Body).Decode(&data); err == nil && data != nil {
			return data
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return nil
	}
	if len(r.PostForm) == 0 {
		return nil
	}
	payload := record.Payload{}
	for key := range r.PostForm {
		payload[key] = r.PostForm.Get(key)
	}
	return payload
}

// parseListParams reads pagination, sort, and search query parameters.
// Unparseable numbers fall back to page 1 / page size 10; range clamping
// happens inside the query engine.
func parseListParams(r *http.Request, defaultSort string) record.ListParams {
	q := r.URL.Query()

	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		page = v
	}
	pageSize := record.DefaultPageSize
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil {
		pageSize = v
	}

	sortBy := q.Get("sort_by")
	if sortBy == "" {
		sortBy = defaultSort
	}
	sortOrder := q.Get("sort_order")
	if sortOrder == "" {
		sortOrder = "desc"
	}

	return record.ListParams{
		Page:      page,
		PageSize:  pageSize,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Search:    strings.TrimSpace(q.Get("search")),
	}
}

// recordID parses the {id} route parameter.
func recordID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// listResponse is the JSON shape of both record list endpoints.
type listResponse struct {
	Items      any               `json:"items"`
	Pagination record.Pagination `json:"pagination"`
}

// formatDate renders an ISO date for spreadsheet cells as DD/MM/YYYY.
func formatDate(iso *string) string {
	if iso == nil {
		return ""
	}
	parts := strings.SplitN(*iso, "-", 3)
	if len(parts) != 3 {
		return *iso
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

// orEmpty renders optional strings for spreadsheet cells: absent values
// become blank cells, never a null marker.
func orEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// orEmptyInt does the same for optional integers.
func orEmptyInt(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}

// sendWorkbook writes an xlsx buffer as an attachment download.
func sendWorkbook(w http.ResponseWriter, buf *bytes.Buffer, filename string) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("workbook write error", "error", err)
	}
}
