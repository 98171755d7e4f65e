package record

// query.go is the generic filter/sort/paginate engine shared by both
// record kinds. The same WHERE clause drives the count query and the data
// query, so pagination metadata always agrees with the returned page.

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Pagination bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// ListSpec parameterizes the engine for one record table.
type ListSpec struct {
	Table         string
	SortColumns   map[string]string // whitelisted sort field -> column
	DefaultSort   string            // column used when the sort field is unknown
	SearchColumns []string          // columns matched by the free-text search
}

// ListParams are the caller-supplied query knobs, pre-clamping.
type ListParams struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
	Search    string
}

// Pagination describes the resolved page of a list result.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// IntegrationSpec drives listing and export of integration records.
var IntegrationSpec = ListSpec{
	Table: "integration_records",
	SortColumns: map[string]string{
		"id":           "id",
		"matricula":    "matricula",
		"nome":         "nome",
		"setor":        "setor",
		"cargo":        "cargo",
		"turno":        "turno",
		"integracao":   "integracao",
		"supervisor":   "supervisor",
		"data":         "data",
		"submitted_at": "submitted_at",
	},
	DefaultSort: "submitted_at",
	SearchColumns: []string{
		"matricula", "nome", "setor", "cargo", "turno", "integracao", "supervisor",
	},
}

// OccurrenceSpec drives listing and export of occurrence records.
var OccurrenceSpec = ListSpec{
	Table: "occurrence_records",
	SortColumns: map[string]string{
		"id":         "id",
		"matricula":  "matricula",
		"nome":       "nome",
		"setor":      "setor",
		"cargo":      "cargo",
		"turno":      "turno",
		"motivo":     "motivo",
		"grau":       "grau",
		"volumes":    "volumes",
		"supervisor": "supervisor",
		"created_at": "created_at",
	},
	DefaultSort: "created_at",
	SearchColumns: []string{
		"matricula", "nome", "setor", "cargo", "turno", "motivo", "supervisor", "observacao",
	},
}

// List returns one page of records plus pagination metadata.
//
// Page is clamped to >= 1 and, once the filtered total is known, down to
// the last valid page so the reported page never exceeds total_pages.
// PageSize is clamped to [1, MaxPageSize], defaulting to DefaultPageSize
// on out-of-range input. An empty result reports total_pages = 1 to keep
// client pagination non-degenerate.
func List[T any](ctx context.Context, ext sqlx.ExtContext, spec ListSpec, p ListParams) ([]T, Pagination, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize < 1 || pageSize > MaxPageSize {
		if pageSize > MaxPageSize {
			pageSize = MaxPageSize
		} else {
			pageSize = DefaultPageSize
		}
	}

	where, args := spec.searchClause(p.Search)

	var totalItems int64
	countQuery := "SELECT COUNT(*) FROM " + spec.Table + where
	if err := sqlx.GetContext(ctx, ext, &totalItems, countQuery, args...); err != nil {
		return nil, Pagination{}, fmt.Errorf("count %s: %w", spec.Table, err)
	}

	totalPages := 0
	if totalItems > 0 {
		totalPages = int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	}
	if totalPages > 0 {
		if page > totalPages {
			page = totalPages
		}
	} else {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s LIMIT ? OFFSET ?",
		spec.Table, where, spec.orderClause(p.SortBy, p.SortOrder))
	dataArgs := append(append([]any{}, args...), pageSize, offset)

	items := []T{}
	if err := sqlx.SelectContext(ctx, ext, &items, query, dataArgs...); err != nil {
		return nil, Pagination{}, fmt.Errorf("select %s: %w", spec.Table, err)
	}

	meta := Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
	if meta.TotalPages == 0 {
		meta.TotalPages = 1
	}
	return items, meta, nil
}

// All returns the complete filtered and sorted result set, unpaginated.
// The export path uses it so the spreadsheet always covers the same rows
// the list endpoint counts.
func All[T any](ctx context.Context, ext sqlx.ExtContext, spec ListSpec, sortBy, sortOrder, search string) ([]T, error) {
	where, args := spec.searchClause(search)
	query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s",
		spec.Table, where, spec.orderClause(sortBy, sortOrder))

	items := []T{}
	if err := sqlx.SelectContext(ctx, ext, &items, query, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", spec.Table, err)
	}
	return items, nil
}

// searchClause builds the case-insensitive substring filter over the
// kind's text columns, OR-joined. A blank term yields no clause.
func (spec ListSpec) searchClause(search string) (string, []any) {
	term := strings.TrimSpace(search)
	if term == "" {
		return "", nil
	}
	pattern := "%" + strings.ToLower(term) + "%"
	parts := make([]string, len(spec.SearchColumns))
	args := make([]any, len(spec.SearchColumns))
	for i, col := range spec.SearchColumns {
		parts[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return " WHERE (" + strings.Join(parts, " OR ") + ")", args
}

// orderClause resolves the sort field against the whitelist, falling back
// to the default column for unknown names. Only an explicit "asc" (any
// case) sorts ascending.
func (spec ListSpec) orderClause(sortBy, sortOrder string) string {
	col, ok := spec.SortColumns[sortBy]
	if !ok {
		col = spec.DefaultSort
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(sortOrder), "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}
