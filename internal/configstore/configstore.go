// Package configstore holds the dynamically editable option lists used to
// populate client-side forms. Lists are keyed by (scope, key) and kept in
// submission order through a dense position column.
package configstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Snapshot maps scope -> key -> ordered option values.
type Snapshot map[string]map[string][]string

// Entry is one stored option value. Position is the zero-based rank of
// the value within its (scope, key) group.
type Entry struct {
	ID        int64     `db:"id"`
	Scope     string    `db:"scope"`
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	Position  int       `db:"position"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Defaults seeds every group that is empty at startup. The scopes are
// open-ended: saving an unknown scope or key simply creates a new group.
var Defaults = Snapshot{
	"integration": {
		"setores": {
			"Produção",
			"Controle de estoque",
			"Expedição",
			"Qualidade",
			"Recebimento",
			"SME",
		},
		"cargos":      {"Operador 1", "Operador 2", "Operador 3"},
		"turnos":      {"1° Turno", "2° Turno"},
		"integracoes": {"Sim", "Não"},
	},
	"occurrence": {
		"turnos": {"1° Turno", "2° Turno", "3° Turno"},
		"graus": {
			"0 - Muito baixo",
			"1 - Baixo",
			"2 - Baixo moderado",
			"3 - Atenção",
			"4 - Relevante",
			"5 - Moderado",
			"6 - Significativo",
			"7 - Alto",
			"8 - Muito alto",
			"9 - Crítico",
			"10 - Muito grave",
		},
	},
}

// Get returns the full configuration snapshot. Default keys are always
// present, possibly as empty lists; groups beyond the defaults appear as
// stored. Values follow position order within each group.
func Get(ctx context.Context, ext sqlx.ExtContext) (Snapshot, error) {
	snapshot := Snapshot{}
	for scope, groups := range Defaults {
		snapshot[scope] = map[string][]string{}
		for key := range groups {
			snapshot[scope][key] = []string{}
		}
	}

	var entries []Entry
	err := sqlx.SelectContext(ctx, ext, &entries,
		`SELECT * FROM config_entries ORDER BY scope, key, position`)
	if err != nil {
		return nil, fmt.Errorf("load config entries: %w", err)
	}
	for _, entry := range entries {
		groups, ok := snapshot[entry.Scope]
		if !ok {
			groups = map[string][]string{}
			snapshot[entry.Scope] = groups
		}
		groups[entry.Key] = append(groups[entry.Key], entry.Value)
	}
	return snapshot, nil
}

// Save replaces every (scope, key) group present in the payload: values
// are trimmed, blanks dropped, and the group's rows deleted and recreated
// so stored order exactly reproduces the cleaned input. Groups the
// payload does not mention are untouched. Returns the refreshed snapshot.
func Save(ctx context.Context, ext sqlx.ExtContext, payload Snapshot) (Snapshot, error) {
	for scope, groups := range payload {
		for key, values := range groups {
			cleaned := make([]string, 0, len(values))
			for _, v := range values {
				if trimmed := strings.TrimSpace(v); trimmed != "" {
					cleaned = append(cleaned, trimmed)
				}
			}
			if err := replaceEntries(ctx, ext, scope, key, cleaned); err != nil {
				return nil, err
			}
		}
	}
	return Get(ctx, ext)
}

// Bootstrap seeds each default group that has zero rows. Groups with any
// stored value are left alone, so repeated calls never overwrite edits.
func Bootstrap(ctx context.Context, ext sqlx.ExtContext) error {
	for scope, groups := range Defaults {
		for key, values := range groups {
			var n int
			err := sqlx.GetContext(ctx, ext, &n,
				`SELECT COUNT(*) FROM config_entries WHERE scope = ? AND key = ?`, scope, key)
			if err != nil {
				return fmt.Errorf("check config group %s/%s: %w", scope, key, err)
			}
			if n > 0 {
				continue
			}
			if err := replaceEntries(ctx, ext, scope, key, values); err != nil {
				return err
			}
		}
	}
	return nil
}

// replaceEntries atomically swaps a group's rows for the given values in
// order. Callers run it inside a transaction.
func replaceEntries(ctx context.Context, ext sqlx.ExtContext, scope, key string, values []string) error {
	if _, err := ext.ExecContext(ctx,
		`DELETE FROM config_entries WHERE scope = ? AND key = ?`, scope, key); err != nil {
		return fmt.Errorf("clear config group %s/%s: %w", scope, key, err)
	}
	now := time.Now().UTC()
	for position, value := range values {
		if _, err := ext.ExecContext(ctx,
			`INSERT INTO config_entries (scope, key, value, position, updated_at)
			VALUES (?, ?, ?, ?, ?)`, scope, key, value, position, now); err != nil {
			return fmt.Errorf("insert config entry %s/%s[%d]: %w", scope, key, position, err)
		}
	}
	return nil
}
