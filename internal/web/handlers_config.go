package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/martinslog/integra-backend/internal/configstore"
	"github.com/martinslog/integra-backend/internal/logging"
)

// handleGetConfiguration returns the full option list snapshot.
func (s *Server) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	snapshot, err := configstore.Get(r.Context(), s.store.DB())
	if err != nil {
		s.respondError(w, r, err, "", "Erro ao carregar configurações.")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// handleSaveConfiguration replaces the option list groups present in the
// payload; groups it does not mention are preserved as stored.
func (s *Server) handleSaveConfiguration(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, "Esperado payload JSON.")
		return
	}

	var payload configstore.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		writeError(w, http.StatusBadRequest, "Formato de payload inválido.")
		return
	}

	ctx := r.Context()
	var snapshot configstore.Snapshot
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		refreshed, err := configstore.Save(ctx, tx, payload)
		if err != nil {
			return err
		}
		snapshot = refreshed
		return nil
	})
	if err != nil {
		s.respondError(w, r, err, "", "Erro ao atualizar configurações.")
		return
	}

	logging.FromContext(ctx).Info("configuration saved", "groups", len(payload))
	writeJSON(w, http.StatusOK, snapshot)
}
