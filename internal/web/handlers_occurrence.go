package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/martinslog/integra-backend/internal/configstore"
	"github.com/martinslog/integra-backend/internal/export"
	"github.com/martinslog/integra-backend/internal/logging"
	"github.com/martinslog/integra-backend/internal/record"
)

const (
	occurrenceNotFoundMsg = "Registro de ocorrência não encontrado."
	occurrenceSaveErrMsg  = "Erro ao salvar a ocorrência."
	occurrenceEditErrMsg  = "Erro ao atualizar a ocorrência."
	occurrenceDropErrMsg  = "Erro ao remover a ocorrência."
)

// handleCreateOccurrence validates and stores one disciplinary event.
func (s *Server) handleCreateOccurrence(w http.ResponseWriter, r *http.Request) {
	payload := extractPayload(r)
	if payload == nil {
		writeError(w, http.StatusBadRequest, payloadParseError)
		return
	}

	rec, err := record.NewOccurrence(payload, time.Now())
	if err != nil {
		s.respondError(w, r, err, occurrenceNotFoundMsg, occurrenceSaveErrMsg)
		return
	}

	ctx := r.Context()
	var options map[string][]string
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := record.InsertOccurrence(ctx, tx, rec); err != nil {
			return err
		}
		snapshot, err := configstore.Get(ctx, tx)
		if err != nil {
			return err
		}
		options = snapshot["occurrence"]
		return nil
	})
	if err != nil {
		s.respondError(w, r, err, occurrenceNotFoundMsg, occurrenceSaveErrMsg)
		return
	}

	envelope := record.BuildEnvelope(payload, "frontend")
	logging.FromContext(ctx).Info("occurrence registered",
		"record_id", rec.ID,
		"envelope", envelope,
		"supervisor", rec.Supervisor,
		"setor", rec.Setor,
	)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "accepted",
		"record_id": rec.ID,
		"options":   options,
	})
}

// handleListOccurrences returns one filtered, sorted page of records.
func (s *Server) handleListOccurrences(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r, "created_at")

	items, meta, err := record.List[record.OccurrenceRecord](
		r.Context(), s.store.DB(), record.OccurrenceSpec, params)
	if err != nil {
		s.respondError(w, r, err, occurrenceNotFoundMsg, "Erro ao listar ocorrências.")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: items, Pagination: meta})
}

// handleUpdateOccurrence applies a full-field overwrite to an existing
// record. The creation timestamp keeps its original value.
func (s *Server) handleUpdateOccurrence(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeError(w, http.StatusNotFound, occurrenceNotFoundMsg)
		return
	}
	payload := extractPayload(r)
	if payload == nil {
		writeError(w, http.StatusBadRequest, payloadParseError)
		return
	}

	ctx := r.Context()
	var options map[string][]string
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		rec, err := record.GetOccurrence(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := record.ApplyOccurrence(rec, payload); err != nil {
			return err
		}
		if err := record.UpdateOccurrence(ctx, tx, rec); err != nil {
			return err
		}
		snapshot, err := configstore.Get(ctx, tx)
		if err != nil {
			return err
		}
		options = snapshot["occurrence"]
		return nil
	})
	if err != nil {
		s.respondError(w, r, err, occurrenceNotFoundMsg, occurrenceEditErrMsg)
		return
	}

	logging.FromContext(ctx).Info("occurrence record updated", "record_id", id)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "updated",
		"record_id": id,
		"options":   options,
	})
}

// handleDeleteOccurrence removes one record by id.
func (s *Server) handleDeleteOccurrence(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeError(w, http.StatusNotFound, occurrenceNotFoundMsg)
		return
	}

	ctx := r.Context()
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		return record.DeleteOccurrence(ctx, tx, id)
	})
	if err != nil {
		s.respondError(w, r, err, occurrenceNotFoundMsg, occurrenceDropErrMsg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "deleted",
		"record_id": id,
	})
}

// handleExportOccurrences streams the full filtered result set as a
// styled spreadsheet.
func (s *Server) handleExportOccurrences(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	records, err := record.All[record.OccurrenceRecord](
		r.Context(), s.store.DB(), record.OccurrenceSpec,
		q.Get("sort_by"), q.Get("sort_order"), q.Get("search"))
	if err != nil {
		s.respondError(w, r, err, occurrenceNotFoundMsg, "Erro ao exportar ocorrências.")
		return
	}

	doc := export.Document{
		Title:      "Ocorrências",
		HeaderFill: "DC2626",
		Headers: []string{
			"ID", "Matrícula", "Colaborador", "Setor", "Cargo", "Turno", "Supervisor",
			"Motivo", "Grau", "Grau (valor)", "Volumes", "Observação", "Registrado em",
		},
	}
	for _, rec := range records {
		doc.Rows = append(doc.Rows, []any{
			rec.ID,
			orEmpty(rec.Matricula),
			rec.Nome,
			rec.Setor,
			rec.Cargo,
			rec.Turno,
			rec.Supervisor,
			orEmpty(rec.Motivo),
			orEmpty(rec.GrauLabel),
			orEmptyInt(rec.Grau),
			orEmptyInt(rec.Volumes),
			orEmpty(rec.Observacao),
			rec.CreatedAt.Format("02/01/2006 15:04"),
		})
	}

	buf, err := export.BuildBuffer(doc)
	if err != nil {
		s.respondError(w, r, err, occurrenceNotFoundMsg, "Erro ao exportar ocorrências.")
		return
	}

	filename := fmt.Sprintf("ocorrencias_%s.xlsx", time.Now().Format("20060102_150405"))
	sendWorkbook(w, buf, filename)
}
