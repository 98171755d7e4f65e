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
	integrationNotFoundMsg = "Registro de integração não encontrado."
	integrationSaveErrMsg  = "Erro ao salvar a integração."
	integrationEditErrMsg  = "Erro ao atualizar a integração."
	integrationDropErrMsg  = "Erro ao remover a integração."
)

// handleDescribeIntegration exposes metadata about the submission
// endpoint along with the current integration option lists.
func (s *Server) handleDescribeIntegration(w http.ResponseWriter, r *http.Request) {
	snapshot, err := configstore.Get(r.Context(), s.store.DB())
	if err != nil {
		s.respondError(w, r, err, integrationNotFoundMsg, "Erro ao carregar configurações.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service":             "integration-backend",
		"description":         "Recebe cargas do formulário de integração de colaboradores.",
		"accepted_methods":    []string{"POST"},
		"endpoint":            "/api/integration",
		"content_type":        "application/json",
		"payload_expectation": "Objeto JSON com dados de colaboradores e metadados opcionais.",
		"options":             snapshot["integration"],
	})
}

// handleCreateIntegration validates and stores one onboarding event.
func (s *Server) handleCreateIntegration(w http.ResponseWriter, r *http.Request) {
	payload := extractPayload(r)
	if payload == nil {
		writeError(w, http.StatusBadRequest, payloadParseError)
		return
	}

	rec, err := record.NewIntegration(payload, time.Now())
	if err != nil {
		s.respondError(w, r, err, integrationNotFoundMsg, integrationSaveErrMsg)
		return
	}

	ctx := r.Context()
	var options map[string][]string
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := record.InsertIntegration(ctx, tx, rec); err != nil {
			return err
		}
		snapshot, err := configstore.Get(ctx, tx)
		if err != nil {
			return err
		}
		options = snapshot["integration"]
		return nil
	})
	if err != nil {
		s.respondError(w, r, err, integrationNotFoundMsg, integrationSaveErrMsg)
		return
	}

	envelope := record.BuildEnvelope(payload, "frontend")
	logging.FromContext(ctx).Info("integration submission accepted",
		"record_id", rec.ID,
		"envelope", envelope,
		"supervisor", rec.Supervisor,
		"setor", rec.Setor,
	)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":        "accepted",
		"record_id":     rec.ID,
		"submission_id": envelope.SubmissionID,
		"received_at":   envelope.ReceivedAt,
		"options":       options,
	})
}

// handleListIntegrations returns one filtered, sorted page of records.
func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	params := parseListParams(r, "submitted_at")

	items, meta, err := record.List[record.IntegrationRecord](
		r.Context(), s.store.DB(), record.IntegrationSpec, params)
	if err != nil {
		s.respondError(w, r, err, integrationNotFoundMsg, "Erro ao listar integrações.")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Items: items, Pagination: meta})
}

// handleUpdateIntegration applies a full-field overwrite to an existing
// record, refreshing its submission timestamp.
func (s *Server) handleUpdateIntegration(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeError(w, http.StatusNotFound, integrationNotFoundMsg)
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
		rec, err := record.GetIntegration(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := record.ApplyIntegration(rec, payload, time.Now()); err != nil {
			return err
		}
		if err := record.UpdateIntegration(ctx, tx, rec); err != nil {
			return err
		}
		snapshot, err := configstore.Get(ctx, tx)
		if err != nil {
			return err
		}
		options = snapshot["integration"]
		return nil
	})
	if err != nil {
		s.respondError(w, r, err, integrationNotFoundMsg, integrationEditErrMsg)
		return
	}

	logging.FromContext(ctx).Info("integration record updated", "record_id", id)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "updated",
		"record_id": id,
		"options":   options,
	})
}

// handleDeleteIntegration removes one record by id.
func (s *Server) handleDeleteIntegration(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(r)
	if !ok {
		writeError(w, http.StatusNotFound, integrationNotFoundMsg)
		return
	}

	ctx := r.Context()
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		return record.DeleteIntegration(ctx, tx, id)
	})
	if err != nil {
		s.respondError(w, r, err, integrationNotFoundMsg, integrationDropErrMsg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "deleted",
		"record_id": id,
	})
}

// handleExportIntegrations streams the full filtered result set as a
// styled spreadsheet. Same filter and sort parameters as the list
// endpoint, no pagination.
func (s *Server) handleExportIntegrations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	records, err := record.All[record.IntegrationRecord](
		r.Context(), s.store.DB(), record.IntegrationSpec,
		q.Get("sort_by"), q.Get("sort_order"), q.Get("search"))
	if err != nil {
		s.respondError(w, r, err, integrationNotFoundMsg, "Erro ao exportar integrações.")
		return
	}

	doc := export.Document{
		Title:      "Integrações",
		HeaderFill: "2563EB",
		Headers: []string{
			"ID", "Matrícula", "Colaborador", "Setor", "Cargo", "Turno",
			"Integração", "Supervisor", "Data integração", "Observação", "Registrado em",
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
			rec.Integracao,
			rec.Supervisor,
			formatDate(rec.Data),
			orEmpty(rec.Observacao),
			rec.SubmittedAt.Format("02/01/2006 15:04"),
		})
	}

	buf, err := export.BuildBuffer(doc)
	if err != nil {
		s.respondError(w, r, err, integrationNotFoundMsg, "Erro ao exportar integrações.")
		return
	}

	filename := fmt.Sprintf("integracoes_%s.xlsx", time.Now().Format("20060102_150405"))
	sendWorkbook(w, buf, filename)
}
