package record

// repo.go is the persistence layer for both record kinds. Functions take
// an sqlx.ExtContext so they run against the pool for reads and inside
// the caller's transaction for writes; commit and rollback stay with the
// surrounding scope.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InsertIntegration stores a validated integration record and fills in
// its assigned id.
func InsertIntegration(ctx context.Context, ext sqlx.ExtContext, rec *IntegrationRecord) error {
	res, err := ext.ExecContext(ctx, `INSERT INTO integration_records
		(matricula, nome, setor, integracao, supervisor, turno, cargo, data, observacao, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Matricula, rec.Nome, rec.Setor, rec.Integracao, rec.Supervisor,
		rec.Turno, rec.Cargo, rec.Data, rec.Observacao, rec.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert integration record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("integration record id: %w", err)
	}
	rec.ID = id
	return nil
}

// GetIntegration loads one integration record or ErrNotFound.
func GetIntegration(ctx context.Context, ext sqlx.ExtContext, id int64) (*IntegrationRecord, error) {
	var rec IntegrationRecord
	err := sqlx.GetContext(ctx, ext, &rec,
		`SELECT * FROM integration_records WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load integration record %d: %w", id, err)
	}
	return &rec, nil
}

// UpdateIntegration persists a full-field overwrite of an existing record.
func UpdateIntegration(ctx context.Context, ext sqlx.ExtContext, rec *IntegrationRecord) error {
	_, err := ext.ExecContext(ctx, `UPDATE integration_records SET
		matricula = ?, nome = ?, setor = ?, integracao = ?, supervisor = ?,
		turno = ?, cargo = ?, data = ?, observacao = ?, submitted_at = ?
		WHERE id = ?`,
		rec.Matricula, rec.Nome, rec.Setor, rec.Integracao, rec.Supervisor,
		rec.Turno, rec.Cargo, rec.Data, rec.Observacao, rec.SubmittedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("update integration record %d: %w", rec.ID, err)
	}
	return nil
}

// DeleteIntegration removes a record, reporting ErrNotFound for unknown ids.
func DeleteIntegration(ctx context.Context, ext sqlx.ExtContext, id int64) error {
	res, err := ext.ExecContext(ctx, `DELETE FROM integration_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete integration record %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete integration record %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertOccurrence stores a validated occurrence record and fills in its
// assigned id.
func InsertOccurrence(ctx context.Context, ext sqlx.ExtContext, rec *OccurrenceRecord) error {
	res, err := ext.ExecContext(ctx, `INSERT INTO occurrence_records
		(matricula, nome, setor, cargo, turno, supervisor, motivo, grau, grau_label, volumes, observacao, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Matricula, rec.Nome, rec.Setor, rec.Cargo, rec.Turno, rec.Supervisor,
		rec.Motivo, rec.Grau, rec.GrauLabel, rec.Volumes, rec.Observacao, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert occurrence record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("occurrence record id: %w", err)
	}
	rec.ID = id
	return nil
}

// GetOccurrence loads one occurrence record or ErrNotFound.
func GetOccurrence(ctx context.Context, ext sqlx.ExtContext, id int64) (*OccurrenceRecord, error) {
	var rec OccurrenceRecord
	err := sqlx.GetContext(ctx, ext, &rec,
		`SELECT * FROM occurrence_records WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load occurrence record %d: %w", id, err)
	}
	return &rec, nil
}

// UpdateOccurrence persists a full-field overwrite of an existing record.
func UpdateOccurrence(ctx context.Context, ext sqlx.ExtContext, rec *OccurrenceRecord) error {
	_, err := ext.ExecContext(ctx, `UPDATE occurrence_records SET
		matricula = ?, nome = ?, setor = ?, cargo = ?, turno = ?, supervisor = ?,
		motivo = ?, grau = ?, grau_label = ?, volumes = ?, observacao = ?
		WHERE id = ?`,
		rec.Matricula, rec.Nome, rec.Setor, rec.Cargo, rec.Turno, rec.Supervisor,
		rec.Motivo, rec.Grau, rec.GrauLabel, rec.Volumes, rec.Observacao, rec.ID)
	if err != nil {
		return fmt.Errorf("update occurrence record %d: %w", rec.ID, err)
	}
	return nil
}

// DeleteOccurrence removes a record, reporting ErrNotFound for unknown ids.
func DeleteOccurrence(ctx context.Context, ext sqlx.ExtContext, id int64) error {
	res, err := ext.ExecContext(ctx, `DELETE FROM occurrence_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete occurrence record %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete occurrence record %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
