// Package record holds the two event record shapes, the payload
// validation pipeline that produces them, their repositories, and the
// generic paginated query engine shared by both kinds.
package record

import "time"

// IntegrationRecord is one onboarding event.
// Optional fields are pointers so absence serializes as JSON null and
// stores as SQL NULL, never as an empty string.
type IntegrationRecord struct {
	ID          int64     `db:"id" json:"id"`
	Matricula   *string   `db:"matricula" json:"matricula"`
	Nome        string    `db:"nome" json:"nome"`
	Setor       string    `db:"setor" json:"setor"`
	Integracao  string    `db:"integracao" json:"integracao"`
	Supervisor  string    `db:"supervisor" json:"supervisor"`
	Turno       string    `db:"turno" json:"turno"`
	Cargo       string    `db:"cargo" json:"cargo"`
	Data        *string   `db:"data" json:"data"`
	Observacao  *string   `db:"observacao" json:"observacao"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
}

// OccurrenceRecord is one disciplinary event.
type OccurrenceRecord struct {
	ID         int64     `db:"id" json:"id"`
	Matricula  *string   `db:"matricula" json:"matricula"`
	Nome       string    `db:"nome" json:"nome"`
	Setor      string    `db:"setor" json:"setor"`
	Cargo      string    `db:"cargo" json:"cargo"`
	Turno      string    `db:"turno" json:"turno"`
	Supervisor string    `db:"supervisor" json:"supervisor"`
	Motivo     *string   `db:"motivo" json:"motivo"`
	Grau       *int64    `db:"grau" json:"grau"`
	GrauLabel  *string   `db:"grau_label" json:"grau_label"`
	Volumes    *int64    `db:"volumes" json:"volumes"`
	Observacao *string   `db:"observacao" json:"observacao"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Payload is an untyped inbound field map, as decoded from a JSON body.
type Payload map[string]any
