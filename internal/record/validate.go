package record

// validate.go maps untyped payload maps onto typed records.
//
// Field rules, applied identically on create and update:
//   - required strings: non-empty after trimming, stored trimmed
//   - supervisor: additionally upper-cased after trimming
//   - optional strings: trimmed, absent when blank
//   - optional integers: absent when blank, otherwise must parse
//   - optional dates: absent when blank, otherwise ISO calendar dates
//
// No business-rule checks happen here: a setor that is not in the
// configuration lists is accepted as free text.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// stringValue renders any payload value as a string, the way dynamic
// clients submit them (numbers for matricula, etc.).
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}

// requiredString trims the field and fails when it is absent or blank.
func requiredString(p Payload, field string) (string, error) {
	s := strings.TrimSpace(stringValue(p[field]))
	if s == "" {
		return "", requiredFieldError(field)
	}
	return s, nil
}

// optionalString trims the field, returning nil for absent or blank values
// so they store as NULL rather than as an empty string.
func optionalString(p Payload, field string) *string {
	s := strings.TrimSpace(stringValue(p[field]))
	if s == "" {
		return nil
	}
	return &s
}

// optionalInt parses the field as an integer. Blank or absent values are
// nil. A non-integral string fails; JSON numbers are truncated toward zero.
// No range is enforced even where the domain intends one (grau 0-10).
func optionalInt(p Payload, field string) (*int64, error) {
	v, ok := p[field]
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case float64:
		n := int64(t)
		return &n, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, invalidIntError(field)
		}
		return &n, nil
	default:
		return nil, invalidIntError(field)
	}
}

// optionalDate parses the field as an ISO calendar date, stored back in
// canonical YYYY-MM-DD form. Blank or absent values are nil.
func optionalDate(p Payload, field string) (*string, error) {
	s := strings.TrimSpace(stringValue(p[field]))
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, invalidDateError(field)
	}
	iso := d.Format(dateLayout)
	return &iso, nil
}

// NewIntegration validates a payload into a fresh integration record,
// stamping SubmittedAt with the current time.
func NewIntegration(p Payload, now time.Time) (*IntegrationRecord, error) {
	rec := &IntegrationRecord{SubmittedAt: now.UTC()}
	if err := applyIntegrationFields(rec, p); err != nil {
		return nil, err
	}
	return rec, nil
}

// ApplyIntegration overwrites every field of an existing integration
// record from the payload and refreshes SubmittedAt to the update time.
func ApplyIntegration(rec *IntegrationRecord, p Payload, now time.Time) error {
	if err := applyIntegrationFields(rec, p); err != nil {
		return err
	}
	rec.SubmittedAt = now.UTC()
	return nil
}

func applyIntegrationFields(rec *IntegrationRecord, p Payload) error {
	var err error
	if rec.Nome, err = requiredString(p, "nome"); err != nil {
		return err
	}
	if rec.Setor, err = requiredString(p, "setor"); err != nil {
		return err
	}
	if rec.Integracao, err = requiredString(p, "integracao"); err != nil {
		return err
	}
	if rec.Supervisor, err = requiredString(p, "supervisor"); err != nil {
		return err
	}
	rec.Supervisor = strings.ToUpper(rec.Supervisor)
	if rec.Turno, err = requiredString(p, "turno"); err != nil {
		return err
	}
	if rec.Cargo, err = requiredString(p, "cargo"); err != nil {
		return err
	}
	rec.Matricula = optionalString(p, "matricula")
	if rec.Data, err = optionalDate(p, "data"); err != nil {
		return err
	}
	rec.Observacao = optionalString(p, "observacao")
	return nil
}

// NewOccurrence validates a payload into a fresh occurrence record,
// stamping CreatedAt with the current time.
func NewOccurrence(p Payload, now time.Time) (*OccurrenceRecord, error) {
	rec := &OccurrenceRecord{CreatedAt: now.UTC()}
	if err := applyOccurrenceFields(rec, p); err != nil {
		return nil, err
	}
	return rec, nil
}

// ApplyOccurrence overwrites every field of an existing occurrence record
// from the payload. CreatedAt keeps its original value.
func ApplyOccurrence(rec *OccurrenceRecord, p Payload) error {
	return applyOccurrenceFields(rec, p)
}

func applyOccurrenceFields(rec *OccurrenceRecord, p Payload) error {
	var err error
	if rec.Nome, err = requiredString(p, "nome"); err != nil {
		return err
	}
	if rec.Setor, err = requiredString(p, "setor"); err != nil {
		return err
	}
	if rec.Cargo, err = requiredString(p, "cargo"); err != nil {
		return err
	}
	if rec.Turno, err = requiredString(p, "turno"); err != nil {
		return err
	}
	if rec.Supervisor, err = requiredString(p, "supervisor"); err != nil {
		return err
	}
	rec.Supervisor = strings.ToUpper(rec.Supervisor)
	rec.Matricula = optionalString(p, "matricula")
	rec.Motivo = optionalString(p, "motivo")
	if rec.Grau, err = optionalInt(p, "grau"); err != nil {
		return err
	}
	rec.GrauLabel = optionalString(p, "grau_label")
	if rec.Volumes, err = optionalInt(p, "volumes"); err != nil {
		return err
	}
	rec.Observacao = optionalString(p, "observacao")
	return nil
}
