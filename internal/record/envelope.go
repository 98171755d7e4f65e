package record

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps an accepted submission with traceability metadata.
// It is reported back to the client and logged, never persisted.
type Envelope struct {
	SubmissionID string    `json:"submission_id"`
	Origin       string    `json:"origin"`
	ReceivedAt   time.Time `json:"received_at"`
}

// BuildEnvelope derives a submission id from the payload when the client
// provided one (submission_id, id, or matricula, in that order) and
// generates a uuid otherwise.
func BuildEnvelope(p Payload, origin string) Envelope {
	id := strings.TrimSpace(stringValue(p["submission_id"]))
	if id == "" {
		id = strings.TrimSpace(stringValue(p["id"]))
	}
	if id == "" {
		id = strings.TrimSpace(stringValue(p["matricula"]))
	}
	if id == "" {
		id = uuid.NewString()
	}
	if origin == "" {
		origin = "frontend"
	}
	return Envelope{
		SubmissionID: id,
		Origin:       strings.ToLower(origin),
		ReceivedAt:   time.Now().UTC(),
	}
}

// LogValue lets an envelope serialize into structured log entries.
func (e Envelope) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("submission_id", e.SubmissionID),
		slog.String("origin", e.Origin),
		slog.Time("received_at", e.ReceivedAt),
	)
}
