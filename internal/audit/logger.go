package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// Logger persists every committed appointment event as an audit row.
type Logger struct {
	store Store
}

func New(store Store) *Logger {
	return &Logger{store: store}
}

func (l *Logger) Name() string { return "audit" }

func (l *Logger) Handle(ctx context.Context, ev events.Event) error {
	return l.Log(ctx, ev.ActorID, ev.ActorRole, string(ev.Type), "appointment", ev.Appointment.ID, metadataFor(ev))
}

func (l *Logger) Log(
	ctx context.Context,
	actorID uuid.UUID,
	actorRole string,
	action string,
	entity string,
	entityID uuid.UUID,
	metadata any,
) error {

	var metaJSON string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metaJSON = string(b)
		}
	}

	entry := models.AuditLog{
		ActorRole: actorRole,
		Action:    action,
		Entity:    entity,
		Metadata:  metaJSON,
	}
	if actorID != uuid.Nil {
		entry.ActorID = &actorID
	}
	if entityID != uuid.Nil {
		entry.EntityID = &entityID
	}

	return l.store.Create(ctx, &entry)
}

func metadataFor(ev events.Event) map[string]string {
	ap := ev.Appointment
	meta := map[string]string{
		"doctor_id":  ap.DoctorID.String(),
		"patient_id": ap.PatientID.String(),
		"date":       ap.Date.Format("2006-01-02"),
		"time":       ap.Time,
		"status":     ap.Status,
	}
	if ev.From != "" {
		meta["from"] = ev.From
	}
	if ev.To != "" {
		meta["to"] = ev.To
	}
	return meta
}

var _ events.Handler = (*Logger)(nil)
