package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// PatientSnapshot is the part of the booking a doctor needs to see.
type PatientSnapshot struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func SnapshotOf(ap models.Appointment) PatientSnapshot {
	return PatientSnapshot{FullName: ap.FullName, Email: ap.Email, Phone: ap.Phone}
}

// Notifier tells a doctor about a booking or a reschedule. Delivery is
// best effort.
type Notifier interface {
	Notify(ctx context.Context, kind events.Type, doctorID uuid.UUID, ap models.Appointment, patient PatientSnapshot) error
}

// Message is the payload handed to the delivery service.
type Message struct {
	Event         string          `json:"event"`
	DoctorID      uuid.UUID       `json:"doctor_id"`
	AppointmentID uuid.UUID       `json:"appointment_id"`
	Date          string          `json:"date"`
	Time          string          `json:"time"`
	Department    string          `json:"department"`
	Status        string          `json:"status"`
	Patient       PatientSnapshot `json:"patient"`
	CreatedAt     time.Time       `json:"created_at"`
}

func messageFor(kind events.Type, doctorID uuid.UUID, ap models.Appointment, patient PatientSnapshot) Message {
	return Message{
		Event:         string(kind),
		DoctorID:      doctorID,
		AppointmentID: ap.ID,
		Date:          ap.Date.Format("2006-01-02"),
		Time:          ap.Time,
		Department:    ap.Department,
		Status:        ap.Status,
		Patient:       patient,
		CreatedAt:     time.Now().UTC(),
	}
}

// LogNotifier only writes the notification to the log. It is the fallback
// when no delivery backend is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, kind events.Type, doctorID uuid.UUID, ap models.Appointment, patient PatientSnapshot) error {
	n.log.Info("doctor notification",
		zap.String("event", string(kind)),
		zap.String("doctor_id", doctorID.String()),
		zap.String("appointment_id", ap.ID.String()),
		zap.String("date", ap.Date.Format("2006-01-02")),
		zap.String("time", ap.Time),
		zap.String("patient", patient.FullName),
	)
	return nil
}

// EventHandler forwards booking and reschedule events to a Notifier.
type EventHandler struct {
	notifier Notifier
	metrics  *metrics.Collector
}

func NewEventHandler(n Notifier, m *metrics.Collector) *EventHandler {
	return &EventHandler{notifier: n, metrics: m}
}

func (h *EventHandler) Name() string { return "doctor_notification" }

func (h *EventHandler) Handle(ctx context.Context, ev events.Event) error {
	if ev.Type != events.AppointmentBooked && ev.Type != events.AppointmentRescheduled {
		return nil
	}

	ap := ev.Appointment
	err := h.notifier.Notify(ctx, ev.Type, ap.DoctorID, ap, SnapshotOf(ap))

	if h.metrics != nil {
		outcome := "sent"
		if err != nil {
			outcome = "failed"
		}
		h.metrics.NotificationsTotal.WithLabelValues(outcome).Inc()
	}
	return err
}

var (
	_ Notifier       = (*LogNotifier)(nil)
	_ events.Handler = (*EventHandler)(nil)
)
