package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
	"github.com/BruksfildServices01/clinic-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	full   bool
}

func (p *recordingPublisher) Publish(ev events.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.full {
		return false
	}
	p.events = append(p.events, ev)
	return true
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type fixture struct {
	store   *repository.MemoryStore
	users   *repository.MemoryUserDirectory
	pub     *recordingPublisher
	clock   timezone.Clock
	policy  domain.Policy
	metrics *metrics.Collector

	doctor       models.User
	otherDoctor  models.User
	patient      models.User
	otherPatient models.User
	admin        models.User
}

// newFixture pins the clinic clock at now (UTC).
func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	f := &fixture{
		store:   repository.NewMemoryStore(),
		pub:     &recordingPublisher{},
		clock:   timezone.FixedClock(now, time.UTC),
		policy:  domain.DefaultPolicy(),
		metrics: metrics.NewCollector(prometheus.NewRegistry(), "test"),

		doctor:       models.User{ID: uuid.New(), FullName: "Dr. Smith", Email: "smith@clinic.test", Role: "doctor", Department: "cardiology"},
		otherDoctor:  models.User{ID: uuid.New(), FullName: "Dr. Jones", Email: "jones@clinic.test", Role: "doctor"},
		patient:      models.User{ID: uuid.New(), FullName: "Ana Lima", Email: "ana@mail.test", Role: "patient"},
		otherPatient: models.User{ID: uuid.New(), FullName: "Bruno Reis", Email: "bruno@mail.test", Role: "patient"},
		admin:        models.User{ID: uuid.New(), FullName: "Admin", Email: "admin@clinic.test", Role: "admin"},
	}
	f.users = repository.NewMemoryUserDirectory(f.doctor, f.otherDoctor, f.patient, f.otherPatient, f.admin)
	return f
}

func (f *fixture) booking() *CreateBooking {
	return NewCreateBooking(f.store, f.users, f.pub, f.clock, f.policy, zap.NewNop(), f.metrics, time.Second)
}

func (f *fixture) availability() *GetAvailability {
	return NewGetAvailability(f.store, f.policy, zap.NewNop())
}

func (f *fixture) reschedule() *RescheduleBooking {
	return NewRescheduleBooking(f.store, f.pub, f.clock, f.policy, zap.NewNop(), f.metrics, time.Second)
}

func (f *fixture) transition() *TransitionStatus {
	return NewTransitionStatus(f.store, f.pub, f.clock, zap.NewNop(), f.metrics, time.Second)
}

func (f *fixture) bookingInput(patient uuid.UUID, date, slot string) CreateBookingInput {
	return CreateBookingInput{
		PatientID:   patient,
		DoctorID:    f.doctor.ID.String(),
		Date:        date,
		Time:        slot,
		Phone:       "+55 11 98765-4321",
		Gender:      "female",
		DateOfBirth: "1990-04-01",
		Address:     "Rua A, 100",
	}
}

// seed stores an appointment directly, bypassing booking rules.
func (f *fixture) seed(t *testing.T, date, slot string, status domain.Status) *models.Appointment {
	t.Helper()

	day, err := domain.ParseDate(date)
	if err != nil {
		t.Fatal(err)
	}
	ap := &models.Appointment{
		DoctorID:  f.doctor.ID,
		PatientID: f.patient.ID,
		Date:      day,
		Time:      slot,
		Status:    string(status),
	}
	if err := f.store.CreateAppointment(context.Background(), ap); err != nil {
		t.Fatalf("seeding: %v", err)
	}
	return ap
}

func actorOf(u models.User) domain.Actor {
	role, _ := domain.ParseRole(u.Role)
	return domain.Actor{ID: u.ID, Role: role}
}
