package repository

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

// MemoryStore is an in-process appointment store for tests and local runs.
// It enforces the same uniqueness rules as the Postgres partial indexes:
// one non-cancelled appointment per (doctor, day, time) and per
// (patient, day, time). Transactions are serialized and applied on commit.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]models.Appointment
	fail error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]models.Appointment)}
}

// FailWith makes every subsequent call fail as if the backend were down.
// Pass nil to recover.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Len counts stored rows, cancelled ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *MemoryStore) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return err
	}

	work := make(map[uuid.UUID]models.Appointment, len(s.rows))
	for id, ap := range s.rows {
		work[id] = ap
	}

	if err := fn(&memoryTx{rows: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return translateError(err, nil)
	}

	s.rows = work
	return nil
}

func (s *MemoryStore) AssertNoSlotConflict(ctx context.Context, claim domain.SlotClaim) error {
	return s.do(ctx, func(tx *memoryTx) error { return tx.AssertNoSlotConflict(ctx, claim) })
}

func (s *MemoryStore) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	return s.do(ctx, func(tx *memoryTx) error { return tx.CreateAppointment(ctx, ap) })
}

func (s *MemoryStore) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var out *models.Appointment
	err := s.do(ctx, func(tx *memoryTx) (err error) {
		out, err = tx.GetAppointment(ctx, id)
		return err
	})
	return out, err
}

func (s *MemoryStore) GetAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return s.GetAppointment(ctx, id)
}

func (s *MemoryStore) SaveAppointment(ctx context.Context, ap *models.Appointment, expected domain.Status) error {
	return s.do(ctx, func(tx *memoryTx) error { return tx.SaveAppointment(ctx, ap, expected) })
}

func (s *MemoryStore) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	return s.do(ctx, func(tx *memoryTx) error { return tx.DeleteAppointment(ctx, id) })
}

func (s *MemoryStore) ListBookedTimes(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	var out []string
	err := s.do(ctx, func(tx *memoryTx) (err error) {
		out, err = tx.ListBookedTimes(ctx, doctorID, day)
		return err
	})
	return out, err
}

func (s *MemoryStore) ListAppointments(ctx context.Context, filter domain.AppointmentFilter) ([]models.Appointment, error) {
	var out []models.Appointment
	err := s.do(ctx, func(tx *memoryTx) (err error) {
		out, err = tx.ListAppointments(ctx, filter)
		return err
	})
	return out, err
}

func (s *MemoryStore) do(ctx context.Context, fn func(tx *memoryTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return err
	}
	return fn(&memoryTx{rows: s.rows})
}

func (s *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return translateError(err, nil)
	}
	if s.fail != nil {
		return translateError(s.fail, nil)
	}
	return nil
}

// memoryTx operates on a row set that its owner has already locked.
type memoryTx struct {
	rows map[uuid.UUID]models.Appointment
}

func (tx *memoryTx) Transaction(ctx context.Context, fn func(tx domain.Repository) error) error {
	return fn(tx)
}

func (tx *memoryTx) AssertNoSlotConflict(ctx context.Context, claim domain.SlotClaim) error {
	var holders []models.Appointment
	for _, ap := range tx.rows {
		if ap.ID == claim.ExcludeID || !holdsSlot(ap, claim.Date, claim.Time) {
			continue
		}
		if ap.DoctorID == claim.DoctorID || ap.PatientID == claim.PatientID {
			holders = append(holders, ap)
		}
	}
	return conflictFromHolders(claim, holders)
}

func (tx *memoryTx) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	if ap.ID == uuid.Nil {
		ap.ID = uuid.New()
	}
	if _, exists := tx.rows[ap.ID]; exists {
		return domain.ErrUnavailable(errors.New("duplicate primary key"))
	}
	if err := tx.checkUnique(ap); err != nil {
		return err
	}

	now := time.Now()
	ap.CreatedAt, ap.UpdatedAt = now, now
	tx.rows[ap.ID] = *ap
	return nil
}

func (tx *memoryTx) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	ap, ok := tx.rows[id]
	if !ok {
		return nil, domain.ErrNotFound("appointment_not_found")
	}
	return &ap, nil
}

func (tx *memoryTx) GetAppointmentForUpdate(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	return tx.GetAppointment(ctx, id)
}

func (tx *memoryTx) SaveAppointment(ctx context.Context, ap *models.Appointment, expected domain.Status) error {
	current, ok := tx.rows[ap.ID]
	if !ok || current.Status != string(expected) {
		return domain.ErrStaleStatus(expected)
	}
	if err := tx.checkUnique(ap); err != nil {
		return err
	}

	ap.UpdatedAt = time.Now()
	tx.rows[ap.ID] = *ap
	return nil
}

func (tx *memoryTx) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if _, ok := tx.rows[id]; !ok {
		return domain.ErrNotFound("appointment_not_found")
	}
	delete(tx.rows, id)
	return nil
}

func (tx *memoryTx) ListBookedTimes(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, error) {
	var times []string
	for _, ap := range tx.rows {
		if ap.DoctorID == doctorID && ap.Date.Equal(day) && domain.Status(ap.Status).OccupiesSlot() {
			times = append(times, ap.Time)
		}
	}
	return times, nil
}

func (tx *memoryTx) ListAppointments(ctx context.Context, filter domain.AppointmentFilter) ([]models.Appointment, error) {
	out := make([]models.Appointment, 0)
	for _, ap := range tx.rows {
		if ap.Date.Before(filter.From) || !ap.Date.Before(filter.To) {
			continue
		}
		if filter.PatientID != nil && ap.PatientID != *filter.PatientID {
			continue
		}
		if filter.DoctorID != nil && ap.DoctorID != *filter.DoctorID {
			continue
		}
		out = append(out, ap)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}

// checkUnique plays the role of the partial unique indexes.
func (tx *memoryTx) checkUnique(ap *models.Appointment) error {
	if domain.Status(ap.Status) == domain.StatusCancelled {
		return nil
	}
	for _, other := range tx.rows {
		if other.ID == ap.ID || !holdsSlot(other, ap.Date, ap.Time) {
			continue
		}
		if other.DoctorID == ap.DoctorID {
			return domain.ErrSlotConflict("doctor", domain.FormatDate(ap.Date), ap.Time)
		}
		if other.PatientID == ap.PatientID {
			return domain.ErrSlotConflict("patient", domain.FormatDate(ap.Date), ap.Time)
		}
	}
	return nil
}

func holdsSlot(ap models.Appointment, day time.Time, slot string) bool {
	return ap.Status != string(domain.StatusCancelled) && ap.Date.Equal(day) && ap.Time == slot
}

// MemoryUserDirectory is a UserDirectory backed by a map.
type MemoryUserDirectory struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func NewMemoryUserDirectory(users ...models.User) *MemoryUserDirectory {
	d := &MemoryUserDirectory{users: make(map[uuid.UUID]models.User, len(users))}
	for _, u := range users {
		d.Put(u)
	}
	return d
}

func (d *MemoryUserDirectory) Put(u models.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *MemoryUserDirectory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, domain.ErrNotFound("user_not_found")
	}
	return &u, nil
}

var (
	_ domain.Repository    = (*MemoryStore)(nil)
	_ domain.Repository    = (*memoryTx)(nil)
	_ domain.UserDirectory = (*MemoryUserDirectory)(nil)
)
