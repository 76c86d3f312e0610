package repository

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
)

type statement struct {
	sql  string
	vars []interface{}
}

// dryRunRepo renders postgres SQL without a server. Nothing is executed, so
// writes always report zero affected rows.
func dryRunRepo(t *testing.T) (*AppointmentGormRepository, *[]statement) {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=clinic dbname=clinic sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	var got []statement
	record := func(tx *gorm.DB) {
		got = append(got, statement{
			sql:  tx.Statement.SQL.String(),
			vars: append([]interface{}(nil), tx.Statement.Vars...),
		})
	}
	cb := db.Callback()
	for name, err := range map[string]error{
		"query":  cb.Query().After("gorm:query").Register("test:record", record),
		"update": cb.Update().After("gorm:update").Register("test:record", record),
		"delete": cb.Delete().After("gorm:delete").Register("test:record", record),
	} {
		if err != nil {
			t.Fatalf("register %s callback: %v", name, err)
		}
	}

	return NewAppointmentGormRepository(db), &got
}

func last(t *testing.T, got *[]statement) statement {
	t.Helper()
	if len(*got) == 0 {
		t.Fatal("no statement recorded")
	}
	return (*got)[len(*got)-1]
}

func TestGormSlotConflictQuery(t *testing.T) {
	repo, got := dryRunRepo(t)

	claim := domain.SlotClaim{
		DoctorID:  uuid.New(),
		PatientID: uuid.New(),
		Date:      day,
		Time:      "10:00",
		ExcludeID: uuid.New(),
	}
	if err := repo.AssertNoSlotConflict(context.Background(), claim); err != nil {
		t.Fatalf("no rows must mean no conflict: %v", err)
	}

	st := last(t, got)
	for _, want := range []string{
		"(appointment_date = $1 AND appointment_time = $2 AND status <> $3)",
		// Without the parentheses the OR would escape the date filter.
		"(doctor_id = $4 OR patient_id = $5)",
		"id <> $6",
		"FOR UPDATE",
	} {
		if !strings.Contains(st.sql, want) {
			t.Errorf("missing %q in:\n%s", want, st.sql)
		}
	}
	if st.vars[2] != string(domain.StatusCancelled) {
		t.Errorf("status filter = %v", st.vars[2])
	}
	if st.vars[5] != claim.ExcludeID {
		t.Errorf("excluded id = %v", st.vars[5])
	}
}

func TestGormSlotConflictQueryWithoutExclusion(t *testing.T) {
	repo, got := dryRunRepo(t)

	claim := domain.SlotClaim{DoctorID: uuid.New(), PatientID: uuid.New(), Date: day, Time: "10:00"}
	if err := repo.AssertNoSlotConflict(context.Background(), claim); err != nil {
		t.Fatal(err)
	}
	if st := last(t, got); strings.Contains(st.sql, "id <>") {
		t.Fatalf("fresh booking must not exclude an id:\n%s", st.sql)
	}
}

func TestGormBookedTimesOnlyOccupying(t *testing.T) {
	repo, got := dryRunRepo(t)

	if _, err := repo.ListBookedTimes(context.Background(), uuid.New(), day); err != nil {
		t.Fatal(err)
	}

	st := last(t, got)
	if !strings.Contains(st.sql, "status IN ($3,$4)") {
		t.Fatalf("unexpected status filter:\n%s", st.sql)
	}
	if !reflect.DeepEqual(st.vars[2:], []interface{}{"pending", "approved"}) {
		t.Fatalf("occupying statuses = %v", st.vars[2:])
	}
	if st.vars[1] != "2025-06-10" {
		t.Fatalf("date = %v", st.vars[1])
	}
}

func TestGormSaveIsGuardedByStatus(t *testing.T) {
	repo, got := dryRunRepo(t)

	ap := &models.Appointment{
		ID:       uuid.New(),
		Date:     day,
		Time:     "11:00",
		Status:   string(domain.StatusApproved),
		IsEdited: true,
	}
	err := repo.SaveAppointment(context.Background(), ap, domain.StatusPending)
	if !httperr.IsBusiness(err, "stale_status") {
		t.Fatalf("zero affected rows must be stale, got %v", err)
	}

	st := last(t, got)
	if !strings.HasPrefix(st.sql, `UPDATE "appointments" SET`) {
		t.Fatalf("not an update:\n%s", st.sql)
	}
	if !strings.Contains(st.sql, "WHERE id = $") || !strings.Contains(st.sql, "AND status = $") {
		t.Fatalf("update not guarded by id and status:\n%s", st.sql)
	}
	n := len(st.vars)
	if st.vars[n-2] != ap.ID || st.vars[n-1] != string(domain.StatusPending) {
		t.Fatalf("guard vars = %v", st.vars[n-2:])
	}
}

func TestGormDeleteMissingIsNotFound(t *testing.T) {
	repo, got := dryRunRepo(t)

	id := uuid.New()
	if err := repo.DeleteAppointment(context.Background(), id); !httperr.Is(err, httperr.KindNotFound) {
		t.Fatalf("err = %v", err)
	}
	st := last(t, got)
	if !strings.HasPrefix(st.sql, `DELETE FROM "appointments"`) || st.vars[0] != id {
		t.Fatalf("delete = %s %v", st.sql, st.vars)
	}
}

func TestGormListOrdersByDayThenTime(t *testing.T) {
	repo, got := dryRunRepo(t)

	doctor := uuid.New()
	filter := domain.AppointmentFilter{From: day, To: day.AddDate(0, 0, 7), DoctorID: &doctor}
	if _, err := repo.ListAppointments(context.Background(), filter); err != nil {
		t.Fatal(err)
	}

	st := last(t, got)
	for _, want := range []string{
		"appointment_date >= $1 AND appointment_date < $2",
		"doctor_id = $3",
		"ORDER BY appointment_date ASC,appointment_time ASC",
	} {
		if !strings.Contains(st.sql, want) {
			t.Errorf("missing %q in:\n%s", want, st.sql)
		}
	}
	if strings.Contains(st.sql, "patient_id") {
		t.Errorf("patient filter applied without a patient:\n%s", st.sql)
	}
}
