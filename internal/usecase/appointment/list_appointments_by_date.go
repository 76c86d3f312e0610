package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
)

type ListAppointmentsByDate struct {
	repo domain.Repository
}

func NewListAppointmentsByDate(
	repo domain.Repository,
) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{
		repo: repo,
	}
}

func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	actor domain.Actor,
	date string,
) ([]dto.AppointmentListDTO, error) {

	day, err := domain.ParseDate(date)
	if err != nil {
		return nil, domain.ErrInvalidArgument("invalid_date", "date must be YYYY-MM-DD")
	}

	return listForActor(ctx, uc.repo, actor, day, day.AddDate(0, 0, 1))
}

// listForActor scopes the listing by role: patients and doctors only see
// their own appointments.
func listForActor(
	ctx context.Context,
	repo domain.Repository,
	actor domain.Actor,
	from time.Time,
	to time.Time,
) ([]dto.AppointmentListDTO, error) {

	filter := domain.AppointmentFilter{From: from, To: to}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleDoctor:
		id := actor.ID
		filter.DoctorID = &id
	case domain.RolePatient:
		id := actor.ID
		filter.PatientID = &id
	default:
		return nil, domain.ErrForbidden("unknown_role")
	}

	appointments, err := repo.ListAppointments(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AppointmentListDTO, 0, len(appointments))
	for _, ap := range appointments {
		out = append(out, dto.NewAppointmentListDTO(ap))
	}

	return out, nil
}
