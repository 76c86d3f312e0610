package appointment

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
)

type GetAvailability struct {
	repo   domain.Repository
	policy domain.Policy
	log    *zap.Logger
}

func NewGetAvailability(
	repo domain.Repository,
	policy domain.Policy,
	log *zap.Logger,
) *GetAvailability {
	return &GetAvailability{
		repo:   repo,
		policy: policy,
		log:    log,
	}
}

// Execute lists the free slots of a doctor on a day. An empty list means
// fully booked; a store failure is always an error.
func (uc *GetAvailability) Execute(
	ctx context.Context,
	doctorID string,
	date string,
) (out *domain.Availability, err error) {

	ctx, span := startSpan(ctx, "appointment.GetAvailability",
		attribute.String("doctor_id", doctorID),
		attribute.String("date", date),
	)
	defer func() { endSpan(span, err) }()

	in, err := domain.NewAvailabilityInput(doctorID, date)
	if err != nil {
		return nil, err
	}

	booked, err := uc.repo.ListBookedTimes(ctx, in.DoctorID, in.Date)
	if err != nil {
		uc.log.Error("listing booked times failed",
			zap.String("doctor_id", in.DoctorID.String()),
			zap.String("date", domain.FormatDate(in.Date)),
			zap.Error(err),
		)
		return nil, err
	}

	return &domain.Availability{
		DoctorID: in.DoctorID,
		Date:     domain.FormatDate(in.Date),
		Slots:    domain.Subtract(uc.policy.Slots(), booked),
	}, nil
}
