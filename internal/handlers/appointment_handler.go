package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/dto"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	create      *ucAppointment.CreateBooking
	reschedule  *ucAppointment.RescheduleBooking
	transition  *ucAppointment.TransitionStatus
	remove      *ucAppointment.DeleteAppointment
	get         *ucAppointment.GetAppointment
	listByDate  *ucAppointment.ListAppointmentsByDate
	listByMonth *ucAppointment.ListAppointmentsByMonth
}

func NewAppointmentHandler(
	create *ucAppointment.CreateBooking,
	reschedule *ucAppointment.RescheduleBooking,
	transition *ucAppointment.TransitionStatus,
	remove *ucAppointment.DeleteAppointment,
	get *ucAppointment.GetAppointment,
	listByDate *ucAppointment.ListAppointmentsByDate,
	listByMonth *ucAppointment.ListAppointmentsByMonth,
) *AppointmentHandler {
	return &AppointmentHandler{
		create:      create,
		reschedule:  reschedule,
		transition:  transition,
		remove:      remove,
		get:         get,
		listByDate:  listByDate,
		listByMonth: listByMonth,
	}
}

// ======================================================
// REQUESTS
// ======================================================

// CreateAppointmentRequest deliberately has no name or email: those come
// from the authenticated patient's account.
type CreateAppointmentRequest struct {
	DoctorID    string `json:"doctor_id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Department  string `json:"department"`
	Phone       string `json:"phone"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
}

type RescheduleRequest struct {
	Date string `json:"date" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type BookingResponse struct {
	Appointment dto.AppointmentDTO `json:"appointment"`
	Warnings    []string           `json:"warnings,omitempty"`
}

func newBookingResponse(res *ucAppointment.BookingResult) BookingResponse {
	return BookingResponse{
		Appointment: dto.NewAppointmentDTO(*res.Appointment),
		Warnings:    res.Warnings,
	}
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "request body must be valid JSON")
		return
	}

	res, err := h.create.Execute(c.Request.Context(), ucAppointment.CreateBookingInput{
		PatientID:   actor.ID,
		DoctorID:    req.DoctorID,
		Date:        req.Date,
		Time:        req.Time,
		Department:  req.Department,
		Phone:       req.Phone,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Created(c, newBookingResponse(res))
}

// ======================================================
// RESCHEDULE
// ======================================================

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "date and time are required")
		return
	}

	res, err := h.reschedule.Execute(c.Request.Context(), ucAppointment.RescheduleInput{
		AppointmentID: id,
		Requester:     actor,
		Date:          req.Date,
		Time:          req.Time,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, newBookingResponse(res))
}

// ======================================================
// STATUS
// ======================================================

func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "status is required")
		return
	}

	res, err := h.transition.Execute(c.Request.Context(), ucAppointment.TransitionInput{
		AppointmentID: id,
		Actor:         actor,
		Status:        req.Status,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, newBookingResponse(res))
}

// ======================================================
// DELETE
// ======================================================

func (h *AppointmentHandler) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	if err := h.remove.Execute(c.Request.Context(), actor, id); err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.NoContent(c)
}

// ======================================================
// READ
// ======================================================

func (h *AppointmentHandler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := appointmentIDParam(c)
	if !ok {
		return
	}

	ap, err := h.get.Execute(c.Request.Context(), actor, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// List serves ?date=YYYY-MM-DD or ?year=YYYY&month=M.
func (h *AppointmentHandler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var (
		out []dto.AppointmentListDTO
		err error
	)

	if date := c.Query("date"); date != "" {
		out, err = h.listByDate.Execute(c.Request.Context(), actor, date)
	} else {
		year, yErr := strconv.Atoi(c.Query("year"))
		month, mErr := strconv.Atoi(c.Query("month"))
		if yErr != nil || mErr != nil {
			httperr.BadRequest(c, "invalid_period", "use date=YYYY-MM-DD or year and month")
			return
		}
		out, err = h.listByMonth.Execute(c.Request.Context(), actor, year, month)
	}
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, out)
}
