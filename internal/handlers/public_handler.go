package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// PublicHandler serves the unauthenticated slot lookup.
type PublicHandler struct {
	availability *ucAppointment.GetAvailability
}

func NewPublicHandler(availability *ucAppointment.GetAvailability) *PublicHandler {
	return &PublicHandler{availability: availability}
}

// GET /api/doctors/:doctorId/slots?date=YYYY-MM-DD
func (h *PublicHandler) Availability(c *gin.Context) {
	out, err := h.availability.Execute(
		c.Request.Context(),
		c.Param("doctorId"),
		c.Query("date"),
	)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, out)
}
