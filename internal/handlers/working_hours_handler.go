package handlers

import (
	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
)

type WorkingHoursHandler struct {
	policy   domain.Policy
	timezone string
}

func NewWorkingHoursHandler(policy domain.Policy, timezone string) *WorkingHoursHandler {
	return &WorkingHoursHandler{policy: policy, timezone: timezone}
}

type WorkingHoursResponse struct {
	OpenAt        string   `json:"open_at"`
	CloseAt       string   `json:"close_at"`
	StepMinutes   int      `json:"step_minutes"`
	CutoffMinutes int      `json:"cutoff_minutes"`
	Timezone      string   `json:"timezone"`
	Slots         []string `json:"slots"`
}

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	httpresp.OK(c, WorkingHoursResponse{
		OpenAt:        h.policy.OpenAt,
		CloseAt:       h.policy.CloseAt,
		StepMinutes:   int(h.policy.Step.Minutes()),
		CutoffMinutes: int(h.policy.Cutoff.Minutes()),
		Timezone:      h.timezone,
		Slots:         h.policy.Slots(),
	})
}
