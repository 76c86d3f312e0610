package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/config"
	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/events"
	"github.com/BruksfildServices01/clinic-scheduler/internal/handlers"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/metrics"
	"github.com/BruksfildServices01/clinic-scheduler/internal/middleware"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

// Deps is everything the HTTP layer needs. Stores are interfaces so the
// same wiring runs on Postgres or on the in-process stores.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer

	Appointments domain.Repository
	Users        domain.UserDirectory
	AuditStore   audit.Store
	Events       events.Publisher
	Clock        timezone.Clock
}

func RegisterRoutes(r *gin.Engine, d Deps) {

	// ======================================================
	// MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.RequestLogger(d.Log, d.Metrics))
	r.Use(middleware.CORSMiddleware(d.Config.CORS))

	policy := d.Config.Scheduling.Policy()
	txTimeout := d.Config.Database.TxTimeout

	// ======================================================
	// USE CASES: APPOINTMENTS
	// ======================================================
	availabilityUC := ucAppointment.NewGetAvailability(
		d.Appointments,
		policy,
		d.Log,
	)

	createBookingUC := ucAppointment.NewCreateBooking(
		d.Appointments,
		d.Users,
		d.Events,
		d.Clock,
		policy,
		d.Log,
		d.Metrics,
		txTimeout,
	)

	rescheduleUC := ucAppointment.NewRescheduleBooking(
		d.Appointments,
		d.Events,
		d.Clock,
		policy,
		d.Log,
		d.Metrics,
		txTimeout,
	)

	transitionUC := ucAppointment.NewTransitionStatus(
		d.Appointments,
		d.Events,
		d.Clock,
		d.Log,
		d.Metrics,
		txTimeout,
	)

	deleteUC := ucAppointment.NewDeleteAppointment(
		d.Appointments,
		d.Events,
		d.Log,
	)

	getUC := ucAppointment.NewGetAppointment(d.Appointments)
	listByDateUC := ucAppointment.NewListAppointmentsByDate(d.Appointments)
	listByMonthUC := ucAppointment.NewListAppointmentsByMonth(d.Appointments)

	// ======================================================
	// HANDLERS
	// ======================================================
	publicHandler := handlers.NewPublicHandler(availabilityUC)
	workingHoursHandler := handlers.NewWorkingHoursHandler(policy, d.Config.Scheduling.Timezone)
	meHandler := handlers.NewMeHandler(d.Users)
	auditLogsHandler := handlers.NewAuditLogsHandler(d.AuditStore)

	appointmentHandler := handlers.NewAppointmentHandler(
		createBookingUC,
		rescheduleUC,
		transitionUC,
		deleteUC,
		getUC,
		listByDateUC,
		listByMonthUC,
	)

	// ======================================================
	// OPS
	// ======================================================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.NoRoute(func(c *gin.Context) {
		httperr.NotFound(c, "route_not_found", "no such endpoint")
	})
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// PUBLIC
		// ------------------------------
		api.GET("/working-hours", workingHoursHandler.Get)
		api.GET("/doctors/:doctorId/slots", publicHandler.Availability)

		// ------------------------------
		// AUTHENTICATED
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(d.Config.JWT))
		{
			secured.GET("/me", meHandler.GetMe)

			secured.POST("/appointments",
				middleware.RequireRole(domain.RolePatient),
				appointmentHandler.Create,
			)
			secured.GET("/appointments", appointmentHandler.List)
			secured.GET("/appointments/:id", appointmentHandler.Get)
			secured.PATCH("/appointments/:id/reschedule",
				middleware.RequireRole(domain.RolePatient),
				appointmentHandler.Reschedule,
			)
			secured.PATCH("/appointments/:id/status", appointmentHandler.UpdateStatus)
			secured.DELETE("/appointments/:id",
				middleware.RequireRole(domain.RoleAdmin),
				appointmentHandler.Delete,
			)

			secured.GET("/admin/audit-logs",
				middleware.RequireRole(domain.RoleAdmin),
				auditLogsHandler.List,
			)
		}
	}
}
