package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httpresp"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	store audit.Store
}

func NewAuditLogsHandler(store audit.Store) *AuditLogsHandler {
	return &AuditLogsHandler{store: store}
}

func (h *AuditLogsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := audit.Query{
		Action: c.Query("action"),
		Entity: c.Query("entity"),
		Page:   page,
		Limit:  limit,
	}

	if from, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		q.From = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		q.To = &to
	}

	logs, total, err := h.store.List(c.Request.Context(), q)
	if err != nil {
		httperr.Internal(c, "audit_list_failed", "could not list audit logs")
		return
	}

	httpresp.Page(c, logs, page, limit, total)
}
