package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediview/mediview/pkg/pagination"
)

// Handler exposes the review audit trail over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/audit/patients/:id", h.listByPatient)
}

func (h *Handler) listByPatient(c echo.Context) error {
	patientID := c.Param("id")
	if patientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient id is required")
	}

	page := pagination.FromContext(c)
	events, total, err := h.service.ListByPatient(c.Request().Context(), patientID, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list audit events")
	}

	return c.JSON(http.StatusOK, pagination.NewResponse(events, total, page.Limit, page.Offset))
}
