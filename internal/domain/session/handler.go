package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mediview/mediview/internal/domain/dashboard"
	"github.com/mediview/mediview/internal/platform/auth"
	"github.com/mediview/mediview/internal/upstream/extraction"
	"github.com/mediview/mediview/pkg/pagination"
)

// Handler exposes the review session over HTTP.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.listPatients)
	g.GET("/patients/:id", h.getPatient)

	g.POST("/sessions", h.start)
	g.GET("/sessions/:id", h.get)
	g.DELETE("/sessions/:id", h.end)
	g.POST("/sessions/:id/reload", h.reload)
	g.POST("/sessions/:id/initialize", h.initialize)
	g.POST("/sessions/:id/save", h.save)
	g.POST("/sessions/:id/upload", h.upload)
	g.POST("/sessions/:id/review/approve", h.approve)
	g.POST("/sessions/:id/review/reset", h.reset)
	g.POST("/sessions/:id/items/:category", h.addItem)
	g.PUT("/sessions/:id/items/:category/:itemID", h.editItem)
	g.POST("/sessions/:id/items/:category/:itemID/remove", h.stageRemove)
	g.POST("/sessions/:id/removal/confirm", h.confirmRemove)
	g.POST("/sessions/:id/removal/cancel", h.cancelRemove)
}

func (h *Handler) listPatients(c echo.Context) error {
	list, err := h.service.ListPatients(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	// The directory returns the full roster; page it here.
	page := pagination.FromContext(c)
	total := len(list)
	start := page.Offset
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list[start:end], total, page.Limit, page.Offset))
}

func (h *Handler) getPatient(c echo.Context) error {
	p, err := h.service.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type startRequest struct {
	PatientID string `json:"patient_id"`
	// Selected marks a list drill-down rather than a direct id lookup; the
	// two differ only in their failure notice.
	Selected bool `json:"selected,omitempty"`
}

func (h *Handler) start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PatientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}

	ctx := c.Request().Context()
	actor := auth.UserIDFromContext(ctx)

	var (
		view *View
		err  error
	)
	if req.Selected {
		view, err = h.service.Select(ctx, req.PatientID, actor)
	} else {
		view, err = h.service.Start(ctx, req.PatientID, actor)
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *Handler) get(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	view, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) end(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	if err := h.service.End(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) reload(c echo.Context) error {
	return h.transition(c, h.service.Reload)
}

func (h *Handler) initialize(c echo.Context) error {
	return h.transition(c, h.service.Initialize)
}

func (h *Handler) save(c echo.Context) error {
	return h.transition(c, h.service.Save)
}

func (h *Handler) approve(c echo.Context) error {
	return h.transition(c, h.service.ApproveStep)
}

func (h *Handler) reset(c echo.Context) error {
	return h.transition(c, h.service.ResetStep)
}

// uploadMeta is the per-file metadata carried in the files_data form value,
// positionally aligned with the repeated files parts.
type uploadMeta struct {
	ReportType string `json:"report_type"`
	Tag        string `json:"tag_document"`
}

func (h *Handler) upload(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}
	parts := form.File["files"]
	if len(parts) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files provided")
	}

	var meta []uploadMeta
	if raw := form.Value["files_data"]; len(raw) > 0 {
		if err := json.Unmarshal([]byte(raw[0]), &meta); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid files_data")
		}
	}
	if len(meta) != 0 && len(meta) != len(parts) {
		return echo.NewHTTPError(http.StatusBadRequest, "files_data does not match files")
	}

	files := make([]extraction.UploadFile, 0, len(parts))
	for i, part := range parts {
		src, err := part.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file part")
		}
		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file part")
		}

		f := extraction.UploadFile{FileName: part.Filename, Content: content}
		if len(meta) > 0 {
			f.ReportType = meta[i].ReportType
			f.Tag = meta[i].Tag
		}
		files = append(files, f)
	}

	ctx := c.Request().Context()
	view, err := h.service.Upload(ctx, id, auth.UserIDFromContext(ctx), files)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) addItem(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	category, err := parseCategory(c)
	if err != nil {
		return err
	}
	raw, err := body(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	view, err := h.service.AddItem(ctx, id, auth.UserIDFromContext(ctx), category, raw)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *Handler) editItem(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	category, err := parseCategory(c)
	if err != nil {
		return err
	}
	raw, err := body(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	view, err := h.service.EditItem(ctx, id, auth.UserIDFromContext(ctx), category, c.Param("itemID"), raw)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) stageRemove(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	category, err := parseCategory(c)
	if err != nil {
		return err
	}
	view, err := h.service.StageRemove(c.Request().Context(), id, category, c.Param("itemID"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) confirmRemove(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	view, err := h.service.ConfirmRemove(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) cancelRemove(c echo.Context) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	view, err := h.service.CancelRemove(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, id uuid.UUID, actor string) (*View, error)) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	view, err := fn(ctx, id, auth.UserIDFromContext(ctx))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, view)
}

func sessionID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	return id, nil
}

func parseCategory(c echo.Context) (dashboard.Category, error) {
	cat, err := dashboard.ParseCategory(c.Param("category"))
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return cat, nil
}

func body(c echo.Context) (json.RawMessage, error) {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable request body")
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if !json.Valid(raw) {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	return raw, nil
}

// httpError maps service errors onto HTTP responses. Upstream failures keep
// their static user notice.
func httpError(err error) error {
	var userErr *UserError
	switch {
	case errors.As(err, &userErr):
		return echo.NewHTTPError(http.StatusBadGateway, userErr.Notice)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	case errors.Is(err, ErrItemNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "item not found")
	case errors.Is(err, ErrNoRecord), errors.Is(err, ErrNotReviewing),
		errors.Is(err, ErrReviewing), errors.Is(err, ErrNoRemoval):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
