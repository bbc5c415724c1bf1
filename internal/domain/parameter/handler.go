package parameter

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medcalc/medcalc/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("admin", "clinician"))
	g.GET("/parameters", h.ListParameters)
	g.GET("/parameters/:id", h.GetParameter)
	g.PUT("/parameters/:id", h.SetParameter)
	g.DELETE("/parameters/:id", h.RemoveParameter)
	g.DELETE("/parameters", h.ClearParameters)
}

// SetRequest is the body of PUT /parameters/:id.
type SetRequest struct {
	ID    string      `param:"id" json:"-" validate:"required,identifier"`
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	Unit  string      `json:"unit"`
}

func (h *Handler) ListParameters(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), OwnerFromContext(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": items, "total": len(items)})
}

func (h *Handler) GetParameter(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), OwnerFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "parameter not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SetParameter(c echo.Context) error {
	var req SetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Set(c.Request().Context(), OwnerFromContext(c), StoredParameter{
		ID:    req.ID,
		Name:  req.Name,
		Value: req.Value,
		Unit:  req.Unit,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidParameter) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) RemoveParameter(c echo.Context) error {
	if err := h.svc.Remove(c.Request().Context(), OwnerFromContext(c), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ClearParameters(c echo.Context) error {
	if err := h.svc.Clear(c.Request().Context(), OwnerFromContext(c)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
