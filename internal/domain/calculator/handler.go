package calculator

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medcalc/medcalc/internal/domain/form"
	"github.com/medcalc/medcalc/internal/domain/parameter"
	"github.com/medcalc/medcalc/internal/domain/report"
	"github.com/medcalc/medcalc/internal/platform/auth"
	"github.com/medcalc/medcalc/pkg/pagination"
)

type Handler struct {
	svc *Service
	now func() time.Time
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("admin", "clinician"))
	read.GET("/calculators", h.ListCalculators)
	read.GET("/calculators/:id", h.GetCalculator)
	read.GET("/calculators/:id/prefill", h.Prefill)
	read.POST("/calculators/:id/screen", h.Screen)
	read.POST("/calculators/:id/calculate", h.Calculate)
	read.POST("/calculators/:id/report", h.Report)
}

// ScreenRequest carries yes/no answers keyed by screening question id.
type ScreenRequest struct {
	Answers map[string]bool `json:"answers" validate:"required"`
}

// CalculateRequest carries the form inputs. With UseStored set, inputs the
// caller omits are filled from the session's stored parameters; with
// Remember set, cacheable inputs are stored after a successful calculation.
type CalculateRequest struct {
	Inputs    form.Inputs `json:"inputs" validate:"required"`
	UseStored bool        `json:"use_stored"`
	Remember  bool        `json:"remember"`
}

// CalculateResponse echoes the inputs actually used.
type CalculateResponse struct {
	CalculatorID string      `json:"calculator_id"`
	Result       *Result     `json:"result"`
	Inputs       form.Inputs `json:"inputs"`
}

func (h *Handler) ListCalculators(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.svc.List(c.QueryParam("category"))
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Slice(items, pg), len(items), pg.Limit, pg.Offset))
}

func (h *Handler) GetCalculator(c echo.Context) error {
	def, err := h.svc.Get(c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, def)
}

func (h *Handler) Prefill(c echo.Context) error {
	vals, err := h.svc.Prefill(c.Request().Context(), parameter.OwnerFromContext(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"inputs": vals})
}

func (h *Handler) Screen(c echo.Context) error {
	var req ScreenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	out, err := h.svc.Screen(c.Param("id"), req.Answers)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Calculate(c echo.Context) error {
	var req CalculateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, res, err := h.run(c, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, CalculateResponse{CalculatorID: c.Param("id"), Result: res, Inputs: in})
}

func (h *Handler) Report(c echo.Context) error {
	format, err := report.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var req CalculateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, res, err := h.run(c, req)
	if err != nil {
		return httpError(err)
	}
	def, _ := h.svc.Get(c.Param("id"))
	return c.String(http.StatusOK, report.RenderCalculation(format, BuildReport(def, in, res, h.now())))
}

func (h *Handler) run(c echo.Context, req CalculateRequest) (form.Inputs, *Result, error) {
	ctx := c.Request().Context()
	id := c.Param("id")
	in := req.Inputs
	if req.UseStored {
		stored, err := h.svc.Prefill(ctx, parameter.OwnerFromContext(c), id)
		if err != nil {
			return nil, nil, err
		}
		in = stored.Merge(in)
	}
	res, err := h.svc.Calculate(ctx, id, in)
	if err != nil {
		return nil, nil, err
	}
	if req.Remember {
		if err := h.svc.Remember(ctx, parameter.OwnerFromContext(c), id, in); err != nil {
			return nil, nil, err
		}
	}
	return in, res, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// httpError maps service errors to HTTP status codes.
func httpError(err error) error {
	var missing *form.MissingInputError
	var domain *DomainError
	switch {
	case errors.Is(err, ErrCalculatorNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &missing):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": missing.Error(),
			"missing": missing.IDs(),
		})
	case errors.As(err, &domain):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message":    domain.Error(),
			"violations": domain.Violations,
		})
	case errors.Is(err, ErrNonFiniteScore):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
