package algorithm

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medcalc/medcalc/internal/domain/diagram"
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
	read.GET("/algorithms", h.ListAlgorithms)
	read.GET("/algorithms/:id", h.GetAlgorithm)
	read.GET("/algorithms/:id/start", h.Start)
	read.GET("/algorithms/:id/prefill", h.Prefill)
	read.GET("/algorithms/:id/export", h.Export)
	read.POST("/algorithms/:id/next", h.Next)
	read.POST("/algorithms/:id/walk", h.Walk)
	read.POST("/algorithms/:id/report", h.Report)
	read.POST("/algorithms/:id/layout", h.Layout)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/algorithms/validate", h.ValidateDefinition)
}

// NextRequest resolves one transition from NodeID.
type NextRequest struct {
	NodeID    string      `json:"node_id" validate:"required"`
	Inputs    form.Inputs `json:"inputs"`
	UseStored bool        `json:"use_stored"`
}

// WalkRequest replays a traversal from the start node. Each step holds the
// values submitted at one node.
type WalkRequest struct {
	Steps     []form.Inputs `json:"steps"`
	UseStored bool          `json:"use_stored"`
	Remember  bool          `json:"remember"`
}

// LayoutRequest lays out the pathway with the path produced by Steps.
type LayoutRequest struct {
	Steps       []form.Inputs `json:"steps"`
	Width       float64       `json:"width" validate:"gte=0"`
	LevelHeight float64       `json:"level_height" validate:"gte=0"`
	Margin      float64       `json:"margin" validate:"gte=0"`
}

// LayoutResponse carries the diagram and the path it highlights. Error is
// set when the steps stopped before their end.
type LayoutResponse struct {
	Diagram  diagram.Diagram `json:"diagram"`
	Path     []string        `json:"path"`
	Complete bool            `json:"complete"`
	Error    string          `json:"error,omitempty"`
}

func (h *Handler) ListAlgorithms(c echo.Context) error {
	pg := pagination.FromContext(c)
	items := h.svc.List(c.QueryParam("category"))
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Slice(items, pg), len(items), pg.Limit, pg.Offset))
}

func (h *Handler) GetAlgorithm(c echo.Context) error {
	def, err := h.svc.Get(c.Param("id"))
	if err != nil {
		return httpError(err, nil)
	}
	return c.JSON(http.StatusOK, def)
}

func (h *Handler) Start(c echo.Context) error {
	v, err := h.svc.Start(c.Param("id"))
	if err != nil {
		return httpError(err, nil)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Prefill(c echo.Context) error {
	vals, err := h.svc.Prefill(c.Request().Context(), parameter.OwnerFromContext(c), c.Param("id"))
	if err != nil {
		return httpError(err, nil)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"inputs": vals})
}

func (h *Handler) Next(c echo.Context) error {
	var req NextRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in := req.Inputs
	if in == nil {
		in = form.Inputs{}
	}
	if req.UseStored {
		stored, err := h.svc.Prefill(c.Request().Context(), parameter.OwnerFromContext(c), c.Param("id"))
		if err != nil {
			return httpError(err, nil)
		}
		in = stored.Merge(in)
	}
	v, err := h.svc.Next(c.Request().Context(), c.Param("id"), req.NodeID, in)
	if err != nil {
		return httpError(err, nil)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Walk(c echo.Context) error {
	var req WalkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	nav, err := h.walk(c, req)
	if err != nil {
		return httpError(err, nav)
	}
	return c.JSON(http.StatusOK, viewOf(nav))
}

func (h *Handler) Report(c echo.Context) error {
	format, err := report.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var req WalkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	nav, err := h.walk(c, req)
	if err != nil {
		return httpError(err, nav)
	}
	return c.String(http.StatusOK, report.RenderPathway(format, BuildReport(nav, h.now())))
}

func (h *Handler) Layout(c echo.Context) error {
	var req LayoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	nav, err := h.svc.Walk(c.Request().Context(), c.Param("id"), req.Steps)
	if nav == nil {
		return httpError(err, nil)
	}
	resp := LayoutResponse{
		Diagram: diagram.Layout(Graph(nav.Definition()), nav.Path(), diagram.Options{
			Width:       req.Width,
			LevelHeight: req.LevelHeight,
			Margin:      req.Margin,
		}),
		Path:     nav.Path(),
		Complete: nav.Complete(),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Export(c echo.Context) error {
	format, err := ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	def, err := h.svc.Get(c.Param("id"))
	if err != nil {
		return httpError(err, nil)
	}
	body, err := Encode(def, format)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(http.StatusOK, format.ContentType(), body)
}

// ValidateDefinition checks an uploaded definition. The body is YAML when the
// content type or ?format says so, JSON otherwise.
func (h *Handler) ValidateDefinition(c echo.Context) error {
	format := FormatJSON
	if strings.Contains(c.Request().Header.Get(echo.HeaderContentType), "yaml") {
		format = FormatYAML
	}
	if q := c.QueryParam("format"); q != "" {
		f, err := ParseFormat(q)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		format = f
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	def, err := Decode(body, format)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := Validate(def); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"valid":    false,
				"problems": verr.Problems,
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"valid": true, "id": def.ID})
}

func (h *Handler) walk(c echo.Context, req WalkRequest) (*Navigator, error) {
	ctx := c.Request().Context()
	id := c.Param("id")
	steps := req.Steps
	if req.UseStored && len(steps) > 0 {
		stored, err := h.svc.Prefill(ctx, parameter.OwnerFromContext(c), id)
		if err != nil {
			return nil, err
		}
		steps = append([]form.Inputs{stored.Merge(steps[0])}, steps[1:]...)
	}
	nav, err := h.svc.Walk(ctx, id, steps)
	if err != nil {
		return nav, err
	}
	if req.Remember {
		if err := h.svc.Remember(ctx, parameter.OwnerFromContext(c), id, nav.Inputs()); err != nil {
			return nil, err
		}
	}
	return nav, nil
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

// httpError maps traversal errors to HTTP status codes. When nav is set the
// response also carries where the traversal stopped.
func httpError(err error, nav *Navigator) error {
	var missing *form.MissingInputError
	body := map[string]interface{}{"message": err.Error()}
	if nav != nil {
		body["node_id"] = nav.Current()
		body["path"] = nav.Path()
	}
	switch {
	case errors.Is(err, ErrAlgorithmNotFound), errors.Is(err, ErrNodeNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &missing):
		body["missing"] = missing.IDs()
		return echo.NewHTTPError(http.StatusUnprocessableEntity, body)
	case errors.Is(err, ErrNoMatchingPath), errors.Is(err, ErrTerminalNode):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, body)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
