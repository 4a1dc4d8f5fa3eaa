package router

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DjordjeVuckovic/modelcfg/internal/api/metrics"
	"github.com/DjordjeVuckovic/modelcfg/internal/apperr"
	"github.com/DjordjeVuckovic/modelcfg/internal/check"
	"github.com/DjordjeVuckovic/modelcfg/internal/descriptor"
	"github.com/DjordjeVuckovic/modelcfg/internal/storage"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ListResponse is the body of GET /api/v1/checks.
type ListResponse struct {
	Items  []check.Result `json:"items"`
	Count  int            `json:"count"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

type CheckRouter struct {
	e      *echo.Echo
	store  storage.Store
	strict bool
}

type CheckRouterOption func(*CheckRouter)

// WithDefaultStrict sets the strictness used when a request does not pass ?strict.
func WithDefaultStrict(strict bool) CheckRouterOption {
	return func(r *CheckRouter) {
		r.strict = strict
	}
}

func NewCheckRouter(e *echo.Echo, store storage.Store, opts ...CheckRouterOption) *CheckRouter {
	r := &CheckRouter{
		e:     e,
		store: store,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *CheckRouter) Bind() {
	g := r.e.Group("/api/v1/checks")
	g.POST("", r.createHandler)
	g.GET("", r.listHandler)
	g.GET("/:id", r.getHandler)
}

// createHandler godoc
// @Summary Check a descriptor
// @Description Validates an accuracy (YAML) or compression (JSON) descriptor and stores the result
// @Tags checks
// @Accept plain
// @Produce json
// @Param kind query string false "Descriptor kind (accuracy, compression); detected from content when omitted"
// @Param name query string false "File name recorded with the result"
// @Param strict query bool false "Treat warnings as failures"
// @Param descriptor body string true "Descriptor document"
// @Success 201 {object} check.Result
// @Failure 400 {object} map[string]string
// @Router /api/v1/checks [post]
func (r *CheckRouter) createHandler(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.NewValidationWrap("failed to read request body", err)
	}
	if len(body) == 0 {
		return apperr.NewValidation("request body must contain a descriptor")
	}

	var kind descriptor.Kind
	if raw := c.QueryParam("kind"); raw != "" {
		k, err := descriptor.ParseKind(raw)
		if err != nil {
			slog.Debug("ignoring unknown kind, detecting from content", "kind", raw)
		} else {
			kind = k
		}
	}

	strict := r.strict
	if raw := c.QueryParam("strict"); raw != "" {
		strict, err = strconv.ParseBool(raw)
		if err != nil {
			return apperr.NewValidationWrap("strict must be a boolean", err)
		}
	}

	ctx := c.Request().Context()
	result := check.New(check.Config{Strict: strict}).
		CheckBytes(ctx, c.QueryParam("name"), kind, body)
	metrics.ObserveCheck(result)

	if err := r.store.Save(ctx, result); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// getHandler godoc
// @Summary Get a check result
// @Tags checks
// @Produce json
// @Param id path string true "Result ID (UUID)"
// @Success 200 {object} check.Result
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/checks/{id} [get]
func (r *CheckRouter) getHandler(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.NewValidationWrap("id must be a UUID", err)
	}

	result, err := r.store.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// listHandler godoc
// @Summary List check results
// @Description Newest results first
// @Tags checks
// @Produce json
// @Param kind query string false "Filter by descriptor kind"
// @Param status query string false "Filter by status (valid, invalid, unreadable)"
// @Param name query string false "Filter by descriptor name"
// @Param limit query int false "Page size"
// @Param offset query int false "Results to skip"
// @Success 200 {object} ListResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/checks [get]
func (r *CheckRouter) listHandler(c echo.Context) error {
	f, err := parseFilter(c)
	if err != nil {
		return err
	}

	results, err := r.store.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ListResponse{
		Items:  results,
		Count:  len(results),
		Limit:  f.Limit,
		Offset: f.Offset,
	})
}

func parseFilter(c echo.Context) (storage.Filter, error) {
	f := storage.Filter{Name: c.QueryParam("name")}

	if raw := c.QueryParam("kind"); raw != "" {
		k, err := descriptor.ParseKind(raw)
		if err != nil {
			return f, apperr.NewValidationWrap("invalid kind", err)
		}
		f.Kind = k
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, ok := check.ParseStatus(raw)
		if !ok {
			return f, apperr.NewValidation("status must be one of valid, invalid, unreadable")
		}
		f.Status = st
	}

	var err error
	if f.Limit, err = intParam(c, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intParam(c, "offset"); err != nil {
		return f, err
	}
	return f, nil
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.NewValidation(name + " must be a non-negative integer")
	}
	return n, nil
}
