package request

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/arena-hq/arena-engine/internal/appcontext"
	requestrepo "github.com/arena-hq/arena-engine/internal/repositories/request"
	"github.com/arena-hq/arena-engine/internal/tracing"
	"github.com/arena-hq/arena-engine/pkg/matching"
	"github.com/arena-hq/arena-engine/pkg/models"
	"github.com/arena-hq/arena-engine/pkg/utils"
)

// Register registers buyer request routes
func Register(g *echo.Group) {
	g.POST("", Create)
	g.GET("/:id", Get)
	g.PUT("/:id/requirements", UpdateRequirements)
	g.GET("/:id/matches", Matches)
}

// Create opens a new buyer request from raw requirement text.
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "request_handler.Create")
	defer span.End()

	buyerID := appcontext.GetActorID(ctx)
	if buyerID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "actor id is required")
	}

	req, err := utils.BindRequest[models.CreateRequestRequest](c)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*requestrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Create(ctx, buyerID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// Get returns a single buyer request by id.
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "request_handler.Get")
	defer span.End()

	id := c.Param("id")
	if err := utils.ValidateValue(id, "required,uuid"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	ctx, repo, err := ectoinject.GetContext[*requestrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// UpdateRequirements stores a re-parsed requirement set and returns the
// classification recomputed from it. Readers never see a list computed from
// the older requirement set once this returns.
func UpdateRequirements(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "request_handler.UpdateRequirements")
	defer span.End()

	id := c.Param("id")
	if err := utils.ValidateValue(id, "required,uuid"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	req, err := utils.BindRequest[models.UpdateRequirementsRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get matching service")
	}

	list, err := service.UpdateRequirements(ctx, id, req.Requirements)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}

// Matches returns the current classified vendor list for a request.
func Matches(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "request_handler.Matches")
	defer span.End()

	id := c.Param("id")
	if err := utils.ValidateValue(id, "required,uuid"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	ctx, service, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get matching service")
	}

	list, err := service.Matches(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}
