package proposal

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/arena-hq/arena-engine/internal/appcontext"
	"github.com/arena-hq/arena-engine/internal/tracing"
	"github.com/arena-hq/arena-engine/pkg/events"
	"github.com/arena-hq/arena-engine/pkg/lifecycle"
	"github.com/arena-hq/arena-engine/pkg/matching"
	"github.com/arena-hq/arena-engine/pkg/models"
	"github.com/arena-hq/arena-engine/pkg/utils"
)

// Register registers proposal lifecycle routes
func Register(g *echo.Group) {
	g.POST("", CreateDraft)
	g.GET("/:id", Get)
	g.POST("/:id/submit", Submit)
	g.POST("/:id/review", Review)
	g.POST("/:id/accept", Accept)
	g.POST("/:id/reject", Reject)
	g.POST("/:id/withdraw", Withdraw)
}

// RegisterRequestRoutes registers the proposal listing under the requests
// group.
func RegisterRequestRoutes(g *echo.Group) {
	g.GET("/:id/proposals", ListByRequest)
}

// CreateDraft opens a draft proposal for a vendor against a request. The
// vendor must appear in the request's current classification.
func CreateDraft(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "proposal_handler.CreateDraft")
	defer span.End()

	actor := appcontext.GetActorID(ctx)
	if actor == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "actor id is required")
	}

	req, err := utils.BindRequest[models.CreateDraftProposalRequest](c)
	if err != nil {
		return err
	}

	ctx, matcher, err := ectoinject.GetContext[*matching.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get matching service")
	}

	eligible, err := matcher.EligibleVendor(ctx, req.RequestID, req.VendorID)
	if err != nil {
		return err
	}
	if !eligible {
		return httperror.NewHTTPError(http.StatusForbidden, "vendor is not matched to this request")
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	result, err := service.CreateDraft(ctx, req.RequestID, req.VendorID, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// Get returns a single proposal with its audit trail.
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "proposal_handler.Get")
	defer span.End()

	id := c.Param("id")
	if err := utils.ValidateValue(id, "required,uuid"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	ctx, store, err := ectoinject.GetContext[lifecycle.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get proposal store")
	}

	result, err := store.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ListByRequest returns all proposals for a request, oldest first.
func ListByRequest(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "proposal_handler.ListByRequest")
	defer span.End()

	requestID := c.Param("id")
	if err := utils.ValidateValue(requestID, "required,uuid"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	ctx, store, err := ectoinject.GetContext[lifecycle.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get proposal store")
	}

	result, err := store.ListByRequest(ctx, requestID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Submit moves a draft proposal to submitted.
func Submit(c echo.Context) error {
	return transition(c, "proposal_handler.Submit", models.ProposalStatusSubmitted)
}

// Review moves a submitted proposal to under review.
func Review(c echo.Context) error {
	return transition(c, "proposal_handler.Review", models.ProposalStatusUnderReview)
}

// Accept marks a proposal as the winner for its request. Competing open
// proposals are rejected in the same transaction.
func Accept(c echo.Context) error {
	return transition(c, "proposal_handler.Accept", models.ProposalStatusAccepted)
}

// Reject closes a proposal with a reason.
func Reject(c echo.Context) error {
	return transition(c, "proposal_handler.Reject", models.ProposalStatusRejected)
}

// Withdraw lets a vendor pull an open proposal out of consideration.
func Withdraw(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "proposal_handler.Withdraw")
	defer span.End()

	actor := appcontext.GetActorID(ctx)
	if actor == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "actor id is required")
	}

	id := c.Param("id")
	if err := utils.ValidateValue(id, "required,uuid"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	req, err := utils.BindRequest[models.TransitionRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	result, evs, err := service.Withdraw(ctx, id, actor, req.ExpectedVersion)
	if err != nil {
		return err
	}

	publishEvents(c, evs)

	return c.JSON(http.StatusOK, result)
}

func transition(c echo.Context, spanName string, target models.ProposalStatus) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, spanName)
	defer span.End()

	actor := appcontext.GetActorID(ctx)
	if actor == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "actor id is required")
	}

	id := c.Param("id")
	if err := utils.ValidateValue(id, "required,uuid"); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	req, err := utils.BindRequest[models.TransitionRequest](c)
	if err != nil {
		return err
	}

	ctx, service, err := ectoinject.GetContext[*lifecycle.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get lifecycle service")
	}

	result, evs, err := service.Transition(ctx, id, target, actor, req.Reason, req.ExpectedVersion)
	if err != nil {
		return err
	}

	publishEvents(c, evs)

	return c.JSON(http.StatusOK, result)
}

// publishEvents emits lifecycle events after the transition has committed.
// Publish failures never fail the request; the transition already happened.
func publishEvents(c echo.Context, evs []events.LifecycleEvent) {
	if len(evs) == 0 {
		return
	}

	ctx := c.Request().Context()

	ctx, publisher, err := ectoinject.GetContext[events.Publisher](ctx)
	if err != nil {
		return
	}

	for _, ev := range evs {
		_ = publisher.Publish(ctx, ev)
	}
}
