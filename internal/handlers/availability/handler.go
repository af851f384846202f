package availability

import (
	"errors"
	"net/http"

	"innkeeper/infras/otel"
	availabilityService "innkeeper/internal/domains/availability/service"
	inventoryModel "innkeeper/internal/domains/inventory/model"
	"innkeeper/internal/domains/inventory/model/dto"
	inventoryService "innkeeper/internal/domains/inventory/service"
	"innkeeper/shared/constant"
	"innkeeper/shared/failure"
	"innkeeper/shared/validator"
	"innkeeper/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	ledger       inventoryService.Ledger
	availability availabilityService.Availability
	otel         otel.Otel
}

func New(ledger inventoryService.Ledger, availability availabilityService.Availability, otel otel.Otel) Handler {
	return Handler{
		ledger:       ledger,
		availability: availability,
		otel:         otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/availability", func(routerGroup chi.Router) {
		routerGroup.Post("/check", handler.Check)
		routerGroup.Get("/search", handler.Search)
	})
}

// Check answers the booking flow's "can N rooms be sold for these dates"
// question from the ledger, never the cache.
func (handler *Handler) Check(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CheckAvailability")
	defer scope.End()

	req := dto.CheckAvailabilityRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	stay, err := req.Stay()
	if err != nil {
		response.WithError(writer, failure.InvalidDateRange)

		return
	}

	available, err := handler.ledger.CheckCapacity(ctx, req.PropertyID, req.RoomCategoryID, stay, req.Rooms)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to check availability")

		response.WithError(writer, apiError(err))

		return
	}

	response.WithJSON(writer, http.StatusOK, dto.CheckAvailabilityResponse{Available: available})
}

// Search serves browse queries from the availability cache.
func (handler *Handler) Search(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SearchAvailability")
	defer scope.End()

	query := request.URL.Query()
	stay, err := inventoryModel.ParseStayRange(query.Get(constant.RequestParamCheckIn), query.Get(constant.RequestParamCheckOut))
	if err != nil {
		response.WithError(writer, failure.InvalidDateRange)

		return
	}

	propertyID := query.Get(constant.RequestParamProperty)
	categoryID := query.Get(constant.RequestParamCategory)
	if propertyID == "" || categoryID == "" {
		response.WithError(writer, failure.BadRequestFromString("property_id and room_category_id are required"))

		return
	}

	snapshots, err := handler.availability.Search(ctx, propertyID, categoryID, stay)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to search availability")

		response.WithError(writer, apiError(err))

		return
	}

	response.WithJSON(writer, http.StatusOK, snapshots)
}

func apiError(err error) error {
	switch {
	case errors.Is(err, inventoryModel.ErrInvalidStayRange):
		return failure.InvalidDateRange
	case errors.Is(err, inventoryModel.ErrInvalidRoomCount):
		return failure.InvalidRoomCount
	case errors.Is(err, inventoryModel.ErrDateClosedOut):
		return failure.Conflict(err.Error())
	default:
		return failure.InternalError(err)
	}
}
