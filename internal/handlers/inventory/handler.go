package inventory

import (
	"errors"
	"net/http"

	"innkeeper/infras/otel"
	"innkeeper/internal/domains/inventory/model"
	"innkeeper/internal/domains/inventory/model/dto"
	"innkeeper/internal/domains/inventory/service"
	"innkeeper/shared/constant"
	"innkeeper/shared/failure"
	"innkeeper/shared/validator"
	"innkeeper/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Ledger
	otel    otel.Otel
}

func New(service service.Ledger, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/inventory", func(routerGroup chi.Router) {
		routerGroup.Get("/days", handler.ListDays)
		routerGroup.Post("/blocks", handler.SetBlocked)
		routerGroup.Put("/capacity", handler.SetCapacity)
	})
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/cancel", handler.CancelBooking)
	})
}

func (handler *Handler) ListDays(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ListDays")
	defer scope.End()

	query := request.URL.Query()

	propertyID := query.Get(constant.RequestParamProperty)
	categoryID := query.Get(constant.RequestParamCategory)
	if propertyID == "" || categoryID == "" {
		response.WithError(writer, failure.BadRequestFromString("property_id and room_category_id are required"))

		return
	}

	stay, err := model.ParseStayRange(query.Get(constant.RequestParamCheckIn), query.Get(constant.RequestParamCheckOut))
	if err != nil {
		response.WithError(writer, failure.InvalidDateRange)

		return
	}

	days, err := handler.service.Days(ctx, propertyID, categoryID, stay)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list inventory days")

		response.WithError(writer, apiError(err))

		return
	}

	items := make([]dto.DayResponse, 0, len(days))
	for _, day := range days {
		items = append(items, dto.DayResponseFromModel(day))
	}

	response.WithJSON(writer, http.StatusOK, items)
}

func (handler *Handler) SetBlocked(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetBlocked")
	defer scope.End()

	req := dto.SetBlockedRequest{}
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

	if err := handler.service.SetBlocked(ctx, req.PropertyID, req.RoomCategoryID, stay, req.Rooms); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to block inventory")

		response.WithError(writer, apiError(err))

		return
	}

	response.WithMessage(writer, http.StatusOK, "Inventory blocked successfully")
}

func (handler *Handler) SetCapacity(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SetCapacity")
	defer scope.End()

	req := dto.SetCapacityRequest{}
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

	if err := handler.service.SetCapacity(ctx, req.PropertyID, req.RoomCategoryID, stay, req.TotalRooms); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to set inventory capacity")

		response.WithError(writer, apiError(err))

		return
	}

	response.WithMessage(writer, http.StatusOK, "Inventory capacity updated successfully")
}

func (handler *Handler) CancelBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	req := dto.CancelBookingRequest{}
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

	if err := handler.service.CancelBooking(ctx, req.PropertyID, req.RoomCategoryID, stay, req.Rooms); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel booking")

		response.WithError(writer, apiError(err))

		return
	}

	response.WithMessage(writer, http.StatusOK, "Booking cancelled successfully")
}

func apiError(err error) error {
	switch {
	case errors.Is(err, model.ErrInventoryNotFound):
		return failure.NotFound(model.EntityName)
	case errors.Is(err, model.ErrInsufficientCapacity), errors.Is(err, model.ErrInvariantViolation):
		return failure.Conflict(err.Error())
	case errors.Is(err, model.ErrInvalidStayRange):
		return failure.InvalidDateRange
	case errors.Is(err, model.ErrInvalidRoomCount):
		return failure.InvalidRoomCount
	default:
		return failure.InternalError(err)
	}
}
