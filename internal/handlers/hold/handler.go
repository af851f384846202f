package hold

import (
	"errors"
	"net/http"

	"innkeeper/infras/otel"
	"innkeeper/internal/domains/hold/model"
	"innkeeper/internal/domains/hold/model/dto"
	"innkeeper/internal/domains/hold/service"
	inventoryModel "innkeeper/internal/domains/inventory/model"
	"innkeeper/shared/constant"
	"innkeeper/shared/failure"
	"innkeeper/shared/validator"
	"innkeeper/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Holds
	otel    otel.Otel
}

func New(service service.Holds, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/holds", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateHold)
		routerGroup.Get("/", handler.ListHolds)
		routerGroup.Post("/{id}/convert", handler.ConvertHold)
		routerGroup.Post("/{id}/release", handler.ReleaseHold)
	})
}

func (handler *Handler) CreateHold(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateHold")
	defer scope.End()

	req := dto.CreateHoldRequest{}
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

	hold, err := handler.service.Create(ctx, service.CreateHold{
		SessionID:  req.SessionID,
		PropertyID: req.PropertyID,
		CategoryID: req.RoomCategoryID,
		Stay:       stay,
		Rooms:      req.Rooms,
	})
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create hold")

		response.WithError(writer, apiError(err))

		return
	}

	scope.AddEvent("Hold created for session " + req.SessionID)

	response.WithJSON(writer, http.StatusCreated, dto.HoldResponseFromModel(hold))
}

func (handler *Handler) ListHolds(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ListHolds")
	defer scope.End()

	sessionID := request.URL.Query().Get(constant.RequestParamSessionID)
	if sessionID == "" {
		response.WithError(writer, failure.BadRequestFromString("session_id is required"))

		return
	}

	holds, err := handler.service.ListActiveForSession(ctx, sessionID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list session holds")

		response.WithError(writer, apiError(err))

		return
	}

	response.WithJSON(writer, http.StatusOK, dto.HoldResponsesFromModels(holds))
}

func (handler *Handler) ConvertHold(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ConvertHold")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.ConvertHoldRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	hold, err := handler.service.Convert(ctx, id, req.SessionID, req.BookingID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("holdId", id).Msg("failed to convert hold")

		response.WithError(writer, apiError(err))

		return
	}

	scope.AddEvent("Hold converted to booking " + req.BookingID)

	response.WithJSON(writer, http.StatusOK, dto.HoldResponseFromModel(hold))
}

func (handler *Handler) ReleaseHold(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ReleaseHold")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.ReleaseHoldRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	if err := handler.service.Release(ctx, id, req.SessionID); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("holdId", id).Msg("failed to release hold")

		response.WithError(writer, apiError(err))

		return
	}

	response.WithMessage(writer, http.StatusOK, "Hold released successfully")
}

func apiError(err error) error {
	switch {
	case errors.Is(err, model.ErrHoldNotFound):
		return failure.NotFound(model.EntityName)
	case errors.Is(err, model.ErrHoldExpired):
		return failure.Gone(err.Error())
	case errors.Is(err, model.ErrHoldAlreadyConverted),
		errors.Is(err, model.ErrHoldNotActive),
		errors.Is(err, inventoryModel.ErrInsufficientCapacity),
		errors.Is(err, inventoryModel.ErrDateClosedOut):
		return failure.Conflict(err.Error())
	case errors.Is(err, model.ErrHoldNotOwned):
		return failure.Forbidden(err.Error())
	case errors.Is(err, inventoryModel.ErrInvalidRoomCount):
		return failure.InvalidRoomCount
	case errors.Is(err, inventoryModel.ErrInvalidStayRange):
		return failure.InvalidDateRange
	default:
		return failure.InternalError(err)
	}
}
