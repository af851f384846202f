package pricing

import (
	"errors"
	"net/http"

	"innkeeper/infras/otel"
	inventoryModel "innkeeper/internal/domains/inventory/model"
	"innkeeper/internal/domains/pricing/model/dto"
	"innkeeper/internal/domains/pricing/service"
	"innkeeper/shared/constant"
	"innkeeper/shared/failure"
	"innkeeper/shared/validator"
	"innkeeper/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Engine
	otel    otel.Otel
}

func New(service service.Engine, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/quotes", handler.Quote)
	router.Route("/pricing", func(routerGroup chi.Router) {
		routerGroup.Post("/rules/reload", handler.ReloadRules)
	})
}

func (handler *Handler) Quote(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".Quote")
	defer scope.End()

	req := dto.QuoteRequest{}
	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	date, err := req.ParsedDate()
	if err != nil {
		response.WithError(writer, failure.BadRequestFromString("date must be formatted as "+constant.StayDateFormat))

		return
	}

	quote, err := handler.service.Quote(ctx, req.PropertyID, req.RoomCategoryID, date, req.BaseRate, req.Context)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to quote rate")

		response.WithError(writer, apiError(err))

		return
	}

	response.WithJSON(writer, http.StatusOK, quote)
}

func (handler *Handler) ReloadRules(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ReloadRules")
	defer scope.End()

	if err := handler.service.Invalidate(ctx); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to reload pricing rules")

		response.WithError(writer, failure.InternalError(err))

		return
	}

	scope.AddEvent("Pricing rules reloaded")

	response.WithMessage(writer, http.StatusOK, "Pricing rules reloaded successfully")
}

func apiError(err error) error {
	switch {
	case errors.Is(err, inventoryModel.ErrDateClosedOut):
		return failure.Conflict(err.Error())
	default:
		return failure.InternalError(err)
	}
}
