package constant

import (
	"time"
)

const (
	RequestParamID        = "id"
	RequestParamSessionID = "session_id"
	RequestParamProperty  = "property_id"
	RequestParamCategory  = "room_category_id"
	RequestParamCheckIn   = "check_in"
	RequestParamCheckOut  = "check_out"
)

const (
	DateFormat     = time.RFC3339
	StayDateFormat = "2006-01-02"
)

const (
	OtelServiceScopeName    = "service"
	OtelRepositoryScopeName = "repository"
	OtelHandlerScopeName    = "handler"
	OtelWorkerScopeName     = "worker"

	OtelQueryAttributeKey = "query"
)

const (
	RequestHeaderUserAgent          = "User-Agent"
	RequestHeaderContentType        = "Content-Type"
	RequestHeaderRateLimit          = "X-RateLimit-Limit"
	RequestHeaderRateLimitRemaining = "X-RateLimit-Remaining"
	RequestHeaderRateLimitWindow    = "X-RateLimit-Window"
	RequestHeaderForwardedFor       = "X-Forwarded-For"
	RequestHeaderRealIP             = "X-Real-IP"
)

const (
	ContentTypeJSON = "application/json"
)

const (
	ResponseErrorPrepareShutdown      = "SERVER PREPARING TO SHUT DOWN"
	ResponseErrorUnhealthy            = "SERVER UNHEALTHY"
	ResponseErrorRequestLimitExceeded = "REQUEST LIMIT EXCEEDED"
)

const (
	ServerEnvDevelopment = "development"
	ServerEnvProduction  = "production"
)
