package rest

import (
	"net/http"

	"github.com/bwise1/snapguide_api/internal/logging"
	"github.com/bwise1/snapguide_api/util"
	"github.com/bwise1/snapguide_api/util/tracing"
	"github.com/bwise1/snapguide_api/util/values"
	"github.com/goccy/go-json"
)

// ServerResponse is the envelope of every API response.
type ServerResponse struct {
	Err        error       `json:"-"`
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
}

func respondWithData(data interface{}, message, status string) *ServerResponse {
	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       data,
	}
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	ev := logging.Warn()
	if util.StatusCode(status) >= http.StatusInternalServerError {
		ev = logging.Error()
	}
	if tc != nil {
		ev = ev.Str("request_id", tc.RequestID).Str("request_source", tc.RequestSource)
	}
	ev.Err(err).Str("status", status).Msg(message)

	return &ServerResponse{
		Err:        err,
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	logging.Warn().Err(err).Str("status", status).Msg(message)
	resp := ServerResponse{Message: message, Status: status, StatusCode: util.StatusCode(status)}
	b, _ := json.Marshal(resp)
	writeJSONResponse(w, b, resp.StatusCode)
}

func writeJSONResponse(w http.ResponseWriter, body []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		logging.Error().Err(err).Msg("writing response")
	}
}

// tracingContext returns the tracing context set by RequestTracing.
func tracingContext(r *http.Request) tracing.Context {
	tc, _ := tracing.FromContext(r.Context())
	return tc
}

// statusOf is util.StatusFor with a message for the client.
func statusOf(err error, fallback string) (string, string) {
	status := util.StatusFor(err)
	switch status {
	case values.BadRequestBody:
		return status, err.Error()
	case values.NotFound:
		return status, "resource not found"
	case values.Unavailable:
		return status, "service temporarily unavailable"
	default:
		return status, fallback
	}
}
