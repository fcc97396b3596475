package api

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/timeline/pkg/errors"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error     errorDetail `json:"error"`
	RequestID string      `json:"requestId,omitempty"`
}

func errorBody(r *http.Request, code, msg string) errorResponse {
	return errorResponse{Error: errorDetail{Code: code, Message: msg}, RequestID: RequestID(r.Context())}
}

// statusOf maps an error code to an HTTP status.
func statusOf(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidCategory, errors.ErrCodeInvalidBucket,
		errors.ErrCodeDate, errors.ErrCodeConfig:
		return http.StatusBadRequest
	case errors.ErrCodeRange, errors.ErrCodeOutOfRange:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusOf(code)
	msg := errors.UserMessage(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err, "request_id", RequestID(r.Context()))
		msg = "internal error"
	}
	writeJSON(w, r, status, errorBody(r, string(code), msg))
}

func writeJSON(w http.ResponseWriter, _ *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}
