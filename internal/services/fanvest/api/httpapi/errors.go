package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
	"github.com/louisbranch/fanvest/internal/platform/errors/i18n"
	"github.com/louisbranch/fanvest/internal/platform/requestctx"
)

// ErrorResponse is the JSON body of every rejection.
type ErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Retry    string `json:"retry"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("write response", "error", err)
	}
}

// writeError renders err with a localized message. Errors without a domain
// code are logged and reported as UNKNOWN.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := apperrors.CodeOf(err)
	var metadata map[string]string
	if domainErr, ok := asDomainError(err); ok {
		metadata = domainErr.Metadata
	}
	if code == apperrors.CodeUnknown {
		logger.Error("request failed", "path", r.URL.Path, "request_id", requestctx.RequestIDFromContext(r.Context()), "error", err)
	}
	writeCode(w, r, runtime.HTTPStatusFromCode(code.GRPCCode()), code, metadata)
}

func writeCode(w http.ResponseWriter, r *http.Request, status int, code apperrors.Code, metadata map[string]string) {
	catalog := i18n.GetCatalog(requestctx.LocaleFromContext(r.Context()))
	writeJSON(w, status, ErrorResponse{
		Code:     string(code),
		Message:  catalog.Format(string(code), metadata),
		Category: string(code.Category()),
		Retry:    string(code.Retry()),
	})
}

// invalidInput reports a malformed request field.
func invalidInput(w http.ResponseWriter, r *http.Request, field string) {
	writeCode(w, r, http.StatusBadRequest, apperrors.CodeInvalidInput, map[string]string{"Field": field})
}

func asDomainError(err error) (*apperrors.Error, bool) {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}
