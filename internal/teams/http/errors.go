package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/pkg/consolesdk"
	"github.com/aussiebroadwan/gpuconsole/pkg/slogx"
)

// writeError maps the domain taxonomy onto status codes. Anything outside it
// is logged and reported as a server error without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *consolesdk.APIError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		apiErr = consolesdk.NewAPIError(http.StatusNotFound, consolesdk.ErrorCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrExpired):
		apiErr = consolesdk.NewAPIError(http.StatusGone, consolesdk.ErrorCodeExpired, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		apiErr = consolesdk.NewAPIError(http.StatusForbidden, consolesdk.ErrorCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		apiErr = consolesdk.NewAPIError(http.StatusBadRequest, consolesdk.ErrorCodeInvalidRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		apiErr = consolesdk.NewAPIError(http.StatusConflict, consolesdk.ErrorCodeConflict, err.Error())
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		apiErr = consolesdk.NewAPIError(http.StatusInternalServerError, consolesdk.ErrorCodeServerError, "internal server error")
	}
	apiErr.WriteError(w)
}

func writeBadJSON(w http.ResponseWriter) {
	consolesdk.NewAPIError(http.StatusBadRequest, consolesdk.ErrorCodeInvalidRequest, "Invalid JSON body").WriteError(w)
}
