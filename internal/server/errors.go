package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/apperr"
	"github.com/aman-zulfiqar/cardano-adaptive-ui/internal/storage"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.InvalidInput:
		return http.StatusBadRequest
	case apperr.NotFound, apperr.NoProviderFound, apperr.NoInterfaceFound:
		return http.StatusNotFound
	case apperr.ActionResolutionFailed:
		return http.StatusUnprocessableEntity
	case apperr.ClassificationUnavailable:
		return http.StatusServiceUnavailable
	case apperr.MalformedResponse, apperr.ExecutionFailed:
		return http.StatusBadGateway
	case apperr.DependencyNotResolved, apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// clientDetails lists the kinds whose details are meant for the client
// (field errors, the missing dependency, the suggested platform) and are
// returned outside dev mode too.
var clientDetails = map[apperr.Kind]bool{
	apperr.InvalidInput:           true,
	apperr.NoProviderFound:        true,
	apperr.NoInterfaceFound:       true,
	apperr.ActionResolutionFailed: true,
	apperr.DependencyNotResolved:  true,
}

// errorResponse renders err. Causes are only exposed in dev mode.
func errorResponse(err error, devMode bool) (int, ErrorResponse) {
	if e, ok := apperr.As(err); ok {
		code := statusFor(e.Kind)
		resp := ErrorResponse{Error: e.Message, Code: code, Category: string(e.Kind)}
		if code == http.StatusInternalServerError && !devMode {
			resp.Error = "internal server error"
		}
		details := map[string]any{}
		if clientDetails[e.Kind] || devMode {
			for k, v := range e.Details {
				details[k] = v
			}
		}
		if devMode && e.Cause != nil {
			details["cause"] = e.Cause.Error()
		}
		if len(details) > 0 {
			resp.Details = details
		}
		return code, resp
	}

	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound, Category: string(apperr.NotFound)}
	}

	resp := ErrorResponse{Error: "internal server error", Code: http.StatusInternalServerError, Category: string(apperr.Internal)}
	if devMode {
		resp.Details = map[string]any{"cause": err.Error()}
	}
	return http.StatusInternalServerError, resp
}

// JSONErrorHandler returns a custom HTTP error handler that returns JSON responses
// This ensures all errors (including 404s) have consistent JSON format
func JSONErrorHandler(devMode bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		// Don't send response if already committed
		if c.Response().Committed {
			return
		}

		// Handle Echo HTTP errors (like 404, 401, 429)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error:    http.StatusText(he.Code),
				Code:     he.Code,
				Category: "http",
			})
			return
		}

		code, resp := errorResponse(err, devMode)
		_ = c.JSON(code, resp)
	}
}
