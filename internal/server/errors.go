package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/marketplace/internal/authorization"
	licensedomain "github.com/smallbiznis/marketplace/internal/license/domain"
	"github.com/smallbiznis/marketplace/internal/marketplace/api"
	"github.com/smallbiznis/marketplace/internal/plugins"
	"github.com/smallbiznis/marketplace/internal/ratelimit"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string { return "validation error" }

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// fieldErrors are sentinels reported as a single-field validation failure.
var fieldErrors = []struct {
	err     error
	field   string
	message string
}{
	{ErrInvalidRequest, "request", "invalid request"},
	{licensedomain.ErrInvalidLicenseKey, "license_key", "Entered license key is not valid"},
	{plugins.ErrInvalidPluginName, "plugin_name", "invalid plugin name"},
}

type errorRule struct {
	match   func(error) bool
	status  int
	kind    string
	message string
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

var errorRules = []errorRule{
	{is(authorization.ErrUnauthorized), http.StatusUnauthorized, "unauthorized", "unauthorized"},
	{is(authorization.ErrInvalidToken), http.StatusUnauthorized, "unauthorized", "unauthorized"},
	{is(authorization.ErrForbidden), http.StatusForbidden, "forbidden", "forbidden"},
	{is(plugins.ErrMarketplaceDisabled), http.StatusForbidden, "marketplace_disabled", "the marketplace is disabled"},
	{is(plugins.ErrPluginsAdminDisabled), http.StatusForbidden, "plugins_admin_disabled", "plugin administration is disabled"},
	{is(ratelimit.ErrLocked), http.StatusConflict, "conflict", "another license change is in progress"},
	{is(ratelimit.ErrRateLimited), http.StatusTooManyRequests, "rate_limited", "too many license key attempts"},
	{isNotFound, http.StatusNotFound, "not_found", "not found"},
	{api.IsTransport, http.StatusBadGateway, "marketplace_unavailable", "the marketplace could not be reached"},
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		status, payload := mapError(last.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{Errors: []ValidationError{{Field: field, Code: code, Message: message}}}
}

func mapError(err error) (int, errorPayload) {
	if verrs := validationErrors(err); verrs != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: verrs[0].Message,
			Errors:  verrs,
		}
	}
	if err != nil {
		for _, rule := range errorRules {
			if rule.match(err) {
				return rule.status, errorPayload{Type: rule.kind, Message: rule.message}
			}
		}
	}
	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
}

// validationErrors returns the field errors carried by err, or nil when err
// is not a validation failure.
func validationErrors(err error) []ValidationError {
	if err == nil {
		return nil
	}
	var verr *ValidationErrors
	if errors.As(err, &verr) && verr != nil && len(verr.Errors) > 0 {
		return verr.Errors
	}
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return []ValidationError{{Field: fe.field, Code: fe.err.Error(), Message: fe.message}}
		}
	}
	return nil
}

func isNotFound(err error) bool {
	if code, ok := api.CodeOf(err); ok {
		return code == api.CodeNotFound
	}
	return errors.Is(err, ErrNotFound)
}

// classifyErrorForLog returns the response type and a stable code for err.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if code, ok := api.CodeOf(err); ok {
		return payload.Type, string(code)
	}
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, payload.Type
}
