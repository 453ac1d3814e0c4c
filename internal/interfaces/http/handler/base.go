package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/arvinbobis/reverse-dcf/internal/domain/shared"
	"github.com/arvinbobis/reverse-dcf/internal/domain/valuation"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/dto"
	"github.com/arvinbobis/reverse-dcf/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with batch counters
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, succeeded, failed int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, succeeded, failed))
}

// BindJSON decodes and validates the request body into req. On failure the
// error response is already written and false is returned.
func (h *BaseHandler) BindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.HandleError(c, err)
		return false
	}
	return true
}

// HandleError writes the error response for err.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	status, resp := ErrorResponseFor(err, getRequestID(c))
	h.respond(c, status, resp)
}

// ErrorResponseFor maps binding, validation and domain errors onto the
// response envelope. Anything unrecognised becomes a 500 without leaking
// its text.
func ErrorResponseFor(err error, requestID string) (int, dto.Response) {
	if details := assumptionDetails(err); details != nil {
		return http.StatusBadRequest, dto.NewDetailedErrorResponse(
			dto.ErrCodeInvalidAssumption, "Invalid valuation assumptions", requestID, details)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithHelp(
			dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size", requestID,
			fmt.Sprintf("limit is %d bytes", tooLarge.Limit))
	}

	if errors.Is(err, dto.ErrInvalidNumber) {
		return http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeValidationFormat, err.Error(), requestID)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, fmt.Sprintf("Field %q has the wrong type", typeErr.Field), requestID)
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeInvalidJSON, "Request body is not valid JSON", requestID)
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return http.StatusBadRequest, middleware.FormatValidationErrors(err, requestID)
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		return dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID)
	}

	return http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal, "An unexpected error occurred", requestID)
}

func (h *BaseHandler) respond(c *gin.Context, status int, resp dto.Response) {
	if resp.Error != nil {
		c.Set(middleware.ErrorCodeKey, resp.Error.Code)
	}
	c.JSON(status, resp)
}

// assumptionDetails lists the fields of a failed assumption check, or nil
// when err is not one.
func assumptionDetails(err error) []dto.ValidationDetail {
	var many valuation.ValidationErrors
	if errors.As(err, &many) {
		details := make([]dto.ValidationDetail, len(many))
		for i, e := range many {
			details[i] = dto.ValidationDetail{Field: e.Field, Message: e.Reason}
		}
		return details
	}
	var one *valuation.ValidationError
	if errors.As(err, &one) {
		return []dto.ValidationDetail{{Field: one.Field, Message: one.Reason}}
	}
	return nil
}
