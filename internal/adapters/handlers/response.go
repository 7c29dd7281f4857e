package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ErrorResponse возвращает стандартизированный ответ с ошибкой.
// Ошибки клиента пишутся в WARN, ошибки агента в ERROR.
func (h *Handler) ErrorResponse(c *gin.Context, err error, statusCode int, message string, showError bool) {
	errorMessage := message
	if showError && err != nil {
		errorMessage = message + ": " + err.Error()
	}

	if statusCode >= http.StatusInternalServerError {
		h.logger.Error(message, "error", err, "statusCode", statusCode)
	} else {
		h.logger.Warn(message, "error", err, "statusCode", statusCode)
	}

	resp := models.ErrorResponse{Status: "error"}
	resp.Error.Code = statusCode
	resp.Error.Message = errorMessage
	c.AbortWithStatusJSON(statusCode, resp)
}

// BadRequest возвращает ошибку 400
func (h *Handler) BadRequest(c *gin.Context, err error, message string) {
	if message == "" {
		message = errors.BadRequest
	}
	h.ErrorResponse(c, err, http.StatusBadRequest, message, true)
}

// InternalError возвращает ошибку 500
func (h *Handler) InternalError(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusInternalServerError, errors.InternalServerError, false)
}

// NotFound возвращает ошибку 404
func (h *Handler) NotFound(c *gin.Context, err error) {
	h.ErrorResponse(c, err, http.StatusNotFound, errors.NotFound, true)
}

// Fail подбирает код ответа по ошибке домена
func (h *Handler) Fail(c *gin.Context, err error) {
	var appErr *errors.AppError
	switch code := errors.StatusCode(err); {
	case stderrors.As(err, &appErr):
		h.ErrorResponse(c, err, appErr.Code, appErr.Message, appErr.IsUserFacing)
	case code == http.StatusBadRequest:
		h.BadRequest(c, err, "")
	case code == http.StatusForbidden:
		h.ErrorResponse(c, err, code, errors.Forbidden, true)
	case code == http.StatusNotFound:
		h.NotFound(c, err)
	default:
		h.InternalError(c, err)
	}
}
