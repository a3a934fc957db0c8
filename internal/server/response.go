package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rickgao/stockwatch/internal/app"
	"github.com/rickgao/stockwatch/internal/model"
	"github.com/rickgao/stockwatch/internal/watchlist"
)

// Response is the JSON envelope for every API reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success writes a 200 envelope around data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
}

// Fail writes an error envelope with no data.
func Fail(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Code:    httpStatus,
		Message: message,
	})
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, watchlist.ErrGroupNotFound),
		errors.Is(err, watchlist.ErrSymbolNotFound):
		return http.StatusNotFound
	case errors.Is(err, watchlist.ErrGroupExists),
		errors.Is(err, watchlist.ErrDuplicateSymbol):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidSymbol),
		errors.Is(err, watchlist.ErrInvalidName),
		errors.Is(err, watchlist.ErrLastGroup),
		errors.Is(err, watchlist.ErrReadOnlyGroup):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrNoQuote):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// failErr writes err with its mapped status. Internal errors are logged
// and reported without detail.
func (s *Server) failErr(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", RequestIDFromGin(c),
			"path", c.Request.URL.Path,
			"err", err,
		)
		Fail(c, status, "internal error")
		return
	}
	Fail(c, status, err.Error())
}
