package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func dataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{
		Status:  status,
		Message: http.StatusText(status),
		Data:    data,
	})
}

// SuccessResponse wraps data in a 200 envelope.
func SuccessResponse(c echo.Context, data interface{}) error {
	return dataResponse(c, http.StatusOK, data)
}

// ListResponse wraps rows and their count in a 200 envelope.
func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return dataResponse(c, http.StatusOK, &ListDataResponse{Rows: rows, Total: total})
}

// BadRequestResponse renders validation failures.
func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	return dataResponse(c, http.StatusBadRequest, errs)
}

// AppErrorResponse renders err with its own status. Errors that are not an
// AppError become an opaque 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError("Something went wrong").WithError(err)
	}
	return dataResponse(c, appErr.Status, []*AppError{appErr})
}
