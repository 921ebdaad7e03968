package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/tutoring-schedule/internal/model"
    "github.com/iliyamo/tutoring-schedule/internal/repository"
    "github.com/iliyamo/tutoring-schedule/internal/schedule"
    "github.com/iliyamo/tutoring-schedule/internal/service"
)

// inputError is a malformed request; it always maps to 400.
type inputError struct {
    msg    string
    fields map[string]string
}

func (e *inputError) Error() string { return e.msg }

func invalidInput(msg string) error { return &inputError{msg: msg} }

// bindAndValidate decodes the request into dst and runs the validator.
func bindAndValidate(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return invalidInput("invalid request body")
    }
    if err := c.Validate(dst); err != nil {
        if fields := validationDetails(err); fields != nil {
            return &inputError{msg: "validation failed", fields: fields}
        }
        return invalidInput(err.Error())
    }
    return nil
}

// conflictResponse is the 409 body for a refused booking.
func conflictResponse(c echo.Context, report model.ConflictReport) error {
    return c.JSON(http.StatusConflict, echo.Map{
        "error":     "conflict",
        "candidate": report.Candidate,
        "conflicts": report.Conflicts,
    })
}

// writeError maps service errors to HTTP statuses.
func (h *ScheduleHandler) writeError(c echo.Context, op string, err error) error {
    var unknown *service.UnknownResourceError
    var input *inputError
    switch {
    case errors.As(err, &input):
        body := echo.Map{"error": input.msg}
        if input.fields != nil {
            body["fields"] = input.fields
        }
        return c.JSON(http.StatusBadRequest, body)
    case errors.As(err, &unknown):
        return c.JSON(http.StatusNotFound, echo.Map{"error": unknown.Error()})
    case errors.Is(err, repository.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
    case errors.Is(err, model.ErrInvalidRange),
        errors.Is(err, schedule.ErrInvalidGridConfig),
        errors.Is(err, service.ErrTemplateSessionDate):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrStoreUnavailable):
        h.logger.Warn("store unavailable", zap.String("op", op), zap.Error(err))
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable, retry later"})
    case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request cancelled"})
    }
    h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
