package handler

// HTTP surface of the scheduling service: booking proposals and their
// lifecycle, weekly generation, generation status and the reservation
// grid.  Handlers translate requests into service calls, map errors to
// statuses and, after a committed write, publish a schedule event and
// invalidate cached reads.

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/tutoring-schedule/internal/model"
    "github.com/iliyamo/tutoring-schedule/internal/queue"
    "github.com/iliyamo/tutoring-schedule/internal/schedule"
    "github.com/iliyamo/tutoring-schedule/internal/service"
)

// ScheduleService is the part of service.SchedulingService the handlers use.
type ScheduleService interface {
    ProposeBooking(ctx context.Context, req service.BookingRequest) (service.BookingResult, error)
    GetBooking(ctx context.Context, ref model.BookingRef) (model.Booking, error)
    RescheduleBooking(ctx context.Context, ref model.BookingRef, req service.RescheduleRequest) (service.BookingResult, error)
    CancelBooking(ctx context.Context, ref model.BookingRef) error
    GenerateWeek(ctx context.Context, req service.GenerateWeekRequest) (*schedule.GenerationResult, error)
    GetGenerationStatus(ctx context.Context, branchID int64, weekStart model.Date, academicYearID *int64) (service.GenerationStatus, error)
    BuildGrid(ctx context.Context, req service.GridRequest) (schedule.Grid, error)
}

// EventPublisher delivers schedule events; queue.Publisher implements it.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.ScheduleEvent) error
}

// CacheInvalidator drops cached schedule reads; middleware.ResponseCache
// implements it.
type CacheInvalidator interface {
    Invalidate(ctx context.Context)
}

type ScheduleHandler struct {
    svc    ScheduleService
    grid   schedule.GridConfig
    logger *zap.Logger
    events EventPublisher
    cache  CacheInvalidator
}

type Option func(*ScheduleHandler)

// WithEvents publishes an event after every committed write.
func WithEvents(p EventPublisher) Option {
    return func(h *ScheduleHandler) { h.events = p }
}

func WithCacheInvalidator(ci CacheInvalidator) Option {
    return func(h *ScheduleHandler) { h.cache = ci }
}

// NewScheduleHandler panics on a nil service.  gridDefaults fills the
// window fields a grid request leaves out.
func NewScheduleHandler(svc ScheduleService, gridDefaults schedule.GridConfig, logger *zap.Logger, opts ...Option) *ScheduleHandler {
    if svc == nil {
        panic("nil service passed to NewScheduleHandler")
    }
    if logger == nil {
        logger = zap.NewNop()
    }
    h := &ScheduleHandler{svc: svc, grid: gridDefaults, logger: logger}
    for _, opt := range opts {
        opt(h)
    }
    return h
}

// afterWrite runs the post-commit side effects.  A publish failure is
// logged; the write itself already succeeded.
func (h *ScheduleHandler) afterWrite(c echo.Context, ev queue.ScheduleEvent) {
    ctx := c.Request().Context()
    if h.cache != nil {
        h.cache.Invalidate(ctx)
    }
    if h.events == nil {
        return
    }
    if err := h.events.Publish(ctx, ev); err != nil {
        h.logger.Warn("publish schedule event failed", zap.String("event", string(ev.Type)), zap.Error(err))
    }
}

// ProposeBooking handles POST /v1/bookings.  It returns 201 with the
// stored booking and its conflict report (outcome ok or overlap), or 409
// with the conflicts when the booking was refused.
func (h *ScheduleHandler) ProposeBooking(c echo.Context) error {
    var body bookingRequest
    if err := bindAndValidate(c, &body); err != nil {
        return h.writeError(c, "propose_booking", err)
    }
    req, err := body.toService()
    if err != nil {
        return h.writeError(c, "propose_booking", err)
    }

    result, err := h.svc.ProposeBooking(c.Request().Context(), req)
    if err != nil {
        return h.writeError(c, "propose_booking", err)
    }
    if result.Outcome == service.OutcomeConflict {
        return conflictResponse(c, result.Report)
    }

    h.afterWrite(c, queue.NewBookingEvent(queue.EventBookingCreated, req.BranchID, result.Booking.Slot(),
        string(result.Outcome), len(result.Report.Conflicts)))
    return c.JSON(http.StatusCreated, result)
}

// bookingRef reads the :kind and :id path parameters.
func bookingRef(c echo.Context) (model.BookingRef, error) {
    kind, err := model.ParseBookingKind(c.Param("kind"))
    if err != nil {
        return model.BookingRef{}, invalidInput(err.Error())
    }
    id, err := strconv.ParseInt(c.Param("id"), 10, 64)
    if err != nil || id <= 0 {
        return model.BookingRef{}, invalidInput("invalid booking id")
    }
    return model.BookingRef{Kind: kind, ID: id}, nil
}

// GetBooking handles GET /v1/bookings/:kind/:id.
func (h *ScheduleHandler) GetBooking(c echo.Context) error {
    ref, err := bookingRef(c)
    if err != nil {
        return h.writeError(c, "get_booking", err)
    }
    booking, err := h.svc.GetBooking(c.Request().Context(), ref)
    if err != nil {
        return h.writeError(c, "get_booking", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": booking})
}

// RescheduleBooking handles PUT and PATCH /v1/bookings/:kind/:id.  The
// booking's own slot is ignored by the conflict check.
func (h *ScheduleHandler) RescheduleBooking(c echo.Context) error {
    ref, err := bookingRef(c)
    if err != nil {
        return h.writeError(c, "reschedule_booking", err)
    }
    var body rescheduleRequest
    if err := bindAndValidate(c, &body); err != nil {
        return h.writeError(c, "reschedule_booking", err)
    }
    req, err := body.toService()
    if err != nil {
        return h.writeError(c, "reschedule_booking", err)
    }

    result, err := h.svc.RescheduleBooking(c.Request().Context(), ref, req)
    if err != nil {
        return h.writeError(c, "reschedule_booking", err)
    }
    if result.Outcome == service.OutcomeConflict {
        return conflictResponse(c, result.Report)
    }

    h.afterWrite(c, queue.NewBookingEvent(queue.EventBookingRescheduled, 0, result.Booking.Slot(),
        string(result.Outcome), len(result.Report.Conflicts)))
    return c.JSON(http.StatusOK, result)
}

// CancelBooking handles DELETE /v1/bookings/:kind/:id and returns 204.
func (h *ScheduleHandler) CancelBooking(c echo.Context) error {
    ref, err := bookingRef(c)
    if err != nil {
        return h.writeError(c, "cancel_booking", err)
    }
    if err := h.svc.CancelBooking(c.Request().Context(), ref); err != nil {
        return h.writeError(c, "cancel_booking", err)
    }
    h.afterWrite(c, queue.NewBookingEvent(queue.EventBookingCancelled, 0, model.Slot{Kind: ref.Kind, ID: ref.ID}, "", 0))
    return c.NoContent(http.StatusNoContent)
}

func branchAndWeek(c echo.Context) (int64, model.Date, error) {
    branchID, err := strconv.ParseInt(c.Param("branch_id"), 10, 64)
    if err != nil || branchID <= 0 {
        return 0, model.Date{}, invalidInput("invalid branch id")
    }
    week, err := model.ParseDate(c.Param("week_start"))
    if err != nil {
        return 0, model.Date{}, invalidInput(err.Error())
    }
    return branchID, week, nil
}

func academicYearParam(c echo.Context) (*int64, error) {
    raw := c.QueryParam("academic_year_id")
    if raw == "" {
        return nil, nil
    }
    id, err := strconv.ParseInt(raw, 10, 64)
    if err != nil || id <= 0 {
        return nil, invalidInput("invalid academic_year_id")
    }
    return &id, nil
}

// GenerateWeek handles POST /v1/branches/:branch_id/weeks/:week_start/generate.
// It is safe to call repeatedly; later calls report existing sessions.
func (h *ScheduleHandler) GenerateWeek(c echo.Context) error {
    branchID, week, err := branchAndWeek(c)
    if err != nil {
        return h.writeError(c, "generate_week", err)
    }
    var body generateRequest
    if c.Request().ContentLength != 0 {
        if err := bindAndValidate(c, &body); err != nil {
            return h.writeError(c, "generate_week", err)
        }
    }
    if body.AcademicYearID == nil {
        if body.AcademicYearID, err = academicYearParam(c); err != nil {
            return h.writeError(c, "generate_week", err)
        }
    }

    result, err := h.svc.GenerateWeek(c.Request().Context(), service.GenerateWeekRequest{
        BranchID:       branchID,
        WeekStart:      week,
        AcademicYearID: body.AcademicYearID,
    })
    if err != nil {
        return h.writeError(c, "generate_week", err)
    }
    h.afterWrite(c, queue.NewWeekGeneratedEvent(result))
    return c.JSON(http.StatusOK, result)
}

// GenerationStatus handles GET /v1/branches/:branch_id/weeks/:week_start/status.
func (h *ScheduleHandler) GenerationStatus(c echo.Context) error {
    branchID, week, err := branchAndWeek(c)
    if err != nil {
        return h.writeError(c, "generation_status", err)
    }
    year, err := academicYearParam(c)
    if err != nil {
        return h.writeError(c, "generation_status", err)
    }
    status, err := h.svc.GetGenerationStatus(c.Request().Context(), branchID, week, year)
    if err != nil {
        return h.writeError(c, "generation_status", err)
    }
    return c.JSON(http.StatusOK, status)
}

// Grid handles GET /v1/branches/:branch_id/grid?date=&period=&start=&end=.
func (h *ScheduleHandler) Grid(c echo.Context) error {
    branchID, err := strconv.ParseInt(c.Param("branch_id"), 10, 64)
    if err != nil || branchID <= 0 {
        return h.writeError(c, "grid", invalidInput("invalid branch id"))
    }
    q := gridQuery{
        Date:   c.QueryParam("date"),
        Period: c.QueryParam("period"),
        Start:  c.QueryParam("start"),
        End:    c.QueryParam("end"),
    }
    if err := c.Validate(&q); err != nil {
        return h.writeError(c, "grid", &inputError{msg: "validation failed", fields: validationDetails(err)})
    }
    date, err := model.ParseDate(q.Date)
    if err != nil {
        return h.writeError(c, "grid", invalidInput(err.Error()))
    }

    cfg := h.grid
    if q.Period != "" {
        if cfg.PeriodMinutes, err = strconv.Atoi(q.Period); err != nil {
            return h.writeError(c, "grid", invalidInput("invalid period"))
        }
    }
    if q.Start != "" {
        if cfg.DayStart, err = model.ParseTimeOfDay(q.Start); err != nil {
            return h.writeError(c, "grid", invalidInput(err.Error()))
        }
    }
    if q.End != "" {
        if cfg.DayEnd, err = model.ParseTimeOfDay(q.End); err != nil {
            return h.writeError(c, "grid", invalidInput(err.Error()))
        }
    }

    grid, err := h.svc.BuildGrid(c.Request().Context(), service.GridRequest{BranchID: branchID, Date: date, Config: cfg})
    if err != nil {
        return h.writeError(c, "grid", err)
    }
    return c.JSON(http.StatusOK, grid)
}
