package handler

import (
    "github.com/iliyamo/tutoring-schedule/internal/model"
    "github.com/iliyamo/tutoring-schedule/internal/service"
)

// bookingRequest is the body of POST /v1/bookings.
type bookingRequest struct {
    Kind            string `json:"kind" validate:"required,oneof=session reservation"`
    BranchID        int64  `json:"branch_id" validate:"required,gt=0"`
    HallID          int64  `json:"hall_id" validate:"required,gt=0"`
    TeacherID       *int64 `json:"teacher_id" validate:"omitempty,gt=0"`
    SubjectID       int64  `json:"subject_id" validate:"required_if=Kind session,gte=0"`
    Date            string `json:"date" validate:"required,datetime=2006-01-02"`
    Start           string `json:"start" validate:"required"`
    End             string `json:"end" validate:"required"`
    Description     string `json:"description" validate:"max=255"`
    Capacity        int    `json:"capacity" validate:"gte=0"`
    HourlyRateCents int64  `json:"hourly_rate_cents" validate:"gte=0"`
    Override        bool   `json:"override"`
}

func (r bookingRequest) toService() (service.BookingRequest, error) {
    date, err := model.ParseDate(r.Date)
    if err != nil {
        return service.BookingRequest{}, invalidInput(err.Error())
    }
    start, end, err := parseTimes(r.Start, r.End)
    if err != nil {
        return service.BookingRequest{}, err
    }
    return service.BookingRequest{
        Kind:            model.BookingKind(r.Kind),
        BranchID:        r.BranchID,
        HallID:          r.HallID,
        TeacherID:       r.TeacherID,
        SubjectID:       r.SubjectID,
        Date:            date,
        Start:           start,
        End:             end,
        Description:     r.Description,
        Capacity:        r.Capacity,
        HourlyRateCents: r.HourlyRateCents,
        Override:        r.Override,
    }, nil
}

// rescheduleRequest is the body of PUT and PATCH /v1/bookings/:kind/:id.
type rescheduleRequest struct {
    Date     *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
    HallID   *int64  `json:"hall_id" validate:"omitempty,gt=0"`
    Start    string  `json:"start" validate:"required"`
    End      string  `json:"end" validate:"required"`
    Override bool    `json:"override"`
}

func (r rescheduleRequest) toService() (service.RescheduleRequest, error) {
    start, end, err := parseTimes(r.Start, r.End)
    if err != nil {
        return service.RescheduleRequest{}, err
    }
    out := service.RescheduleRequest{HallID: r.HallID, Start: start, End: end, Override: r.Override}
    if r.Date != nil {
        d, err := model.ParseDate(*r.Date)
        if err != nil {
            return service.RescheduleRequest{}, invalidInput(err.Error())
        }
        out.Date = &d
    }
    return out, nil
}

// generateRequest is the optional body of the generate endpoint.
type generateRequest struct {
    AcademicYearID *int64 `json:"academic_year_id" validate:"omitempty,gt=0"`
}

// gridQuery holds the grid endpoint's query string.  Unset window fields
// fall back to the configured defaults.
type gridQuery struct {
    Date   string `json:"date" validate:"required,datetime=2006-01-02"`
    Period string `json:"period" validate:"omitempty,number"`
    Start  string `json:"start"`
    End    string `json:"end"`
}

func parseTimes(start, end string) (model.TimeOfDay, model.TimeOfDay, error) {
    s, err := model.ParseTimeOfDay(start)
    if err != nil {
        return 0, 0, invalidInput(err.Error())
    }
    e, err := model.ParseTimeOfDay(end)
    if err != nil {
        return 0, 0, invalidInput(err.Error())
    }
    return s, e, nil
}
