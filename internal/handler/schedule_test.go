package handler

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap/zaptest"

    "github.com/iliyamo/tutoring-schedule/internal/model"
    "github.com/iliyamo/tutoring-schedule/internal/queue"
    "github.com/iliyamo/tutoring-schedule/internal/repository/inmem"
    "github.com/iliyamo/tutoring-schedule/internal/schedule"
    "github.com/iliyamo/tutoring-schedule/internal/service"
)

type recordingPublisher struct {
    mu     sync.Mutex
    events []queue.ScheduleEvent
    err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ScheduleEvent) error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return p.err
}

func (p *recordingPublisher) types() []queue.EventType {
    p.mu.Lock()
    defer p.mu.Unlock()
    out := make([]queue.EventType, 0, len(p.events))
    for _, ev := range p.events {
        out = append(out, ev.Type)
    }
    return out
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context) { c.n++ }

type fixture struct {
    e      *echo.Echo
    store  *inmem.Store
    events *recordingPublisher
    cache  *countingInvalidator
}

func newFixture(t *testing.T) *fixture {
    t.Helper()
    teacher := int64(3)
    store := inmem.New()
    store.AddBranch(model.Branch{ID: 1, Name: "Central"})
    store.AddHall(model.Hall{ID: 5, BranchID: 1, Name: "Room 5", Capacity: 20, IsActive: true})
    store.AddHall(model.Hall{ID: 6, BranchID: 1, Name: "Room 6", Capacity: 12, IsActive: true})
    store.AddTeacher(model.Teacher{ID: 3, Name: "Sara", Bookable: true})
    store.AddTemplate(model.RecurringTemplate{
        ID: 1, HallID: 5, TeacherID: &teacher, SubjectID: 11, DayOfWeek: int(time.Monday),
        Range: model.MustTimeRange("09:00", "10:00"), AcademicYearID: 2024, Active: true,
    })

    logger := zaptest.NewLogger(t)
    svc := service.NewSchedulingService(store, logger, service.WithRetryDelay(time.Millisecond))
    f := &fixture{store: store, events: &recordingPublisher{}, cache: &countingInvalidator{}}
    h := NewScheduleHandler(svc, schedule.DefaultGridConfig, logger, WithEvents(f.events), WithCacheInvalidator(f.cache))

    e := echo.New()
    e.Validator = NewRequestValidator()
    e.POST("/v1/bookings", h.ProposeBooking)
    e.GET("/v1/bookings/:kind/:id", h.GetBooking)
    e.PATCH("/v1/bookings/:kind/:id", h.RescheduleBooking)
    e.DELETE("/v1/bookings/:kind/:id", h.CancelBooking)
    e.POST("/v1/branches/:branch_id/weeks/:week_start/generate", h.GenerateWeek)
    e.GET("/v1/branches/:branch_id/weeks/:week_start/status", h.GenerationStatus)
    e.GET("/v1/branches/:branch_id/grid", h.Grid)
    f.e = e
    return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
    var req *http.Request
    if body == "" {
        req = httptest.NewRequest(method, target, nil)
    } else {
        req = httptest.NewRequest(method, target, strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    f.e.ServeHTTP(rec, req)
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var out map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
    return out
}

const reservationBody = `{"kind":"reservation","branch_id":1,"hall_id":5,"date":"2024-06-03","start":"%s","end":"%s","hourly_rate_cents":6000}`

func reservation(start, end string) string {
    return fmt.Sprintf(reservationBody, start, end)
}

func TestProposeBookingCreated(t *testing.T) {
    f := newFixture(t)

    rec := f.do(http.MethodPost, "/v1/bookings", reservation("11:00", "12:30"))
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

    body := decode(t, rec)
    assert.Equal(t, "ok", body["outcome"])
    booking := body["booking"].(map[string]any)
    assert.EqualValues(t, 9000, booking["total_cost_cents"])
    assert.Equal(t, []queue.EventType{queue.EventBookingCreated}, f.events.types())
    assert.Equal(t, 1, f.cache.n)
    assert.Len(t, f.store.Reservations(), 1)
}

func TestProposeBookingConflictAfterGeneration(t *testing.T) {
    f := newFixture(t)

    rec := f.do(http.MethodPost, "/v1/branches/1/weeks/2024-06-03/generate", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.EqualValues(t, 1, decode(t, rec)["generated_count"])

    rec = f.do(http.MethodPost, "/v1/bookings", reservation("09:30", "10:15"))
    require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
    body := decode(t, rec)
    assert.Equal(t, "conflict", body["error"])
    conflicts := body["conflicts"].([]any)
    require.Len(t, conflicts, 1)
    assert.Equal(t, "hall", conflicts[0].(map[string]any)["kind"])

    // The refused booking publishes nothing.
    assert.Equal(t, []queue.EventType{queue.EventWeekGenerated}, f.events.types())
    assert.Empty(t, f.store.Reservations())

    rec = f.do(http.MethodPost, "/v1/bookings", strings.Replace(reservation("09:30", "10:15"), `"hourly`, `"override":true,"hourly`, 1))
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    assert.Equal(t, "overlap", decode(t, rec)["outcome"])
}

func TestProposeBookingRejectsInput(t *testing.T) {
    f := newFixture(t)

    cases := []struct {
        name string
        body string
        code int
    }{
        {"malformed json", `{"kind":`, http.StatusBadRequest},
        {"unknown kind", `{"kind":"lesson","branch_id":1,"hall_id":5,"date":"2024-06-03","start":"09:00","end":"10:00"}`, http.StatusBadRequest},
        {"bad date", `{"kind":"reservation","branch_id":1,"hall_id":5,"date":"03/06/2024","start":"09:00","end":"10:00"}`, http.StatusBadRequest},
        {"bad time", `{"kind":"reservation","branch_id":1,"hall_id":5,"date":"2024-06-03","start":"9am","end":"10:00"}`, http.StatusBadRequest},
        {"empty range", reservation("10:00", "10:00"), http.StatusBadRequest},
        {"unknown hall", strings.Replace(reservation("10:00", "11:00"), `"hall_id":5`, `"hall_id":99`, 1), http.StatusNotFound},
        {"unknown branch", strings.Replace(reservation("10:00", "11:00"), `"branch_id":1`, `"branch_id":42`, 1), http.StatusNotFound},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            rec := f.do(http.MethodPost, "/v1/bookings", tc.body)
            assert.Equal(t, tc.code, rec.Code, rec.Body.String())
        })
    }
    assert.Empty(t, f.events.types())
    assert.Zero(t, f.cache.n)
}

func TestValidationFieldsUseJSONNames(t *testing.T) {
    f := newFixture(t)

    rec := f.do(http.MethodPost, "/v1/bookings", `{"kind":"session"}`)
    require.Equal(t, http.StatusBadRequest, rec.Code)
    fields := decode(t, rec)["fields"].(map[string]any)
    assert.Equal(t, "required", fields["branch_id"])
    assert.Equal(t, "required_if", fields["subject_id"])
    assert.NotContains(t, fields, "kind")
}

func TestBookingLifecycle(t *testing.T) {
    f := newFixture(t)

    rec := f.do(http.MethodPost, "/v1/bookings", reservation("11:00", "12:00"))
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    id := int64(decode(t, rec)["booking"].(map[string]any)["id"].(float64))
    target := fmt.Sprintf("/v1/bookings/reservation/%d", id)

    rec = f.do(http.MethodGet, target, "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    item := decode(t, rec)["item"].(map[string]any)
    assert.Equal(t, "11:00", item["range"].(map[string]any)["start"])

    rec = f.do(http.MethodPatch, target, `{"hall_id":6,"start":"13:00","end":"14:00"}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    moved := decode(t, rec)["booking"].(map[string]any)
    assert.EqualValues(t, 6, moved["hall_id"])

    rec = f.do(http.MethodDelete, target, "")
    assert.Equal(t, http.StatusNoContent, rec.Code)

    rec = f.do(http.MethodGet, target, "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    rec = f.do(http.MethodDelete, target, "")
    assert.Equal(t, http.StatusNotFound, rec.Code)

    assert.Equal(t, []queue.EventType{
        queue.EventBookingCreated, queue.EventBookingRescheduled, queue.EventBookingCancelled,
    }, f.events.types())
    assert.Equal(t, 3, f.cache.n)
}

func TestBookingPathParams(t *testing.T) {
    f := newFixture(t)

    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/bookings/lesson/1", "").Code)
    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/bookings/session/abc", "").Code)
    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/bookings/session/0", "").Code)
    assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/bookings/session/77", "").Code)
}

func TestTemplateSessionKeepsItsDate(t *testing.T) {
    f := newFixture(t)
    require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/branches/1/weeks/2024-06-03/generate", "").Code)
    sessions := f.store.Sessions()
    require.Len(t, sessions, 1)
    target := fmt.Sprintf("/v1/bookings/session/%d", sessions[0].ID)

    rec := f.do(http.MethodPatch, target, `{"date":"2024-06-04","start":"09:00","end":"10:00"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

    rec = f.do(http.MethodPatch, target, `{"start":"10:00","end":"11:00"}`)
    assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestGenerationStatus(t *testing.T) {
    f := newFixture(t)

    rec := f.do(http.MethodGet, "/v1/branches/1/weeks/2024-06-03/status", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    body := decode(t, rec)
    assert.Equal(t, true, body["needs_generation"])
    assert.EqualValues(t, 1, body["missing_session_count"])

    require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/branches/1/weeks/2024-06-03/generate", `{"academic_year_id":2024}`).Code)

    body = decode(t, f.do(http.MethodGet, "/v1/branches/1/weeks/2024-06-03/status?academic_year_id=2024", ""))
    assert.Equal(t, false, body["needs_generation"])
    assert.EqualValues(t, 1, body["existing_session_count"])

    body = decode(t, f.do(http.MethodGet, "/v1/branches/1/weeks/2024-06-03/status?academic_year_id=2025", ""))
    assert.Equal(t, false, body["can_generate"])

    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/branches/1/weeks/June/status", "").Code)
    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/branches/x/weeks/2024-06-03/status", "").Code)
    assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/v1/branches/1/weeks/2024-06-03/status?academic_year_id=-1", "").Code)
    assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/v1/branches/9/weeks/2024-06-03/status", "").Code)
}

func TestGrid(t *testing.T) {
    f := newFixture(t)
    require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/v1/branches/1/weeks/2024-06-03/generate", "").Code)

    rec := f.do(http.MethodGet, "/v1/branches/1/grid?date=2024-06-03", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    var grid schedule.Grid
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grid))
    assert.Len(t, grid.Periods, 10)
    require.Len(t, grid.Rows, 2)
    assert.Equal(t, int64(5), grid.Rows[0].Hall.ID)
    assert.Len(t, grid.Rows[0].Cells[1].Bookings, 1)

    rec = f.do(http.MethodGet, "/v1/branches/1/grid?date=2024-06-03&period=30&start=09:00&end=11:00", "")
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grid))
    assert.Len(t, grid.Periods, 4)

    for _, q := range []string{"", "?date=tomorrow", "?date=2024-06-03&period=0", "?date=2024-06-03&period=-5", "?date=2024-06-03&start=18:00&end=08:00", "?date=2024-06-03&start=noon"} {
        rec := f.do(http.MethodGet, "/v1/branches/1/grid"+q, "")
        assert.Equal(t, http.StatusBadRequest, rec.Code, q)
    }
}

func TestStoreUnavailableIs503(t *testing.T) {
    f := newFixture(t)
    f.store.FailNext(errors.New("lock wait timeout"), errors.New("lock wait timeout"))

    rec := f.do(http.MethodPost, "/v1/bookings", reservation("11:00", "12:00"))
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
    assert.Empty(t, f.events.types())
}

func TestPublishFailureKeepsTheWrite(t *testing.T) {
    f := newFixture(t)
    f.events.err = errors.New("broker down")

    rec := f.do(http.MethodPost, "/v1/bookings", reservation("11:00", "12:00"))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Len(t, f.store.Reservations(), 1)
}
