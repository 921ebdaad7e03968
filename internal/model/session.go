package model

// SessionStatus is the lifecycle state of a materialized class.
type SessionStatus string

const (
    SessionScheduled SessionStatus = "scheduled"
    SessionOngoing   SessionStatus = "ongoing"
    SessionFinished  SessionStatus = "finished"
    SessionCanceled  SessionStatus = "canceled"
)

// Session is one dated occurrence of a class.  Sessions produced from a
// template carry its ID; ad hoc sessions have a nil TemplateID.  At most
// one session exists per (TemplateID, Date).
//
// Canceled sessions keep their row so that regenerating the week does
// not bring them back; they no longer take part in conflict checks.
type Session struct {
    ID            int64         `json:"id"`                    // class_sessions.id
    TemplateID    *int64        `json:"template_id,omitempty"` // class_sessions.template_id (nullable)
    Date          Date          `json:"date"`                  // class_sessions.session_date
    Range         TimeRange     `json:"range"`                 // class_sessions.start_time / end_time
    HallID        int64         `json:"hall_id"`               // class_sessions.hall_id
    TeacherID     *int64        `json:"teacher_id,omitempty"`  // class_sessions.teacher_id (nullable)
    SubjectID     int64         `json:"subject_id"`            // class_sessions.subject_id
    Status        SessionStatus `json:"status"`                // class_sessions.status
    OutOfSchedule bool          `json:"out_of_schedule"`       // class_sessions.out_of_schedule
}

// Active reports whether the session still occupies its hall and teacher.
func (s Session) Active() bool { return s.Status != SessionCanceled }

func (s Session) Slot() Slot {
    return Slot{
        Kind:          KindSession,
        ID:            s.ID,
        HallID:        s.HallID,
        TeacherID:     s.TeacherID,
        Date:          s.Date,
        Range:         s.Range,
        OutOfSchedule: s.OutOfSchedule,
    }
}
