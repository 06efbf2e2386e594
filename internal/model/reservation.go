package model

import (
    "encoding/json"
    "time"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
    StatusPending   Status = "pending"
    StatusApproved  Status = "approved"
    StatusDenied    Status = "denied"
    StatusCancelled Status = "cancelled"
    StatusCompleted Status = "completed"
)

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
    return s == StatusDenied || s == StatusCancelled || s == StatusCompleted
}

// Active reports whether s still occupies the amenity's calendar.
func (s Status) Active() bool {
    return s == StatusPending || s == StatusApproved
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
    switch s {
    case StatusPending, StatusApproved, StatusDenied, StatusCancelled, StatusCompleted:
        return true
    }
    return false
}

// SpecialRequests carries optional resident-provided details.
type SpecialRequests struct {
    VisitorCount *int   `json:"visitor_count,omitempty"`
    Notes        string `json:"notes,omitempty"`
    GrillUsage   bool   `json:"grill_usage"`
}

// Reservation records a resident's booking of an amenity.  StartTime and
// EndTime are absolute instants stored in UTC; the booking core converts
// them to local wall-clock time when it needs calendar semantics.
//
// Fields:
//  ID              – primary key identifier.
//  AmenityID       – amenity being reserved.
//  UserID          – resident (or admin) who owns the reservation.
//  StartTime       – start instant, inclusive.
//  EndTime         – end instant, exclusive; always after StartTime.
//  Status          – pending, approved, denied, cancelled or completed.
//  SpecialRequests – visitor count, notes and grill usage.
//  DenialReason    – required when Status is denied.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Reservation struct {
    ID              uint64          `json:"id"`               // reservations.id
    AmenityID       uint64          `json:"amenity_id"`       // reservations.amenity_id
    UserID          uint64          `json:"user_id"`          // reservations.user_id
    StartTime       time.Time       `json:"start_time"`       // reservations.start_time
    EndTime         time.Time       `json:"end_time"`         // reservations.end_time
    Status          Status          `json:"status"`           // reservations.status
    SpecialRequests SpecialRequests `json:"special_requests"` // visitor_count, notes, grill_usage
    DenialReason    string          `json:"denial_reason,omitempty"`
    CreatedAt       time.Time       `json:"created_at"`
    UpdatedAt       time.Time       `json:"updated_at"`
}

// Duration returns the length of the reserved interval.
func (r Reservation) Duration() time.Duration {
    return r.EndTime.Sub(r.StartTime)
}

// Overlaps reports whether the half-open intervals [r.StartTime, r.EndTime)
// and [start, end) intersect.
func (r Reservation) Overlaps(start, end time.Time) bool {
    return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// Slot is a candidate interval offered for booking.  It is never persisted.
type Slot struct {
    StartTime    time.Time     `json:"start_time"`
    EndTime      time.Time     `json:"end_time"`
    Duration     time.Duration `json:"-"`
    AutoApproval bool          `json:"auto_approval"`
    IsCurrent    bool          `json:"is_current"`
}

// MarshalJSON adds duration_minutes alongside the slot's bounds.
func (s Slot) MarshalJSON() ([]byte, error) {
    type plain Slot
    return json.Marshal(struct {
        plain
        DurationMinutes int `json:"duration_minutes"`
    }{plain(s), int(s.Duration / time.Minute)})
}
