package booking

import (
	"fmt"
	"time"

	"github.com/1wflores/amenity-reservations/internal/model"
)

// ReasonCode identifies why a policy decision came out the way it did.
type ReasonCode string

const (
	ReasonEligible          ReasonCode = "eligible"
	ReasonSameDayDuplicate  ReasonCode = "same_day_duplicate"
	ReasonExceedsDuration   ReasonCode = "exceeds_auto_approval_duration"
	ReasonDailyLimitReached ReasonCode = "daily_limit_reached"
)

// PolicyCandidate is the part of a candidate the policy engine needs.
// ReservationID is set when the candidate replaces an existing booking so
// that the booking does not count against itself.
type PolicyCandidate struct {
	ReservationID uint64
	AmenityID     uint64
	UserID        uint64
	StartTime     time.Time
	EndTime       time.Time
}

// PolicyResult is both the runtime decision and its audit explanation.
type PolicyResult struct {
	AutoApproval bool       `json:"auto_approval"`
	Code         ReasonCode `json:"code"`
	Reason       string     `json:"reason"`
}

// PolicyEngine decides between auto-approval and manual review.
//
// With EnforceRules unset only the same-day duplicate check applies.
// With EnforceRules set the amenity's AutoApprovalRules are also honoured:
// MaxDurationMinutes (falling back to the type's MaxDuration) and
// MaxReservationsPerDay across all users of the amenity.
type PolicyEngine struct {
	Zone         Zone
	EnforceRules bool
}

// NewPolicyEngine returns an engine evaluating calendar days in zone.
func NewPolicyEngine(zone Zone, enforceRules bool) *PolicyEngine {
	return &PolicyEngine{Zone: zone, EnforceRules: enforceRules}
}

// Decide evaluates c against existing reservations.  The duplicate check
// only looks at the candidate user's active bookings of the same amenity;
// the daily cap counts every user's active bookings of the amenity on that
// local day.  Other entries are ignored, so callers may pass an
// unfiltered list.
func (p *PolicyEngine) Decide(c PolicyCandidate, amenity model.Amenity, reservations []model.Reservation) PolicyResult {
	sameDay, dayTotal := 0, 0
	for _, r := range reservations {
		if r.AmenityID != c.AmenityID || !r.Status.Active() {
			continue
		}
		if c.ReservationID != 0 && r.ID == c.ReservationID {
			continue
		}
		if !p.Zone.SameDay(r.StartTime, c.StartTime) {
			continue
		}
		dayTotal++
		if r.UserID == c.UserID {
			sameDay++
		}
	}

	policy := amenity.Type.Policy()
	if policy.RequiresApprovalOnDuplicate && sameDay > 0 {
		return PolicyResult{
			Code:   ReasonSameDayDuplicate,
			Reason: fmt.Sprintf("you already hold a reservation for %s on %s", amenity.Name, p.Zone.DateOf(c.StartTime)),
		}
	}

	if p.EnforceRules {
		limit := policy.MaxDuration
		if m := amenity.AutoApprovalRules.MaxDurationMinutes; m > 0 {
			limit = time.Duration(m) * time.Minute
		}
		if d := c.EndTime.Sub(c.StartTime); limit > 0 && d > limit {
			return PolicyResult{
				Code:   ReasonExceedsDuration,
				Reason: fmt.Sprintf("bookings longer than %s need administrator review", limit),
			}
		}
		if perDay := amenity.AutoApprovalRules.MaxReservationsPerDay; perDay > 0 && dayTotal+1 > perDay {
			return PolicyResult{
				Code:   ReasonDailyLimitReached,
				Reason: fmt.Sprintf("%s already has %d bookings on this day", amenity.Name, dayTotal),
			}
		}
	}

	return PolicyResult{AutoApproval: true, Code: ReasonEligible, Reason: "eligible for automatic approval"}
}
