package booking

import (
	"fmt"
	"time"

	"github.com/1wflores/amenity-reservations/internal/model"
)

// Candidate is a reservation that has not been committed yet.
// AmenityType defaults to the amenity's own type when empty.
type Candidate struct {
	AmenityType  model.AmenityType
	StartTime    time.Time
	EndTime      time.Time
	VisitorCount *int
}

// ValidationResult is either {Valid: true} or carries the first violated
// rule.
type ValidationResult struct {
	Valid   bool      `json:"valid"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Err returns nil for a valid result and a *RuleError otherwise.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &RuleError{Kind: r.Kind, Message: r.Message}
}

func invalid(kind ErrorKind, format string, args ...any) ValidationResult {
	return ValidationResult{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validator checks a single candidate against the temporal and role
// rules.  It has no side effects.
type Validator struct {
	Zone  Zone
	Clock Clock
}

// NewValidator returns a Validator reading "now" from clock.
func NewValidator(zone Zone, clock Clock) *Validator {
	return &Validator{Zone: zone, Clock: clock}
}

// Validate applies the rules in order and reports the first violation:
// past start, lead time, inverted interval, hard duration cap, visitor
// count, admin type restriction, operating hours, inactive amenity.
func (v *Validator) Validate(c Candidate, amenity model.Amenity, actor model.Actor) ValidationResult {
	typ := c.AmenityType
	if typ == "" {
		typ = amenity.Type
	}
	policy := typ.Policy()
	now := v.Zone.Now(v.Clock)
	start := v.Zone.ToLocal(c.StartTime)

	if !start.After(now) {
		return invalid(KindPastStartTime, "start time %s is not in the future", start.Format(time.RFC3339))
	}
	if policy.LeadTime > 0 && start.Before(now.Add(policy.LeadTime)) {
		return invalid(KindInsufficientLeadTime, "%s reservations must be made at least %s in advance", typ, policy.LeadTime)
	}
	if !c.EndTime.After(c.StartTime) {
		return invalid(KindInvertedInterval, "end time must be after start time")
	}
	if d := c.EndTime.Sub(c.StartTime); d > model.MaxReservationDuration {
		return invalid(KindDurationTooLong, "duration %s exceeds the %s limit", d, model.MaxReservationDuration)
	}
	if policy.HasVisitorCount && c.VisitorCount != nil {
		if n := *c.VisitorCount; n < 1 || n > amenity.Capacity {
			return invalid(KindVisitorCountOutOfRange, "visitor count must be between 1 and %d", amenity.Capacity)
		}
	}
	if actor.IsAdmin() && !policy.AdminBookable {
		return invalid(KindAdminRestrictedType, "administrators may only book %s amenities", model.AmenityMaintenance)
	}
	if res := v.checkOperatingHours(c, amenity); !res.Valid {
		return res
	}
	if !amenity.IsActive {
		return invalid(KindAmenityInactive, "%s is not accepting reservations", amenity.Name)
	}
	return ValidationResult{Valid: true}
}

// checkOperatingHours requires the whole interval to sit inside the
// opening window of the local day on which it starts.
func (v *Validator) checkOperatingHours(c Candidate, amenity model.Amenity) ValidationResult {
	hours := amenity.OperatingHours
	day := v.Zone.DateOf(c.StartTime)
	if !hours.OpenOn(day.Weekday()) {
		return invalid(KindOutsideOperatingHours, "%s is closed on %s", amenity.Name, day.Weekday())
	}
	open, closing, err := v.Zone.window(day, hours.Start, hours.End)
	if err != nil {
		return invalid(KindOutsideOperatingHours, "%s has no usable operating hours: %v", amenity.Name, err)
	}
	if c.StartTime.Before(open) || c.EndTime.After(closing) {
		return invalid(KindOutsideOperatingHours, "%s is open %s-%s", amenity.Name, hours.Start, hours.End)
	}
	return ValidationResult{Valid: true}
}
