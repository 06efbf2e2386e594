package booking

import (
	"errors"
	"slices"
	"time"

	"github.com/1wflores/amenity-reservations/internal/model"
)

// DefaultSlotStep is the spacing between candidate start times.
const DefaultSlotStep = 30 * time.Minute

// ErrInvalidDuration is returned for a non-positive slot duration.
var ErrInvalidDuration = errors.New("slot duration must be positive")

// AvailabilityRequest holds the inputs of one availability computation.
// Existing should be the amenity's pending and approved reservations;
// anything else in it is ignored.  Editing is the reservation being
// moved, if any.
type AvailabilityRequest struct {
	Amenity  model.Amenity
	Date     Date
	Duration time.Duration
	Existing []model.Reservation
	Editing  *model.Reservation
	Actor    model.Actor
}

// Calculator enumerates the slots offered for an amenity on a date.  It
// treats every amenity as single-occupancy: a candidate overlapping any
// active reservation is dropped regardless of capacity.
type Calculator struct {
	Zone   Zone
	Clock  Clock
	Policy *PolicyEngine
	Step   time.Duration
	// IncludePast keeps candidates whose start is not in the future.
	IncludePast bool
}

// NewCalculator wires a Calculator with the default step.
func NewCalculator(zone Zone, clock Clock, policy *PolicyEngine) *Calculator {
	return &Calculator{Zone: zone, Clock: clock, Policy: policy, Step: DefaultSlotStep}
}

// Compute returns the available slots ordered by start time.  Each call
// recomputes from scratch.  The only errors are a non-positive duration
// and unparseable operating hours.
func (c *Calculator) Compute(req AvailabilityRequest) ([]model.Slot, error) {
	if req.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	slots := []model.Slot{}
	hours := req.Amenity.OperatingHours
	if !hours.OpenOn(req.Date.Weekday()) {
		return slots, nil
	}
	open, closing, err := c.Zone.window(req.Date, hours.Start, hours.End)
	if err != nil {
		return nil, err
	}
	step := c.Step
	if step <= 0 {
		step = DefaultSlotStep
	}

	busy := make([]model.Reservation, 0, len(req.Existing))
	for _, r := range req.Existing {
		if r.AmenityID == req.Amenity.ID && r.Status.Active() {
			busy = append(busy, r)
		}
	}
	current := c.currentInterval(req)

	sawCurrent := false
	for start := open; !start.Add(req.Duration).After(closing); start = start.Add(step) {
		end := start.Add(req.Duration)
		if current != nil && start.Equal(current.StartTime) && end.Equal(current.EndTime) {
			sawCurrent = true
			slots = append(slots, model.Slot{StartTime: start, EndTime: end, Duration: req.Duration, IsCurrent: true})
			continue
		}
		if !c.IncludePast && !c.Zone.InFuture(start, c.Clock) {
			continue
		}
		if overlapsAny(start, end, busy) {
			continue
		}
		slots = append(slots, model.Slot{StartTime: start, EndTime: end, Duration: req.Duration})
	}
	// An off-grid current interval is still offered back to the editor.
	if current != nil && !sawCurrent {
		slots = append(slots, model.Slot{
			StartTime: current.StartTime.UTC(),
			EndTime:   current.EndTime.UTC(),
			Duration:  req.Duration,
			IsCurrent: true,
		})
	}

	slices.SortStableFunc(slots, func(a, b model.Slot) int { return a.StartTime.Compare(b.StartTime) })

	var editingID uint64
	if req.Editing != nil {
		editingID = req.Editing.ID
	}
	for i := range slots {
		res := c.Policy.Decide(PolicyCandidate{
			ReservationID: editingID,
			AmenityID:     req.Amenity.ID,
			UserID:        req.Actor.UserID,
			StartTime:     slots[i].StartTime,
			EndTime:       slots[i].EndTime,
		}, req.Amenity, req.Existing)
		slots[i].AutoApproval = res.AutoApproval
	}
	return slots, nil
}

// currentInterval returns the edited reservation when its interval can be
// offered back on this date with this duration, nil otherwise.
func (c *Calculator) currentInterval(req AvailabilityRequest) *model.Reservation {
	e := req.Editing
	if e == nil || e.AmenityID != req.Amenity.ID || !e.Status.Active() {
		return nil
	}
	if e.Duration() != req.Duration || c.Zone.DateOf(e.StartTime) != req.Date {
		return nil
	}
	return e
}

func overlapsAny(start, end time.Time, busy []model.Reservation) bool {
	for _, r := range busy {
		if r.Overlaps(start, end) {
			return true
		}
	}
	return false
}
