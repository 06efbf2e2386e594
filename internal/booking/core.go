package booking

import (
	"time"

	"github.com/1wflores/amenity-reservations/internal/model"
)

// Options configures a Core.
type Options struct {
	Offset       time.Duration // fixed local offset east of UTC
	SlotStep     time.Duration // zero means DefaultSlotStep
	EnforceRules bool          // enforce AutoApprovalRules in the policy engine
	Clock        Clock         // nil means RealClock
}

// Core bundles the five components behind the operations exposed to the
// orchestration layer.  It holds no mutable state and is safe for
// concurrent use.
type Core struct {
	Zone       Zone
	Clock      Clock
	Validator  *Validator
	Calculator *Calculator
	Policy     *PolicyEngine
	Lifecycle  *Lifecycle
}

// New assembles a Core from opts.
func New(opts Options) *Core {
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	zone := NewZone(opts.Offset)
	policy := NewPolicyEngine(zone, opts.EnforceRules)
	calc := NewCalculator(zone, clock, policy)
	if opts.SlotStep > 0 {
		calc.Step = opts.SlotStep
	}
	return &Core{
		Zone:       zone,
		Clock:      clock,
		Validator:  NewValidator(zone, clock),
		Calculator: calc,
		Policy:     policy,
		Lifecycle:  NewLifecycle(zone, clock),
	}
}

func (c *Core) ComputeAvailability(req AvailabilityRequest) ([]model.Slot, error) {
	return c.Calculator.Compute(req)
}

func (c *Core) ValidateCandidate(cand Candidate, amenity model.Amenity, actor model.Actor) ValidationResult {
	return c.Validator.Validate(cand, amenity, actor)
}

func (c *Core) DecidePolicy(cand PolicyCandidate, amenity model.Amenity, userReservations []model.Reservation) PolicyResult {
	return c.Policy.Decide(cand, amenity, userReservations)
}

func (c *Core) CreateInitialStatus(p PolicyResult) model.Status {
	return InitialStatus(p)
}

func (c *Core) ApplyTransition(r model.Reservation, action Action, actor model.Actor, reason string) (model.Reservation, error) {
	return c.Lifecycle.Apply(r, action, actor, reason)
}
