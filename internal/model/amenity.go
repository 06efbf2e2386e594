package model

import (
    "fmt"
    "strings"
    "time"
)

// AmenityType is the closed set of bookable facility categories.  Each
// variant carries its own policy parameters (see TypePolicy) so that
// adding a category is a change to the policy table rather than to the
// branching logic of the booking core.
type AmenityType string

const (
    AmenityJacuzzi     AmenityType = "jacuzzi"
    AmenityColdTub     AmenityType = "cold-tub"
    AmenityYogaDeck    AmenityType = "yoga-deck"
    AmenityLounge      AmenityType = "lounge"
    AmenityMaintenance AmenityType = "maintenance"
)

// MaxReservationDuration is the global hard cap on any reservation length.
const MaxReservationDuration = 4 * time.Hour

// TypePolicy holds the per-variant parameters consulted by the booking core.
//
// Fields:
//  LeadTime                    – minimum notice between now and start.
//  MaxDuration                 – default auto-approval duration bound used when
//                                the amenity does not configure its own.
//  RequiresApprovalOnDuplicate – a second same-day booking by the same user
//                                must be reviewed manually.
//  HasVisitorCount             – the amenity accepts a visitor count.
//  AdminBookable               – administrators may book this type.
type TypePolicy struct {
    LeadTime                    time.Duration
    MaxDuration                 time.Duration
    RequiresApprovalOnDuplicate bool
    HasVisitorCount             bool
    AdminBookable               bool
}

var defaultPolicy = TypePolicy{
    MaxDuration:                 MaxReservationDuration,
    RequiresApprovalOnDuplicate: true,
}

var typePolicies = map[AmenityType]TypePolicy{
    AmenityJacuzzi: {
        MaxDuration:                 time.Hour,
        RequiresApprovalOnDuplicate: true,
    },
    AmenityColdTub: {
        MaxDuration:                 time.Hour,
        RequiresApprovalOnDuplicate: true,
    },
    AmenityYogaDeck: {
        MaxDuration:                 2 * time.Hour,
        RequiresApprovalOnDuplicate: true,
    },
    AmenityLounge: {
        LeadTime:                    24 * time.Hour,
        MaxDuration:                 MaxReservationDuration,
        RequiresApprovalOnDuplicate: true,
        HasVisitorCount:             true,
    },
    AmenityMaintenance: {
        MaxDuration:                 MaxReservationDuration,
        RequiresApprovalOnDuplicate: true,
        AdminBookable:               true,
    },
}

// Valid reports whether t is one of the known amenity types.
func (t AmenityType) Valid() bool {
    _, ok := typePolicies[t]
    return ok
}

// Policy returns the parameters for the variant.  Unknown types get the
// conservative default: hard-capped duration and duplicate review.
func (t AmenityType) Policy() TypePolicy {
    if p, ok := typePolicies[t]; ok {
        return p
    }
    return defaultPolicy
}

// ParseAmenityType normalises s and checks it against the closed set.
func ParseAmenityType(s string) (AmenityType, error) {
    t := AmenityType(strings.ToLower(strings.TrimSpace(s)))
    if !t.Valid() {
        return "", fmt.Errorf("unknown amenity type %q", s)
    }
    return t, nil
}

// OperatingHours describes when an amenity is open, in local wall-clock
// time.  Start and End use the "HH:MM" form; End may be "24:00".
type OperatingHours struct {
    Start string         `json:"start"`
    End   string         `json:"end"`
    Days  []time.Weekday `json:"days"`
}

// OpenOn reports whether the amenity operates on the given weekday.
func (h OperatingHours) OpenOn(d time.Weekday) bool {
    for _, day := range h.Days {
        if day == d {
            return true
        }
    }
    return false
}

// AutoApprovalRules bound auto-approval eligibility.  Zero means unset.
type AutoApprovalRules struct {
    MaxDurationMinutes    int `json:"max_duration_minutes"`
    MaxReservationsPerDay int `json:"max_reservations_per_day"`
}

// SpecialRequirements lists extra conditions shown to residents.
type SpecialRequirements struct {
    RequiresDeposit    bool   `json:"requires_deposit"`
    DepositAmountCents uint32 `json:"deposit_amount_cents"`
}

// Amenity is a shared bookable facility.  It mirrors a row in the
// `amenities` table.  Capacity is informational: the booking core treats
// every amenity as single-occupancy.
type Amenity struct {
    ID                  uint64              `json:"id"`                   // amenities.id
    Name                string              `json:"name"`                 // amenities.name
    Type                AmenityType         `json:"type"`                 // amenities.type
    Capacity            int                 `json:"capacity"`             // amenities.capacity
    OperatingHours      OperatingHours      `json:"operating_hours"`      // open_time, close_time, open_days
    AutoApprovalRules   AutoApprovalRules   `json:"auto_approval_rules"`  // max_duration_minutes, max_reservations_per_day
    SpecialRequirements SpecialRequirements `json:"special_requirements"` // requires_deposit, deposit_amount_cents
    IsActive            bool                `json:"is_active"`            // amenities.is_active
    CreatedAt           time.Time           `json:"created_at"`           // amenities.created_at
    UpdatedAt           time.Time           `json:"updated_at"`           // amenities.updated_at
}
