package booking

import (
	"time"

	"github.com/1wflores/amenity-reservations/internal/model"
)

// testOffset puts local time five hours behind UTC so conversions matter.
const testOffset = -5 * time.Hour

var testZone = NewZone(testOffset)

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func everyDay() []time.Weekday {
	return []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}
}

// local returns the UTC instant for a wall-clock time in testZone.
func local(y int, m time.Month, d, hh, mm int) time.Time {
	return testZone.ToInstant(time.Date(y, m, d, hh, mm, 0, 0, time.UTC))
}

func jacuzzi() model.Amenity {
	return model.Amenity{
		ID:       1,
		Name:     "Jacuzzi",
		Type:     model.AmenityJacuzzi,
		Capacity: 6,
		OperatingHours: model.OperatingHours{
			Start: "06:00",
			End:   "22:00",
			Days:  everyDay(),
		},
		IsActive: true,
	}
}

func lounge() model.Amenity {
	return model.Amenity{
		ID:       2,
		Name:     "Lounge",
		Type:     model.AmenityLounge,
		Capacity: 12,
		OperatingHours: model.OperatingHours{
			Start: "10:00",
			End:   "23:00",
			Days:  everyDay(),
		},
		IsActive: true,
	}
}

func maintenance() model.Amenity {
	return model.Amenity{
		ID:       3,
		Name:     "Pool maintenance",
		Type:     model.AmenityMaintenance,
		Capacity: 1,
		OperatingHours: model.OperatingHours{
			Start: "00:00",
			End:   "24:00",
			Days:  everyDay(),
		},
		IsActive: true,
	}
}

func reservation(id, amenityID, userID uint64, start, end time.Time, status model.Status) model.Reservation {
	return model.Reservation{
		ID:        id,
		AmenityID: amenityID,
		UserID:    userID,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
}

var (
	resident = model.Actor{UserID: 7, Role: model.RoleResident}
	neighbor = model.Actor{UserID: 8, Role: model.RoleResident}
	admin    = model.Actor{UserID: 1, Role: model.RoleAdmin}
)
