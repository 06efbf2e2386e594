package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/1wflores/amenity-reservations/internal/booking"
	"github.com/1wflores/amenity-reservations/internal/model"
	"github.com/1wflores/amenity-reservations/internal/queue"
	"github.com/1wflores/amenity-reservations/internal/repository"
)

var friday = booking.Date{Year: 2025, Month: time.January, Day: 10}

func book(amenityID uint64, start, end time.Time) BookingRequest {
	return BookingRequest{AmenityID: amenityID, StartTime: start, EndTime: end}
}

func TestCreateAutoApprovesFirstBookingOfTheDay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Create(ctx, resident, book(1, local(2025, 1, 10, 10, 0), local(2025, 1, 10, 11, 0)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Reservation.Status != model.StatusApproved || !first.Policy.AutoApproval {
		t.Fatalf("first booking: %+v", first)
	}
	if first.Reservation.ID == 0 || first.Reservation.UserID != resident.UserID {
		t.Fatalf("stored reservation not populated: %+v", first.Reservation)
	}

	second, err := f.svc.Create(ctx, resident, book(1, local(2025, 1, 10, 15, 0), local(2025, 1, 10, 16, 0)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if second.Reservation.Status != model.StatusPending || second.Policy.Code != booking.ReasonSameDayDuplicate {
		t.Fatalf("second booking same day: %+v", second)
	}

	other, err := f.svc.Create(ctx, neighbor, book(1, local(2025, 1, 10, 17, 0), local(2025, 1, 10, 18, 0)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if other.Reservation.Status != model.StatusApproved {
		t.Fatalf("another resident's booking: %+v", other)
	}

	if got := f.events.types(); len(got) != 3 || got[0] != queue.EventCreated {
		t.Fatalf("events = %v", got)
	}
	if !f.events.events[0].AutoApproval || f.events.events[1].AutoApproval {
		t.Fatal("events must carry the policy decision")
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	taken := model.Reservation{ID: 1, AmenityID: 1, UserID: neighbor.UserID, StartTime: local(2025, 1, 10, 10, 0), EndTime: local(2025, 1, 10, 11, 0), Status: model.StatusPending}
	f := newFixture(taken)
	_, err := f.svc.Create(context.Background(), resident, book(1, local(2025, 1, 10, 10, 30), local(2025, 1, 10, 11, 30)))
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	if len(f.events.types()) != 0 {
		t.Fatal("no event expected for a rejected booking")
	}
}

func TestCreateReturnsRuleErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	cases := []struct {
		name  string
		req   BookingRequest
		actor model.Actor
		want  booking.ErrorKind
	}{
		{"past", book(1, local(2025, 1, 4, 10, 0), local(2025, 1, 4, 11, 0)), resident, booking.KindPastStartTime},
		{"too long", book(1, local(2025, 1, 10, 6, 0), local(2025, 1, 10, 11, 0)), resident, booking.KindDurationTooLong},
		{"lounge lead time", book(2, local(2025, 1, 5, 12, 0), local(2025, 1, 5, 13, 0)), resident, booking.KindInsufficientLeadTime},
		{"admin books jacuzzi", book(1, local(2025, 1, 10, 10, 0), local(2025, 1, 10, 11, 0)), admin, booking.KindAdminRestrictedType},
		{"after closing", book(1, local(2025, 1, 10, 21, 30), local(2025, 1, 10, 22, 30)), resident, booking.KindOutsideOperatingHours},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.actor, tc.req)
			var ruleErr *booking.RuleError
			if !errors.As(err, &ruleErr) || ruleErr.Kind != tc.want {
				t.Fatalf("got %v, want rule %s", err, tc.want)
			}
		})
	}
	if _, err := f.svc.Create(ctx, resident, book(99, local(2025, 1, 10, 10, 0), local(2025, 1, 10, 11, 0))); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("unknown amenity: got %v", err)
	}
}

func TestCreateCleansSpecialRequests(t *testing.T) {
	f := newFixture()
	n := 4
	req := book(1, local(2025, 1, 10, 10, 0), local(2025, 1, 10, 11, 0))
	req.SpecialRequests = model.SpecialRequests{VisitorCount: &n, Notes: "  towels please ", GrillUsage: true}
	res, err := f.svc.Create(context.Background(), resident, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	sr := res.Reservation.SpecialRequests
	if sr.VisitorCount != nil || sr.GrillUsage || sr.Notes != "towels please" {
		t.Fatalf("jacuzzi special requests = %+v", sr)
	}
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	f := newFixture()
	f.events.err = errBrokerDown
	if _, err := f.svc.Create(context.Background(), resident, book(1, local(2025, 1, 10, 10, 0), local(2025, 1, 10, 11, 0))); err != nil {
		t.Fatalf("publish failure leaked into Create: %v", err)
	}
}

func TestAvailabilityUsesStoredReservations(t *testing.T) {
	mine := model.Reservation{ID: 1, AmenityID: 1, UserID: resident.UserID, StartTime: local(2025, 1, 10, 10, 0), EndTime: local(2025, 1, 10, 11, 0), Status: model.StatusApproved}
	theirs := model.Reservation{ID: 2, AmenityID: 1, UserID: neighbor.UserID, StartTime: local(2025, 1, 10, 14, 0), EndTime: local(2025, 1, 10, 15, 0), Status: model.StatusPending}
	f := newFixture(mine, theirs)
	ctx := context.Background()

	slots, err := f.svc.Availability(ctx, resident, AvailabilityQuery{AmenityID: 1, Date: friday, Duration: time.Hour})
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	for _, s := range slots {
		if mine.Overlaps(s.StartTime, s.EndTime) || theirs.Overlaps(s.StartTime, s.EndTime) {
			t.Fatalf("slot %s overlaps a booking", s.StartTime)
		}
		if s.AutoApproval {
			t.Fatalf("resident already booked that day; slot %s must need review", s.StartTime)
		}
	}

	editing, err := f.svc.Availability(ctx, resident, AvailabilityQuery{AmenityID: 1, Date: friday, Duration: time.Hour, EditingID: mine.ID})
	if err != nil {
		t.Fatalf("Availability editing: %v", err)
	}
	found := false
	for _, s := range editing {
		if s.IsCurrent && s.StartTime.Equal(mine.StartTime) {
			found = true
		}
	}
	if !found {
		t.Fatal("current interval missing while editing")
	}

	if _, err := f.svc.Availability(ctx, neighbor, AvailabilityQuery{AmenityID: 1, Date: friday, Duration: time.Hour, EditingID: mine.ID}); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("editing someone else's booking: got %v", err)
	}
	if _, err := f.svc.Availability(ctx, resident, AvailabilityQuery{AmenityID: 2, Date: friday, Duration: time.Hour, EditingID: mine.ID}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("editing id from another amenity: got %v", err)
	}
	if _, err := f.svc.Availability(ctx, resident, AvailabilityQuery{AmenityID: 1, Date: friday}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero duration: got %v", err)
	}
}

func TestTransitions(t *testing.T) {
	pending := model.Reservation{ID: 1, AmenityID: 1, UserID: resident.UserID, StartTime: local(2025, 1, 10, 10, 0), EndTime: local(2025, 1, 10, 11, 0), Status: model.StatusPending}
	ctx := context.Background()

	t.Run("admin approves", func(t *testing.T) {
		f := newFixture(pending)
		got, err := f.svc.Transition(ctx, admin, 1, booking.ActionApprove, "")
		if err != nil || got.Status != model.StatusApproved {
			t.Fatalf("approve: %+v, %v", got, err)
		}
		stored, _ := f.reservations.GetByID(ctx, 1)
		if stored.Status != model.StatusApproved {
			t.Fatalf("stored status = %s", stored.Status)
		}
		if ev := f.events.types(); !reflect.DeepEqual(ev, []queue.EventType{queue.EventApproved}) {
			t.Fatalf("events = %v", ev)
		}
	})

	t.Run("resident cannot approve", func(t *testing.T) {
		f := newFixture(pending)
		if _, err := f.svc.Transition(ctx, resident, 1, booking.ActionApprove, ""); !errors.Is(err, booking.ErrForbidden) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("deny needs a reason and leaves the store untouched", func(t *testing.T) {
		f := newFixture(pending)
		if _, err := f.svc.Transition(ctx, admin, 1, booking.ActionDeny, " "); !errors.Is(err, booking.ErrMissingDenialReason) {
			t.Fatalf("got %v", err)
		}
		stored, _ := f.reservations.GetByID(ctx, 1)
		if stored.Status != model.StatusPending {
			t.Fatalf("stored status changed to %s", stored.Status)
		}
		got, err := f.svc.Transition(ctx, admin, 1, booking.ActionDeny, "pool maintenance")
		if err != nil || got.DenialReason != "pool maintenance" {
			t.Fatalf("deny: %+v, %v", got, err)
		}
		if ev := f.events.events; len(ev) != 1 || ev[0].Reason != "pool maintenance" {
			t.Fatalf("events = %+v", ev)
		}
	})

	t.Run("cancelled frees the slot", func(t *testing.T) {
		f := newFixture(pending)
		if _, err := f.svc.Transition(ctx, resident, 1, booking.ActionCancel, ""); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if _, err := f.svc.Create(ctx, neighbor, book(1, pending.StartTime, pending.EndTime)); err != nil {
			t.Fatalf("rebooking a cancelled slot: %v", err)
		}
		if _, err := f.svc.Transition(ctx, admin, 1, booking.ActionApprove, ""); !errors.Is(err, booking.ErrInvalidTransition) {
			t.Fatalf("approve cancelled: got %v", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		f := newFixture()
		if _, err := f.svc.Transition(ctx, admin, 42, booking.ActionApprove, ""); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestUpdate(t *testing.T) {
	approved := model.Reservation{ID: 1, AmenityID: 1, UserID: resident.UserID, StartTime: local(2025, 1, 10, 10, 0), EndTime: local(2025, 1, 10, 11, 0), Status: model.StatusApproved}
	pending := model.Reservation{ID: 2, AmenityID: 1, UserID: resident.UserID, StartTime: local(2025, 1, 10, 15, 0), EndTime: local(2025, 1, 10, 16, 0), Status: model.StatusPending}
	ctx := context.Background()
	move := book(0, local(2025, 1, 10, 12, 0), local(2025, 1, 10, 13, 0))

	t.Run("keeps status by default", func(t *testing.T) {
		f := newFixture(approved, pending)
		res, err := f.svc.Update(ctx, resident, 1, move)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if res.Reservation.Status != model.StatusApproved || !res.Reservation.StartTime.Equal(move.StartTime) {
			t.Fatalf("updated = %+v", res.Reservation)
		}
		if res.Policy.Code != booking.ReasonSameDayDuplicate {
			t.Fatalf("policy should still see the pending booking: %+v", res.Policy)
		}
	})

	t.Run("reset approval re-runs the policy", func(t *testing.T) {
		f := newFixture(approved, pending)
		f.svc.ResetApprovalOnEdit = true
		res, err := f.svc.Update(ctx, resident, 1, move)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if res.Reservation.Status != model.StatusPending {
			t.Fatalf("status = %s, want pending", res.Reservation.Status)
		}
	})

	t.Run("own interval is not a conflict", func(t *testing.T) {
		f := newFixture(approved)
		shifted := book(0, local(2025, 1, 10, 10, 30), local(2025, 1, 10, 11, 30))
		res, err := f.svc.Update(ctx, resident, 1, shifted)
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if !res.Policy.AutoApproval {
			t.Fatalf("the edited booking must not count against itself: %+v", res.Policy)
		}
	})

	t.Run("neighbor cannot edit", func(t *testing.T) {
		f := newFixture(approved)
		if _, err := f.svc.Update(ctx, neighbor, 1, move); !errors.Is(err, booking.ErrForbidden) {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("admin edits on behalf of the owner", func(t *testing.T) {
		f := newFixture(approved)
		if _, err := f.svc.Update(ctx, admin, 1, move); err != nil {
			t.Fatalf("admin edit: %v", err)
		}
	})

	t.Run("conflicting move", func(t *testing.T) {
		blocker := model.Reservation{ID: 3, AmenityID: 1, UserID: neighbor.UserID, StartTime: local(2025, 1, 10, 12, 0), EndTime: local(2025, 1, 10, 13, 0), Status: model.StatusApproved}
		f := newFixture(approved, blocker)
		if _, err := f.svc.Update(ctx, resident, 1, move); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("got %v", err)
		}
	})
}

func TestListsDeriveCompletion(t *testing.T) {
	done := model.Reservation{ID: 1, AmenityID: 1, UserID: resident.UserID, StartTime: local(2025, 1, 3, 10, 0), EndTime: local(2025, 1, 3, 11, 0), Status: model.StatusApproved}
	next := model.Reservation{ID: 2, AmenityID: 1, UserID: resident.UserID, StartTime: local(2025, 1, 10, 10, 0), EndTime: local(2025, 1, 10, 11, 0), Status: model.StatusApproved}
	theirs := model.Reservation{ID: 3, AmenityID: 1, UserID: neighbor.UserID, StartTime: local(2025, 1, 11, 10, 0), EndTime: local(2025, 1, 11, 11, 0), Status: model.StatusPending}
	f := newFixture(done, next, theirs)
	ctx := context.Background()

	mine, err := f.svc.ListMine(ctx, resident, false)
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListMine: %v, %v", mine, err)
	}
	if mine[0].Status != model.StatusCompleted || mine[1].Status != model.StatusApproved {
		t.Fatalf("statuses = %s, %s", mine[0].Status, mine[1].Status)
	}
	upcoming, _ := f.svc.ListMine(ctx, resident, true)
	if len(upcoming) != 1 || upcoming[0].ID != 2 {
		t.Fatalf("upcoming = %+v", upcoming)
	}

	completed, err := f.svc.ListAll(ctx, admin, repository.ReservationFilter{Status: model.StatusCompleted})
	if err != nil || len(completed) != 1 || completed[0].ID != 1 {
		t.Fatalf("completed = %+v, %v", completed, err)
	}
	approvedOnly, _ := f.svc.ListAll(ctx, admin, repository.ReservationFilter{Status: model.StatusApproved})
	if len(approvedOnly) != 1 || approvedOnly[0].ID != 2 {
		t.Fatalf("approved = %+v", approvedOnly)
	}
	if _, err := f.svc.ListAll(ctx, resident, repository.ReservationFilter{}); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("resident ListAll: got %v", err)
	}
	if _, err := f.svc.ListAll(ctx, admin, repository.ReservationFilter{Status: "archived"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad status: got %v", err)
	}

	if _, err := f.svc.Get(ctx, neighbor, 1); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("neighbor Get: got %v", err)
	}
	got, err := f.svc.Get(ctx, admin, 1)
	if err != nil || got.Status != model.StatusCompleted {
		t.Fatalf("admin Get: %+v, %v", got, err)
	}
}
