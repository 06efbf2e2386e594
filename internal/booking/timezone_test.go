package booking

import (
	"testing"
	"time"
)

func TestParseOffset(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "UTC", want: 0},
		{in: "Z", want: 0},
		{in: "", want: 0},
		{in: "-05:00", want: -5 * time.Hour},
		{in: "+0530", want: 5*time.Hour + 30*time.Minute},
		{in: "+09", want: 9 * time.Hour},
		{in: "05:00", wantErr: true},
		{in: "+5", wantErr: true},
		{in: "+15:00", wantErr: true},
		{in: "-ab:cd", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseOffset(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseOffset(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOffset(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseOffset(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestZoneRoundTrip(t *testing.T) {
	instant := time.Date(2025, 3, 9, 3, 30, 0, 0, time.UTC)
	loc := testZone.ToLocal(instant)
	if loc.Hour() != 22 || loc.Day() != 8 {
		t.Fatalf("ToLocal: got %s, want 2025-03-08 22:30 local", loc)
	}
	if back := testZone.ToInstant(loc); !back.Equal(instant) {
		t.Fatalf("ToInstant(ToLocal(x)) = %s, want %s", back, instant)
	}
	// No daylight-saving adjustment: the same offset applies all year.
	summer := testZone.ToLocal(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
	if summer.Hour() != 7 {
		t.Fatalf("summer ToLocal hour = %d, want 7", summer.Hour())
	}
}

func TestZoneToInstantIgnoresInputLocation(t *testing.T) {
	wall := time.Date(2025, 1, 10, 10, 0, 0, 0, time.FixedZone("other", 3*3600))
	got := testZone.ToInstant(wall)
	want := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ToInstant = %s, want %s", got, want)
	}
}

func TestZoneDateOfAndAt(t *testing.T) {
	// 02:00 UTC on the 11th is still the 10th locally.
	d := testZone.DateOf(time.Date(2025, 1, 11, 2, 0, 0, 0, time.UTC))
	if d != (Date{Year: 2025, Month: time.January, Day: 10}) {
		t.Fatalf("DateOf = %s, want 2025-01-10", d)
	}
	if got := testZone.At(d, 24*60); !got.Equal(time.Date(2025, 1, 11, 5, 0, 0, 0, time.UTC)) {
		t.Fatalf("At(d, 24:00) = %s", got)
	}
	if !testZone.SameDay(local(2025, 1, 10, 0, 5), local(2025, 1, 10, 23, 55)) {
		t.Fatal("expected both instants on the same local day")
	}
}

func TestZeroZoneIsUTC(t *testing.T) {
	var z Zone
	instant := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := z.ToLocal(instant); got.Hour() != 12 {
		t.Fatalf("zero Zone ToLocal hour = %d, want 12", got.Hour())
	}
}

func TestParseDateAndWeekday(t *testing.T) {
	d, err := ParseDate("2025-01-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Weekday() != time.Friday {
		t.Fatalf("weekday = %s, want Friday", d.Weekday())
	}
	if d.String() != "2025-01-10" {
		t.Fatalf("String = %s", d)
	}
	if _, err := ParseDate("10/01/2025"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]int{"06:00": 360, "22:30": 1350, "24:00": 1440, "00:00": 0}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		if err != nil || got != want {
			t.Errorf("ParseTimeOfDay(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, bad := range []string{"6", "25:00", "ab:cd", ""} {
		if _, err := ParseTimeOfDay(bad); err == nil {
			t.Errorf("ParseTimeOfDay(%q): expected error", bad)
		}
	}
}
