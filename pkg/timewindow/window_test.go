package timewindow

import (
	"errors"
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2030, time.March, 4, hour, min, 0, 0, time.UTC)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		window  Window
		wantErr bool
	}{
		{name: "end after start", window: New(at(9, 0), at(10, 0)), wantErr: false},
		{name: "end equals start", window: New(at(9, 0), at(9, 0)), wantErr: true},
		{name: "end before start", window: New(at(10, 0), at(9, 0)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.window)
			if tt.wantErr && !errors.Is(err, ErrInvalidWindow) {
				t.Errorf("expected ErrInvalidWindow, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDurationMinutes(t *testing.T) {
	if got := DurationMinutes(New(at(8, 0), at(12, 0))); got != 240 {
		t.Errorf("DurationMinutes() = %v, want 240", got)
	}
	if got := DurationMinutes(New(at(8, 0), at(8, 15))); got != 15 {
		t.Errorf("DurationMinutes() = %v, want 15", got)
	}
}

func TestOverlaps(t *testing.T) {
	base := New(at(9, 0), at(10, 0))

	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{name: "identical", other: base, want: true},
		{name: "partial overlap at end", other: New(at(9, 30), at(10, 30)), want: true},
		{name: "partial overlap at start", other: New(at(8, 30), at(9, 30)), want: true},
		{name: "contained", other: New(at(9, 15), at(9, 45)), want: true},
		{name: "containing", other: New(at(8, 0), at(11, 0)), want: true},
		{name: "touching after", other: New(at(10, 0), at(11, 0)), want: false},
		{name: "touching before", other: New(at(8, 0), at(9, 0)), want: false},
		{name: "disjoint", other: New(at(12, 0), at(13, 0)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(base, tt.other); got != tt.want {
				t.Errorf("Overlaps(base, other) = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.other, base); got != tt.want {
				t.Errorf("Overlaps(other, base) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlaps_DifferentLocations(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	utc := New(at(12, 0), at(13, 0))
	local := New(
		time.Date(2030, time.March, 4, 9, 30, 0, 0, saoPaulo),
		time.Date(2030, time.March, 4, 10, 30, 0, 0, saoPaulo),
	)
	if !Overlaps(utc, local) {
		t.Error("windows denoting overlapping instants must overlap regardless of location")
	}
}

func TestContains(t *testing.T) {
	outer := New(at(8, 0), at(18, 0))
	if !Contains(outer, New(at(8, 0), at(18, 0))) {
		t.Error("window should contain itself")
	}
	if !Contains(outer, New(at(9, 0), at(10, 0))) {
		t.Error("expected inner window to be contained")
	}
	if Contains(outer, New(at(17, 0), at(18, 30))) {
		t.Error("window ending after outer must not be contained")
	}
	if Contains(outer, New(at(7, 30), at(8, 30))) {
		t.Error("window starting before outer must not be contained")
	}
}

func TestGaps(t *testing.T) {
	bounds := New(at(8, 0), at(18, 0))

	tests := []struct {
		name string
		busy []Window
		want []Window
	}{
		{
			name: "no reservations",
			busy: nil,
			want: []Window{bounds},
		},
		{
			name: "unsorted reservations",
			busy: []Window{New(at(13, 0), at(14, 0)), New(at(9, 0), at(10, 0))},
			want: []Window{
				New(at(8, 0), at(9, 0)),
				New(at(10, 0), at(13, 0)),
				New(at(14, 0), at(18, 0)),
			},
		},
		{
			name: "touching reservations leave no gap",
			busy: []Window{New(at(8, 0), at(9, 0)), New(at(9, 0), at(10, 0))},
			want: []Window{New(at(10, 0), at(18, 0))},
		},
		{
			name: "fully booked",
			busy: []Window{New(at(8, 0), at(12, 0)), New(at(12, 0), at(16, 0)), New(at(16, 0), at(18, 0))},
			want: []Window{},
		},
		{
			name: "reservations outside bounds are ignored",
			busy: []Window{New(at(6, 0), at(7, 0)), New(at(19, 0), at(20, 0))},
			want: []Window{bounds},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Gaps(bounds, tt.busy)
			if len(got) != len(tt.want) {
				t.Fatalf("Gaps() returned %d windows, want %d: %v", len(got), len(tt.want), got)
			}
			for i := range got {
				if !got[i].Start.Equal(tt.want[i].Start) || !got[i].End.Equal(tt.want[i].End) {
					t.Errorf("gap %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
