package validator

import (
	"fmt"
	"time"

	"roombook/pkg/config"
	"roombook/pkg/timewindow"

	domainerrors "roombook/internal/reservations/errors"
)

// Policy holds the reservation rules. OpenAt and CloseAt are offsets from
// local midnight.
type Policy struct {
	Location    *time.Location
	OpenAt      time.Duration
	CloseAt     time.Duration
	MinDuration time.Duration
	MaxDuration time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Location:    time.UTC,
		OpenAt:      8 * time.Hour,
		CloseAt:     18 * time.Hour,
		MinDuration: 30 * time.Minute,
		MaxDuration: 4 * time.Hour,
	}
}

type PolicyValidator struct {
	policy Policy
}

func NewPolicyValidator(policy Policy) *PolicyValidator {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &PolicyValidator{policy: policy}
}

// PolicyFromConfig reads the business rules from cfg.
func PolicyFromConfig(cfg *config.Config) (Policy, error) {
	openAt, err := parseClock(cfg.BusinessHoursStart)
	if err != nil {
		return Policy{}, fmt.Errorf("business hours start: %w", err)
	}
	closeAt, err := parseClock(cfg.BusinessHoursEnd)
	if err != nil {
		return Policy{}, fmt.Errorf("business hours end: %w", err)
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return Policy{}, fmt.Errorf("time zone: %w", err)
	}
	return Policy{
		Location:    loc,
		OpenAt:      openAt,
		CloseAt:     closeAt,
		MinDuration: time.Duration(cfg.MinDurationMin) * time.Minute,
		MaxDuration: time.Duration(cfg.MaxDurationMin) * time.Minute,
	}, nil
}

func parseClock(hhmm string) (time.Duration, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (v *PolicyValidator) Policy() Policy {
	return v.policy
}

// Validate applies the rules in a fixed order and returns the first
// violation: window shape, minimum and maximum duration, business hours,
// then the start relative to now.
func (v *PolicyValidator) Validate(w timewindow.Window, now time.Time) error {
	if err := timewindow.Validate(w); err != nil {
		return err
	}

	d := w.Duration()
	if d < v.policy.MinDuration {
		return domainerrors.ErrDurationTooShort
	}
	if d > v.policy.MaxDuration {
		return domainerrors.ErrDurationTooLong
	}

	if !v.WithinBusinessHours(w) {
		return domainerrors.ErrOutsideBusinessHours
	}

	if w.Start.Before(now) {
		return domainerrors.ErrInThePast
	}

	return nil
}

// WithinBusinessHours reports whether both ends of w fall inside the open
// hours of the same local day. The closing time itself is allowed.
func (v *PolicyValidator) WithinBusinessHours(w timewindow.Window) bool {
	start := w.Start.In(v.policy.Location)
	end := w.End.In(v.policy.Location)

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		return false
	}

	return v.isOpen(clockOffset(start)) && v.isOpen(clockOffset(end))
}

func (v *PolicyValidator) isOpen(offset time.Duration) bool {
	return offset >= v.policy.OpenAt && offset <= v.policy.CloseAt
}

func clockOffset(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

// BusinessDay returns the open hours of the local calendar day of date.
func (v *PolicyValidator) BusinessDay(date time.Time) timewindow.Window {
	y, m, d := date.In(v.policy.Location).Date()
	return timewindow.New(
		atClock(y, m, d, v.policy.OpenAt, v.policy.Location),
		atClock(y, m, d, v.policy.CloseAt, v.policy.Location),
	)
}

func atClock(y int, m time.Month, d int, offset time.Duration, loc *time.Location) time.Time {
	h := int(offset / time.Hour)
	min := int((offset % time.Hour) / time.Minute)
	return time.Date(y, m, d, h, min, 0, 0, loc)
}
