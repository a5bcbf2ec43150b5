package dataset

import (
	"github.com/ezoic/nutritrack/pkg/errors"
)

// Activity is a student's physical activity level.
type Activity int

const (
	Sedentary Activity = iota
	Light
	Moderate
	Heavy
)

var activityLabels = [...]string{"Sedentary", "Ringan", "Sedang", "Berat"}
var activityKeys = [...]string{"sedentary", "light", "moderate", "heavy"}

// Activities returns every activity level in form order.
func Activities() []Activity {
	return []Activity{Sedentary, Light, Moderate, Heavy}
}

// Valid reports whether a is one of the defined levels.
func (a Activity) Valid() bool { return a >= Sedentary && a <= Heavy }

// String returns the display label, e.g. "Sedang".
func (a Activity) String() string {
	if !a.Valid() {
		return "Activity(?)"
	}
	return activityLabels[a]
}

// Key returns the API identifier, e.g. "moderate".
func (a Activity) Key() string {
	if !a.Valid() {
		return ""
	}
	return activityKeys[a]
}

// ParseActivity matches s exactly against the display labels and API keys.
// Anything else is rejected with ErrUnknownActivity.
func ParseActivity(s string) (Activity, error) {
	for i := range activityLabels {
		if s == activityLabels[i] || s == activityKeys[i] {
			return Activity(i), nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnknownActivity, "%q", s)
}

// MarshalText encodes the activity as its API key.
func (a Activity) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, errors.Wrapf(errors.ErrUnknownActivity, "%d", int(a))
	}
	return []byte(a.Key()), nil
}

// UnmarshalText accepts a display label or an API key.
func (a *Activity) UnmarshalText(text []byte) error {
	v, err := ParseActivity(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Status is the nutrition status label.
//
// The numeric order equals the sorted order of the display labels
// (Kurang < Lebih < Normal), which is the class order the classifier reports.
type Status int

const (
	Lacking Status = iota
	Excess
	Normal
)

var statusLabels = [...]string{"Kurang", "Lebih", "Normal"}
var statusKeys = [...]string{"lacking", "excess", "normal"}

// Statuses returns every status in class order.
func Statuses() []Status {
	return []Status{Lacking, Excess, Normal}
}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool { return s >= Lacking && s <= Normal }

// String returns the display label, e.g. "Kurang".
func (s Status) String() string {
	if !s.Valid() {
		return "Status(?)"
	}
	return statusLabels[s]
}

// Key returns the API identifier, e.g. "lacking".
func (s Status) Key() string {
	if !s.Valid() {
		return ""
	}
	return statusKeys[s]
}

// ParseStatus matches s exactly against the display labels and API keys.
func ParseStatus(s string) (Status, error) {
	for i := range statusLabels {
		if s == statusLabels[i] || s == statusKeys[i] {
			return Status(i), nil
		}
	}
	return 0, errors.Wrapf(errors.ErrUnknownStatus, "%q", s)
}

// MarshalText encodes the status as its display label.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.Wrapf(errors.ErrUnknownStatus, "%d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText accepts a display label or an API key.
func (s *Status) UnmarshalText(text []byte) error {
	v, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
