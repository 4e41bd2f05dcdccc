// Package brussels converts between UTC instants and Brussels wall-clock time.
//
// Tours are planned in local time. Storage and the API work with UTC instants,
// so every conversion goes through this package.
package brussels

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"
)

const (
	Zone = "Europe/Brussels"

	// LocalLayout is the wall-clock format used by booking forms.
	LocalLayout = "2006-01-02T15:04"
	DateLayout  = "2006-01-02"
)

var (
	loc     *time.Location
	locOnce sync.Once
)

// Location returns the Europe/Brussels location. The embedded tz database is used
// when the host has none.
func Location() *time.Location {
	locOnce.Do(func() {
		l, err := time.LoadLocation(Zone)
		if err != nil {
			panic(fmt.Sprintf("brussels: load %s: %v", Zone, err))
		}
		loc = l
	})
	return loc
}

func ToLocal(t time.Time) time.Time {
	return t.In(Location())
}

// ParseLocal reads a Brussels wall-clock time and returns the UTC instant.
// LocalLayout, LocalLayout with seconds and a bare date are accepted. Wall
// times that fall in a DST transition resolve the way time.Date resolves them.
func ParseLocal(s string) (time.Time, error) {
	for _, layout := range []string{LocalLayout, LocalLayout + ":05", DateLayout} {
		t, err := time.ParseInLocation(layout, s, Location())
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("brussels: cannot parse %q as local time", s)
}

func FormatLocal(t time.Time, layout string) string {
	return ToLocal(t).Format(layout)
}

// StartOfDay returns midnight in Brussels of the day t falls on, as a UTC instant.
func StartOfDay(t time.Time) time.Time {
	l := ToLocal(t)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, Location()).UTC()
}

// Offset returns the UTC offset in effect in Brussels at t, e.g. "+02:00".
func Offset(t time.Time) string {
	return ToLocal(t).Format("-07:00")
}
