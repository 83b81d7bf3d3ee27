package domain

import (
	"fmt"
	"time"
)

// LocalTimeLayout is the civil time layout used in message bodies and in every
// schedule-time field the SMS gateway accepts.
const LocalTimeLayout = "2006-01-02 15:04"

// Region describes the single calling-code region the service notifies.
type Region struct {
	CallingCode string         // e.g. "94"
	TrunkPrefix string         // e.g. "0"
	Location    *time.Location // fixed offset, no DST
}

// SriLanka is the default region: +94, trunk 0, UTC+5:30.
var SriLanka = NewRegion("94", "0", 330)

// NewRegion builds a Region with a fixed UTC offset expressed in minutes.
func NewRegion(callingCode, trunkPrefix string, utcOffsetMinutes int) Region {
	return Region{
		CallingCode: callingCode,
		TrunkPrefix: trunkPrefix,
		Location:    time.FixedZone(zoneName(utcOffsetMinutes), utcOffsetMinutes*60),
	}
}

func zoneName(offsetMinutes int) string {
	sign := '+'
	if offsetMinutes < 0 {
		sign = '-'
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offsetMinutes/60, offsetMinutes%60)
}

// FormatLocal renders t in the region's civil time using LocalTimeLayout.
func (r Region) FormatLocal(t time.Time) string {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(LocalTimeLayout)
}
