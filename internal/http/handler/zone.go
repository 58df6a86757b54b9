package handler

import (
	"fmt"
	"time"

	// Zone names must resolve on hosts without a system zoneinfo database.
	_ "time/tzdata"

	"github.com/jaekwang-park/homework-api/internal/service"
)

// zoneParam carries the caller's IANA time zone, e.g. "America/Los_Angeles".
// "Due today" is counted by the calendar date in that zone.
const zoneParam = "tz"

// parseZone returns nil for an empty name, which keeps the server clock's zone.
func parseZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", service.ErrValidation, name)
	}
	return loc, nil
}

func inZone(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return now
	}
	return now.In(loc)
}
