package engine

import "time"

// unixEpochJulianDay is the Julian day number of 1970-01-01.
const unixEpochJulianDay = 2440588

// BusinessDay maps a Time to the effective business day using a fixed roll
// hour in a fixed time zone. The production configuration rolls at 05:00
// America/New_York; this is a compile-time policy, not runtime
// configuration, matching spec.md §3.
type BusinessDay struct {
	zone     *time.Location
	rollHour int
}

// MarketZone is the production roll-hour policy: 05:00 New York.
var MarketZone = NewBusinessDay(mustLoadLocation("America/New_York"), 5)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Fall back to a fixed UTC-5 offset if the tzdata set is
		// unavailable in the runtime environment.
		return time.FixedZone(name, -5*3600)
	}
	return loc
}

func NewBusinessDay(zone *time.Location, rollHour int) BusinessDay {
	return BusinessDay{zone: zone, rollHour: rollHour}
}

// Of computes the Julian day of the business day in effect at t.
func (b BusinessDay) Of(t Time) JulianDay {
	local := time.UnixMilli(int64(t)).In(b.zone)
	local = local.Add(time.Duration(-b.rollHour) * time.Hour)
	y, m, d := local.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	return JulianDay(unixEpochJulianDay + days)
}

// Now returns the current time in engine epoch-millis form.
func Now() Time {
	return Time(time.Now().UnixMilli())
}

// jdToIso formats a JulianDay as a YYYYMMDD integer, per spec.md §6.
func jdToIso(jd JulianDay) int64 {
	days := int64(jd) - unixEpochJulianDay
	t := time.Unix(days*86400, 0).UTC()
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

// isoToJd inverts jdToIso.
func isoToJd(iso int64) JulianDay {
	y := int(iso / 10000)
	m := int((iso / 100) % 100)
	d := int(iso % 100)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return JulianDay(unixEpochJulianDay + t.Unix()/86400)
}
