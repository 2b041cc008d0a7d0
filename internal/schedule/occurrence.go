package schedule

import (
	"strconv"
	"time"
)

// Descriptor is the normalized {time, days, tz} triple driving repeated
// occurrences. Days empty means every day.
type Descriptor struct {
	Time string // HH:MM:SS wall clock
	Days string // comma-joined Mon..Sun subset
	TZ   string // IANA identifier, "" means UTC
}

// maxDayProbes bounds the candidate search. A well-formed day set always
// matches within a week, so eight probes cover it with one day to spare.
const maxDayProbes = 8

// Next computes the next UTC instant strictly after the reference instant at
// which the descriptor fires, or nil if the descriptor has no time. It never
// reads the wall clock; callers pass the reference explicitly.
func Next(d Descriptor, after time.Time) *time.Time {
	hour, minute, sec, ok := splitTime(NormalizeTime(d.Time))
	if !ok {
		return nil
	}
	loc := loadLocation(d.TZ)
	allowed := allowedSet(d.Days)

	cursor := after.In(loc)
	for i := 0; i < maxDayProbes; i++ {
		candidate := time.Date(cursor.Year(), cursor.Month(), cursor.Day(), hour, minute, sec, 0, loc)
		if allowed[candidate.Format("Mon")] && candidate.After(after) {
			utc := candidate.UTC()
			return &utc
		}
		cursor = cursor.AddDate(0, 0, 1)
	}

	// The probe loop only exhausts on a malformed day set. A reminder must
	// still get some next occurrence, so fall back to tomorrow at the same
	// wall-clock time.
	fb := after.In(loc).AddDate(0, 0, 1)
	utc := time.Date(fb.Year(), fb.Month(), fb.Day(), hour, minute, sec, 0, loc).UTC()
	return &utc
}

func splitTime(timeStr string) (hour, minute, sec int, ok bool) {
	m := timeRe.FindStringSubmatch(timeStr)
	if m == nil {
		return 0, 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	if hour > 23 || minute > 59 || sec > 59 {
		return 0, 0, 0, false
	}
	return hour, minute, sec, true
}
