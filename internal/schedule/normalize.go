// Package schedule turns user reminder input into a canonical recurrence
// descriptor and computes concrete occurrence instants from it.
package schedule

import (
	"regexp"
	"strings"
	"time"
)

// AllDays is the canonical every-day set.
const AllDays = "Mon,Tue,Wed,Thu,Fri,Sat,Sun"

var (
	timeRe    = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)
	isoTimeRe = regexp.MustCompile(`T(\d{2}:\d{2}:\d{2})`)
)

// NormalizeTime canonicalizes HH:MM or HH:MM:SS to HH:MM:SS. A full ISO
// datetime has its time portion extracted. Anything else is returned trimmed.
func NormalizeTime(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if m := timeRe.FindStringSubmatch(trimmed); m != nil {
		sec := m[3]
		if sec == "" {
			sec = "00"
		}
		return m[1] + ":" + m[2] + ":" + sec
	}
	if m := isoTimeRe.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return trimmed
}

var dayAliases = map[string]string{
	"mon": "Mon", "monday": "Mon",
	"tue": "Tue", "tuesday": "Tue",
	"wed": "Wed", "wednesday": "Wed",
	"thu": "Thu", "thursday": "Thu",
	"fri": "Fri", "friday": "Fri",
	"sat": "Sat", "saturday": "Sat",
	"sun": "Sun", "sunday": "Sun",
}

// NormalizeDays reduces a list of weekday names or abbreviations to a
// comma-joined set of canonical 3-letter abbreviations. Matching is
// case-insensitive, duplicates are collapsed and unrecognized tokens are
// dropped. An empty result is returned as "".
func NormalizeDays(tokens []string) string {
	allowed := allowedSet(AllDays)
	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokens {
		s := strings.ToLower(strings.TrimSpace(tok))
		if s == "" {
			continue
		}
		day, ok := dayAliases[s]
		if !ok && len(s) >= 3 {
			day = strings.ToUpper(s[:1]) + s[1:3]
		}
		if !allowed[day] || seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, day)
	}
	return strings.Join(out, ",")
}

// DaysForFrequency expands a habit frequency into its weekday set. Weekly is
// pinned to the current weekday in the reminder's timezone at call time, so
// the weekly cadence follows the day the reminder is configured.
func DaysForFrequency(freq, tz string, now time.Time) string {
	switch freq {
	case "Daily":
		return AllDays
	case "Weekdays":
		return "Mon,Tue,Wed,Thu,Fri"
	case "Weekends":
		return "Sat,Sun"
	case "Weekly":
		return now.In(loadLocation(tz)).Format("Mon")
	default:
		return AllDays
	}
}

// BuildScheduledAt interprets a YYYY-MM-DD date and HH:MM:SS wall-clock time
// in the given timezone and returns the instant in UTC.
func BuildScheduledAt(date, timeStr, tz string) (*time.Time, error) {
	if date == "" || timeStr == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+timeStr, loadLocation(tz))
	if err != nil {
		return nil, err
	}
	utc := t.UTC()
	return &utc, nil
}

// DateIn formats the calendar date of an instant in the given timezone.
func DateIn(tz string, at time.Time) string {
	return at.In(loadLocation(tz)).Format("2006-01-02")
}

// Allows reports whether a comma-joined day set permits the given 3-letter
// weekday label. An empty set means every day.
func Allows(days, label string) bool {
	return allowedSet(days)[label]
}

func allowedSet(days string) map[string]bool {
	if strings.TrimSpace(days) == "" {
		days = AllDays
	}
	set := make(map[string]bool)
	for _, d := range strings.Split(days, ",") {
		if d = strings.TrimSpace(d); d != "" {
			set[d] = true
		}
	}
	return set
}

func loadLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
