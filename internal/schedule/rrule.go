package schedule

import (
	"strings"

	"github.com/teambition/rrule-go"
)

var rruleWeekdays = map[string]rrule.Weekday{
	"Mon": rrule.MO,
	"Tue": rrule.TU,
	"Wed": rrule.WE,
	"Thu": rrule.TH,
	"Fri": rrule.FR,
	"Sat": rrule.SA,
	"Sun": rrule.SU,
}

// RRule renders a descriptor as an RFC 5545 recurrence rule for calendar
// export. An every-day descriptor becomes FREQ=DAILY; a restricted day set
// becomes FREQ=WEEKLY with BYDAY. Descriptors without a time have no rule.
func RRule(d Descriptor) (string, error) {
	hour, minute, _, ok := splitTime(NormalizeTime(d.Time))
	if !ok {
		return "", nil
	}

	opt := rrule.ROption{
		Freq:     rrule.DAILY,
		Byhour:   []int{hour},
		Byminute: []int{minute},
	}
	days := strings.TrimSpace(d.Days)
	if days != "" && days != AllDays {
		var byweekday []rrule.Weekday
		for _, label := range strings.Split(days, ",") {
			if wd, ok := rruleWeekdays[strings.TrimSpace(label)]; ok {
				byweekday = append(byweekday, wd)
			}
		}
		if len(byweekday) > 0 {
			opt.Freq = rrule.WEEKLY
			opt.Byweekday = byweekday
		}
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return "", err
	}
	return rule.String(), nil
}
